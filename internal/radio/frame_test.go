package radio

import "testing"

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	want := frame{
		origin:  0xDEADBEEF,
		channel: 7,
		subnet:  0x5A,
		flags:   0x7E,
		payload: []byte{1, 2, 3, 4},
	}
	got, ok := decodeFrame(encodeFrame(want))
	if !ok {
		t.Fatal("decodeFrame(encodeFrame(want)) ok = false")
	}
	if got.origin != want.origin || got.channel != want.channel ||
		got.subnet != want.subnet || got.flags != want.flags {
		t.Errorf("decoded header = %+v, want %+v", got, want)
	}
	if string(got.payload) != string(want.payload) {
		t.Errorf("decoded payload = %v, want %v", got.payload, want.payload)
	}
}

func TestFrameRoundTripEmptyPayload(t *testing.T) {
	t.Parallel()

	want := frame{origin: 1, channel: 2, subnet: 3, flags: 4}
	got, ok := decodeFrame(encodeFrame(want))
	if !ok {
		t.Fatal("decodeFrame ok = false for empty payload")
	}
	if len(got.payload) != 0 {
		t.Errorf("payload = %v, want empty", got.payload)
	}
}

func TestDecodeFrameTooShort(t *testing.T) {
	t.Parallel()

	if _, ok := decodeFrame([]byte{1, 2, 3}); ok {
		t.Error("decodeFrame on a header-sized-short buffer should fail")
	}
}

func TestDecodeFrameTruncatedPayload(t *testing.T) {
	t.Parallel()

	buf := encodeFrame(frame{payload: []byte{1, 2, 3, 4, 5}})
	if _, ok := decodeFrame(buf[:frameHeaderSize+2]); ok {
		t.Error("decodeFrame should reject a buffer shorter than the declared payload length")
	}
}
