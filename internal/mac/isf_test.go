package mac_test

import (
	"encoding/binary"
	"testing"

	"pgregory.net/rapid"

	"github.com/dantte-lp/godash7/internal/mac"
)

// encodeScanRecord is the test-side inverse of mac.DecodeScanRecord,
// grounded on the same BE layout documented in isf.go.
func encodeScanRecord(rec mac.ScanRecord) []byte {
	b := make([]byte, mac.ScanRecordSize)
	b[0] = rec.Channel
	b[1] = byte(rec.Flags)
	binary.BigEndian.PutUint16(b[2:4], rec.NextInterval)
	return b
}

// TestDecodeScanRecordRoundTrip checks the §8 BE endianness round-trip law:
// encoding a record and decoding it back must reproduce the same fields.
func TestDecodeScanRecordRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		want := mac.ScanRecord{
			Channel:      rapid.Byte().Draw(rt, "channel"),
			Flags:        mac.ScanFlags(rapid.Byte().Draw(rt, "flags")),
			NextInterval: rapid.Uint16().Draw(rt, "nextInterval"),
		}

		seq := encodeScanRecord(want)
		got, next, ok := mac.DecodeScanRecord(seq, 0)
		if !ok {
			t.Fatal("DecodeScanRecord reported failure on a single well-formed record")
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
		if next != 0 {
			t.Fatalf("cursor after a single-record sequence = %d, want 0 (wrap)", next)
		}
	})
}

// TestDecodeScanRecordCursorWrapLaw checks the §8 sequence cursor wrap law:
// decoding the last record in a multi-record sequence returns next == 0.
func TestDecodeScanRecordCursorWrapLaw(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		seq := make([]byte, 0, n*mac.ScanRecordSize)
		for i := 0; i < n; i++ {
			seq = append(seq, encodeScanRecord(mac.ScanRecord{Channel: uint8(i)})...)
		}

		cursor := uint32(0)
		for i := 0; i < n; i++ {
			rec, next, ok := mac.DecodeScanRecord(seq, cursor)
			if !ok {
				t.Fatalf("record %d: decode failed", i)
			}
			if rec.Channel != uint8(i) {
				t.Fatalf("record %d: Channel = %d, want %d", i, rec.Channel, i)
			}
			cursor = next
		}
		if cursor != 0 {
			t.Fatalf("cursor after the final record = %d, want 0 (wrap)", cursor)
		}
	})
}

func TestScanFlagsExpandTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags mac.ScanFlags
		want  int32
	}{
		{"mantissa 0 exponent 0, no x1024", 0x00, 8},
		{"mantissa 7 exponent 0, no x1024", 0x07, 15},
		{"mantissa 0 exponent 1, no x1024", 0x08, 16},
		{"mantissa 0 exponent 0, x1024", 0x40, 8 * 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.flags.ExpandTimeout(); got != tt.want {
				t.Errorf("ExpandTimeout() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScanFlagsBackgroundBit(t *testing.T) {
	t.Parallel()

	if !mac.ScanFlags(0x80).Background() {
		t.Error("bit 7 set should report Background() == true")
	}
	if mac.ScanFlags(0x7F).Background() {
		t.Error("bit 7 clear should report Background() == false")
	}
}

func TestDecodeBeaconRecordRoundTrip(t *testing.T) {
	t.Parallel()

	want := mac.BeaconRecord{
		Channel:      3,
		Params:       0x04,
		CallHi:       0xBEEF,
		CallLo:       0xCAFE,
		NextInterval: 0x1234,
	}
	b := make([]byte, mac.BeaconRecordSize)
	b[0] = want.Channel
	b[1] = byte(want.Params)
	binary.BigEndian.PutUint16(b[2:4], want.CallHi)
	binary.BigEndian.PutUint16(b[4:6], want.CallLo)
	binary.BigEndian.PutUint16(b[6:8], want.NextInterval)

	got, next, ok := mac.DecodeBeaconRecord(b, 0)
	if !ok {
		t.Fatal("DecodeBeaconRecord reported failure on a well-formed record")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if next != 0 {
		t.Fatalf("next = %d, want 0 (single-record wrap)", next)
	}
	if !got.Params.CSMABit() {
		t.Error("params 0x04 should report CSMABit() == true (boundary scenario 7)")
	}
}
