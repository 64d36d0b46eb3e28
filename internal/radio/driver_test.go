package radio

import (
	"net"
	"testing"
	"time"

	"github.com/dantte-lp/godash7/internal/mac"
)

// cbRecorder is a minimal mac.RadioCallbacks stub recording invocations,
// grounded on the pack's hand-written-fake habit for small collaborator
// interfaces (mac_test.fakeDriver plays the same role the other way).
type cbRecorder struct {
	bscanCalls []int32
	frxCalls   []int32
}

func (r *cbRecorder) RFEvtBScan(scode, fcode int32)    { r.bscanCalls = append(r.bscanCalls, scode) }
func (r *cbRecorder) RFEvtFRX(pcode, fcode int32)      { r.frxCalls = append(r.frxCalls, pcode) }
func (r *cbRecorder) RFEvtFTX(int32, []byte)           {}
func (r *cbRecorder) RFEvtBTX(int32, []byte)           {}

func newBareDriver() *Driver {
	return &Driver{
		cfg:     DefaultConfig(),
		occ:     newOccupancy(20 * time.Millisecond),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func TestRxInitModesAndTimeout(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	cb := &cbRecorder{}
	d.SetCallbacks(cb)
	d.killed = true // RxInit should clear this, mirroring a real re-arm

	if err := d.RxInitBF(4); err != nil {
		t.Fatalf("RxInitBF: %v", err)
	}
	d.RxTimeoutISR()
	if len(cb.bscanCalls) != 1 || cb.bscanCalls[0] != -1 {
		t.Fatalf("RxTimeoutISR after RxInitBF should call RFEvtBScan(-1, _) once, got %v", cb.bscanCalls)
	}
	if d.killed {
		t.Error("RxInitBF should clear killed")
	}

	if err := d.RxInitFF(4, 1); err != nil {
		t.Fatalf("RxInitFF: %v", err)
	}
	d.RxTimeoutISR()
	if len(cb.frxCalls) != 1 || cb.frxCalls[0] != -1 {
		t.Fatalf("RxTimeoutISR after RxInitFF should call RFEvtFRX(-1, _) once, got %v", cb.frxCalls)
	}
}

func TestReenterRXRejectsUnsupportedMode(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	if err := d.ReenterRX(mac.RFABTX); err == nil {
		t.Error("ReenterRX with a non-scan mode should error")
	}
	if err := d.ReenterRX(mac.RFABScan); err != nil {
		t.Errorf("ReenterRX(RFABScan): %v", err)
	}
}

func TestHandleDatagramIgnoresOwnOrigin(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	d.origin = 42
	cb := &cbRecorder{}
	d.SetCallbacks(cb)
	_ = d.RxInitBF(1)

	d.handleDatagram(encodeFrame(frame{origin: 42, channel: 1}))
	if len(cb.bscanCalls) != 0 {
		t.Error("a frame carrying our own origin tag should be discarded as an echo")
	}
}

func TestHandleDatagramIgnoresUntunedChannel(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	d.origin = 42
	cb := &cbRecorder{}
	d.SetCallbacks(cb)
	_ = d.RxInitBF(1)

	d.handleDatagram(encodeFrame(frame{origin: 99, channel: 2}))
	if len(cb.bscanCalls) != 0 {
		t.Error("a frame on a channel we're not tuned to should be ignored")
	}
}

func TestHandleDatagramDispatchesByMode(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	d.origin = 42
	cb := &cbRecorder{}
	d.SetCallbacks(cb)

	_ = d.RxInitFF(5, 1)
	d.handleDatagram(encodeFrame(frame{origin: 99, channel: 5, subnet: 0x5A}))
	if len(cb.frxCalls) != 1 || cb.frxCalls[0] != 0 {
		t.Fatalf("foreground scan should dispatch RFEvtFRX(0, _), got %v", cb.frxCalls)
	}

	hdr := d.RxQueueHeader()
	if hdr[0] != 5 || hdr[2] != 0x5A {
		t.Errorf("RxQueueHeader = %v, want channel 5 in [0] and subnet 0x5A in [2]", hdr)
	}
}

func TestTxCSMARespectsOccupancy(t *testing.T) {
	t.Parallel()

	// A real loopback UDP pair stands in for the multicast socket so
	// TxCSMA's write path can be exercised without requiring a working
	// multicast-capable network namespace.
	local, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer local.Close()

	d := newBareDriver()
	d.conn = local
	d.groupAddr = local.LocalAddr().(*net.UDPAddr)
	_ = d.RxInitBF(3)

	if code := d.TxCSMA(); code != mac.CSMASuccess {
		t.Fatalf("TxCSMA on a clear channel = %v, want CSMASuccess", code)
	}

	if code := d.TxCSMA(); code != mac.CSMAErrCCAFail {
		t.Fatalf("TxCSMA immediately after our own send = %v, want CSMAErrCCAFail (channel marked busy)", code)
	}
}

func TestTxCSMAFailsWhenKilled(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	d.killed = true
	if code := d.TxCSMA(); code != mac.CSMAErrBadChannel {
		t.Errorf("TxCSMA while killed = %v, want CSMAErrBadChannel", code)
	}
}

func TestPktDurationAndTGD(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	d.cfg.TicksPerByte = 2
	d.cfg.BaseGuardTime = 7

	if got := d.PktDuration(0); got != 2 {
		t.Errorf("PktDuration(0) = %d, want 2 (bytes floored to 1)", got)
	}
	if got := d.PktDuration(10); got != 20 {
		t.Errorf("PktDuration(10) = %d, want 20", got)
	}
	if got := d.DefaultTGD(1); got != 7 {
		t.Errorf("DefaultTGD(1) = %d, want 7", got)
	}
}

func TestKillStopsRxDispatch(t *testing.T) {
	t.Parallel()

	d := newBareDriver()
	d.origin = 1
	cb := &cbRecorder{}
	d.SetCallbacks(cb)
	_ = d.RxInitBF(1)

	d.Kill()
	d.handleDatagram(encodeFrame(frame{origin: 2, channel: 1}))
	if len(cb.bscanCalls) != 0 {
		t.Error("a killed driver should not dispatch callbacks for incoming frames")
	}
}
