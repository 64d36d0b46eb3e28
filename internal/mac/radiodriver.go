package mac

// RadioDriver is the radio hardware abstraction referenced by contract
// only (spec §1 "Out of scope", §6 "Radio driver contract"). A
// concrete software implementation lives in internal/radio.
//
// Most methods here are called from the main dispatcher loop. Engine's
// RadioCallbacks handlers also call back into the driver (ReenterRX,
// PrepResend, TxInitBF, RxQueueHeader, RSSI) from whatever goroutine
// delivered the callback, which may be the driver's own goroutine, so
// implementations must tolerate those calls arriving from there.
type RadioDriver interface {
	RxInitBF(channel uint8) error
	RxInitFF(channel uint8, estFrames int) error
	RxTimeoutISR()
	ReenterRX(mode RFAEventNo) error
	TxInitBF() error
	TxInitFF(estFrames int) error
	TxCSMA() CSMACode
	PrepResend() error
	TxStopFlood() error
	PktDuration(bytes int) int32
	DefaultTGD(channel uint8) int32
	Kill()

	// RSSI returns the instantaneous received-signal-strength reading
	// in dBm, consumed by the link-budget half of the MAC filter
	// (spec §4.6).
	RSSI() int32

	// RxQueueHeader returns the first three bytes of the receive queue
	// (rxq[0..2] in spec terms), the fields the MAC filter reads.
	RxQueueHeader() [3]byte
}

// CSMACode is the return value of RadioDriver.TxCSMA (spec §6): -1
// means CSMA succeeded and data transfer may begin; a non-negative
// value is a wait-time in ticks; the two named errors indicate the
// channel is unusable or the clear-channel-assessment failed.
type CSMACode int32

const (
	// CSMASuccess is the sentinel -1 return of TxCSMA: begin data
	// transfer immediately.
	CSMASuccess CSMACode = -1
	// CSMAErrBadChannel indicates the selected channel cannot be used.
	CSMAErrBadChannel CSMACode = -2
	// CSMAErrCCAFail indicates the clear-channel assessment failed;
	// the caller should apply FCLoop and retry.
	CSMAErrCCAFail CSMACode = -3
)

// RadioCallbacks is the contract radio drivers invoke against (spec
// §6 "Radio callbacks"). Engine's implementations update RFA (under
// lockRFA/unlockRFA), session state and mutex bits and then return;
// they do not call Preempt, which is a no-op in this cooperative model.
// Engine implements this interface; a driver is constructed with an
// Engine (or a narrower facade over it) to call back into.
type RadioCallbacks interface {
	RFEvtBScan(scode int32, fcode int32)
	RFEvtFRX(pcode int32, fcode int32)
	RFEvtFTX(pcode int32, scratch []byte)
	RFEvtBTX(flcode int32, scratch []byte)
}
