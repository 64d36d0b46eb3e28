package mac

// IdleEventNo is one event slot's identity.
type IdleEventNo int

// IdleKind names the three idle-time event classes (spec §4.4).
type IdleKind int

const (
	KindHSS IdleKind = iota // hold-scan sequence
	KindSSS                 // sleep-scan sequence
	KindBTS                 // beacon-transmit sequence
)

func (k IdleKind) String() string {
	switch k {
	case KindHSS:
		return "HSS"
	case KindSSS:
		return "SSS"
	case KindBTS:
		return "BTS"
	default:
		return "unknown"
	}
}

// IdleEvent is one of {HSS, SSS, BTS} (spec §3).
type IdleEvent struct {
	Kind      IdleKind
	EventNo   IdleEventNo // 0 disables
	Cursor    uint32      // index into the associated ISF sequence
	NextEvent int32       // signed tick countdown
	SchedID   uint8       // nonzero binds this event to an RTC alarm
	Prestart  int32       // nonzero runs the prestart hook when a scan fires
}

// Enabled reports whether the event is active (event_no != 0).
func (e *IdleEvent) Enabled() bool { return e.EventNo != 0 }

// Ready reports whether the event's countdown has reached zero.
func (e *IdleEvent) Ready() bool { return e.Enabled() && e.NextEvent <= 0 }

// Clock subtracts elapsed ticks from NextEvent (spec §4.1 clock_tasks).
func (e *IdleEvent) Clock(elapsed int32) {
	if e.Enabled() {
		e.NextEvent -= elapsed
	}
}
