package mac

// Snapshot is a point-in-time, read-only view of an Engine's dispatcher
// state, for introspection callers that must not touch the engine's
// own exclusive-reference rule (spec §9 "one value passed by exclusive
// reference through the dispatcher"). It is a copy, not a handle.
type Snapshot struct {
	Role      string
	Subnet    uint8
	HoldCycle uint16

	SessionCount int
	TopSession   *SessionSnapshot

	RadioActive bool

	HSS IdleEventSnapshot
	SSS IdleEventSnapshot
	BTS IdleEventSnapshot
}

// SessionSnapshot is the copied state of one Session, for Snapshot's
// top-of-stack field.
type SessionSnapshot struct {
	ID      uint16
	Channel uint8
	Subnet  uint8
	State   string
	Counter int32
}

// IdleEventSnapshot is the copied state of one IdleEvent.
type IdleEventSnapshot struct {
	Kind      string
	Enabled   bool
	NextEvent int32
}

// Snapshot copies the engine's current dispatcher state. Safe to call
// from a goroutine other than the one driving Step, since the only
// field shared with the radio driver's goroutine (RFA) is read under
// the same mutex Step itself uses.
func (e *Engine) Snapshot() Snapshot {
	e.lockRFA()
	radioActive := e.RFA.EventNo != 0
	e.unlockRFA()

	snap := Snapshot{
		Role:         e.NetConfig.Role.String(),
		Subnet:       e.NetConfig.Subnet,
		HoldCycle:    e.HoldCycle,
		SessionCount: e.Stack.Count(),
		RadioActive:  radioActive,
		HSS:          idleEventSnapshot(e.HSS),
		SSS:          idleEventSnapshot(e.SSS),
		BTS:          idleEventSnapshot(e.BTS),
	}

	if top := e.Stack.Top(); top != nil {
		snap.TopSession = &SessionSnapshot{
			ID:      top.ID,
			Channel: top.Channel,
			Subnet:  top.Subnet,
			State:   top.State.String(),
			Counter: top.Counter,
		}
	}

	return snap
}

func idleEventSnapshot(ev IdleEvent) IdleEventSnapshot {
	return IdleEventSnapshot{
		Kind:      ev.Kind.String(),
		Enabled:   ev.Enabled(),
		NextEvent: ev.NextEvent,
	}
}

// String implements fmt.Stringer for Role, used by Snapshot and log
// output wherever a human-readable role name beats the raw uint8.
func (r Role) String() string {
	switch r {
	case RoleEndpoint:
		return "endpoint"
	case RoleNonEndpoint:
		return "non_endpoint"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer for NetState, listing the set flag
// names joined by '|', or "none" when no bits are set.
func (n NetState) String() string {
	if n == 0 {
		return "none"
	}

	names := []struct {
		bit  NetState
		name string
	}{
		{NetInit, "init"},
		{NetReqTx, "req_tx"},
		{NetReqRx, "req_rx"},
		{NetRespTx, "resp_tx"},
		{NetRespRx, "resp_rx"},
		{NetConnected, "connected"},
		{NetHold, "hold"},
		{NetScrap, "scrap"},
		{NetFirstRx, "first_rx"},
		{NetDsDialog, "ds_dialog"},
	}

	var out string
	for _, e := range names {
		if n.Has(e.bit) {
			if out != "" {
				out += "|"
			}
			out += e.name
		}
	}
	return out
}
