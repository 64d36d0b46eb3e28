package mac

import "time"

// SessionTemplate parameterizes NewSession (spec §6 new_session(template)).
type SessionTemplate struct {
	Channel    uint8
	Subnet     uint8
	Flags      uint8
	Timeout    int32 // applied to Comm.Tc
	Redundants uint8
}

// addrAnycastBit is bit 6 of the destination address byte, clear for
// unicast/anycast addressing (spec §6 open_request).
const addrAnycastBit = 1 << 6

// NewSession implements spec §6's new_session(template): opens an
// ad-hoc request-TX session on the given channel, applying subnet/flag
// masks over network defaults, and sets tc to the template timeout.
// Returns the session id. The session is ad hoc (wait 0), so on a full
// stack Stack.New evicts the current top rather than failing; the 0
// return is reached only if Stack.New returns an error.
func (e *Engine) NewSession(tmpl SessionTemplate) uint16 {
	subnet := tmpl.Subnet
	if subnet == 0 {
		subnet = e.NetConfig.Subnet
	}
	flags := tmpl.Flags | e.NetConfig.DDFlags

	sess, err := e.Stack.New(0, NetState(NetInit).Set(NetReqTx), tmpl.Channel)
	if err != nil {
		return 0
	}
	sess.Subnet = subnet
	sess.Flags = flags
	sess.Comm.Tc = tmpl.Timeout
	sess.Comm.Tca = tmpl.Timeout
	sess.Comm.Redundants = tmpl.Redundants
	return sess.ID
}

// OpenRequest implements spec §6's open_request(addr, routing): for
// unicast/anycast addressing it copies routing into the top session's
// M2NP build context via the Parser collaborator.
func (e *Engine) OpenRequest(addr uint8, routing []byte) bool {
	top := e.Stack.Top()
	if top == nil || e.Parser == nil {
		return false
	}
	if addr&addrAnycastBit != 0 {
		// Broadcast addressing: no per-peer routing context to build.
		return true
	}
	if err := e.Parser.BuildRequest(top, addr, routing); err != nil {
		return false
	}
	return true
}

// CloseRequest implements spec §6's close_request(): finalises the
// footer on the top session.
func (e *Engine) CloseRequest() bool {
	top := e.Stack.Top()
	if top == nil || e.Parser == nil {
		return false
	}
	return e.Parser.CloseRequest(top) == nil
}

// StartDialog implements spec §6's start_dialog(): clears the mutex,
// kills the radio, and preempts the main loop.
func (e *Engine) StartDialog() bool {
	e.lockRFA()
	e.Mutex = 0
	e.unlockRFA()
	e.Driver.Kill()
	e.Preempt()
	return true
}

// StartFlood implements spec §6's start_flood(duration): zero duration
// is equivalent to StartDialog; otherwise arms a flood TX for duration
// ticks via initBTX and returns the tick budget by driving Step in a
// loop bounded by that budget.
func (e *Engine) StartFlood(duration time.Duration) time.Duration {
	if duration <= 0 {
		e.StartDialog()
		return 0
	}
	top := e.Stack.Top()
	if top == nil {
		return 0
	}
	top.Comm.Tc = int32(duration / TickDuration)
	e.initBTX(top)

	budget := duration
	for budget > 0 {
		sleep := e.Step(0)
		if sleep <= 0 {
			sleep = TickDuration
		}
		budget -= sleep
	}
	return duration
}
