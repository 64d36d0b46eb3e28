package mac

// This file implements the idle_state transition logic (spec §3, §4.1,
// §8 boundary scenarios 1-2) as a pure function over a transition
// table, the same way a protocol FSM is kept separate from its session
// plumbing elsewhere in this pack: no Engine dependency, trivially
// testable against the spec's literal boundary scenarios.
//
// idle_state ∈ {off, sleep, hold} (spec §3 invariant). Endpoints may
// rest in sleep; every other class collapses hold and sleep into hold
// (spec §3, §9 Open Question (a), resolved in DESIGN.md).

// IdleFSMEvent drives idle_state transitions.
type IdleFSMEvent uint8

const (
	// EvtSysInit is the cold-start / sysinit() event (spec §6, boundary
	// scenario 1).
	EvtSysInit IdleFSMEvent = iota
	// EvtHoldCursorWrap fires when the HSS cursor wraps to 0, i.e. one
	// full hold-scan sequence has completed (spec §4.1).
	EvtHoldCursorWrap
	// EvtHoldLimitReached fires when hold_cycle reaches netconf.hold_limit
	// (spec §3, §4.1, boundary scenario 2).
	EvtHoldLimitReached
	// EvtExternalWake models an application-triggered dialog (start_dialog,
	// open_request) that must interrupt idle scanning.
	EvtExternalWake
	// EvtPanic is sys_panic's forced return to idle (spec §7).
	EvtPanic
)

func (e IdleFSMEvent) String() string {
	switch e {
	case EvtSysInit:
		return "SysInit"
	case EvtHoldCursorWrap:
		return "HoldCursorWrap"
	case EvtHoldLimitReached:
		return "HoldLimitReached"
	case EvtExternalWake:
		return "ExternalWake"
	case EvtPanic:
		return "Panic"
	default:
		return "Unknown"
	}
}

// IdleFSMAction is a side effect the caller must execute after a
// transition (mirrors the DLL/session/ISF work that idle_state changes
// must trigger, e.g. arming the first sleep-scan immediately).
type IdleFSMAction uint8

const (
	// ActRunHSS arms and fires one hold-scan immediately.
	ActRunHSS IdleFSMAction = iota + 1
	// ActRunSSS arms and fires one sleep-scan immediately.
	ActRunSSS
	// ActResetHoldCycle zeroes the hold_cycle counter.
	ActResetHoldCycle
	// ActIncrementHoldCycle increments the hold_cycle counter.
	ActIncrementHoldCycle
	// ActForceIdle flushes the session stack and disarms all idle events
	// (sys_panic path, spec §7).
	ActForceIdle
)

type idleStateEvent struct {
	state IdleState
	event IdleFSMEvent
}

type idleTransition struct {
	newState IdleState
	actions  []IdleFSMAction
}

// idleFSMTable is the complete idle_state transition table, derived
// from spec §3's invariants and the two literal boundary scenarios in
// §8 (cold-start-on-endpoint and hold-limit-reached).
//
//nolint:gochecknoglobals // transition table is intentionally package-level
var idleFSMTable = map[idleStateEvent]idleTransition{
	// Off + SysInit, resolved per Role by ApplyIdleEvent (endpoint ->
	// sleep, non-endpoint -> hold); see ApplyIdleEvent for the Role
	// branch, which this table cannot express since Role is not part
	// of the state/event key.

	{IdleHold, EvtHoldCursorWrap}: {
		newState: IdleHold,
		actions:  []IdleFSMAction{ActIncrementHoldCycle, ActRunHSS},
	},
	{IdleHold, EvtHoldLimitReached}: {
		newState: IdleSleep,
		actions:  []IdleFSMAction{ActResetHoldCycle, ActRunSSS},
	},
	{IdleSleep, EvtExternalWake}: {
		newState: IdleHold,
		actions:  nil,
	},
	{IdleHold, EvtExternalWake}: {
		newState: IdleHold,
		actions:  nil,
	},
	{IdleOff, EvtPanic}: {
		newState: IdleOff,
		actions:  []IdleFSMAction{ActForceIdle},
	},
	{IdleHold, EvtPanic}: {
		newState: IdleOff,
		actions:  []IdleFSMAction{ActForceIdle},
	},
	{IdleSleep, EvtPanic}: {
		newState: IdleOff,
		actions:  []IdleFSMAction{ActForceIdle},
	},
}

// IdleFSMResult holds the outcome of ApplyIdleEvent.
type IdleFSMResult struct {
	OldState IdleState
	NewState IdleState
	Actions  []IdleFSMAction
	Changed  bool
}

// ApplyIdleEvent applies event to the current idle_state for the given
// device role and returns the transition result. SysInit is special:
// the spec (boundary scenario 1) requires it resolve by Role rather
// than by current state, so it is handled before the table lookup.
func ApplyIdleEvent(current IdleState, role Role, event IdleFSMEvent) IdleFSMResult {
	if event == EvtSysInit {
		next := IdleHold
		acts := []IdleFSMAction{ActResetHoldCycle, ActRunHSS}
		if role == RoleEndpoint {
			next = IdleSleep
			acts = []IdleFSMAction{ActRunSSS}
		}
		return IdleFSMResult{
			OldState: current,
			NewState: next,
			Actions:  acts,
			Changed:  current != next,
		}
	}

	key := idleStateEvent{state: current, event: event}
	tr, ok := idleFSMTable[key]
	if !ok {
		return IdleFSMResult{OldState: current, NewState: current, Changed: false}
	}
	return IdleFSMResult{
		OldState: current,
		NewState: tr.newState,
		Actions:  tr.actions,
		Changed:  current != tr.newState,
	}
}
