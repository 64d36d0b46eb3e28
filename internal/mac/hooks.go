package mac

import "time"

// Hooks is the capability-set interface the §9 design note calls for in
// place of the source's function-pointer hook tables (loadapp, panic,
// RFA init/terminate, prestart, watchdog, query-score evaluation).
//
// External code composes an Engine with a Hooks implementation; any
// method left as DefaultHooks' zero behaviour simply does nothing, so
// a partial implementation (e.g. only LoadApp) is safe to embed.
//
// This mirrors the decoupled-notification design elsewhere in this
// pack: the kernel never imports application-layer packages, it only
// calls back into whatever Hooks the caller supplied.
type Hooks interface {
	// LoadApp is invoked by the idle task when the top session is not
	// connected; if it returns true, it queued application work and the
	// dispatcher should loop rather than compute a sleep duration
	// (spec §4.1 "Idle task").
	LoadApp(e *Engine) bool

	// Panic is invoked by sys_panic after the session stack has been
	// flushed and idle forced (spec §7). It must not allocate or touch
	// the radio.
	Panic(e *Engine, code int)

	// RFAInit is invoked when a background or foreground scan is armed
	// (event_no becomes RFABScan or RFAFScan). The TX initializers
	// (initFTX, initBTX) do not invoke it.
	RFAInit(e *Engine, evt RFAEventNo)

	// RFATerminate is invoked when an RFA event returns to idle
	// (event_no becomes zero), per spec §4.2's "invoke the RFA
	// terminate hook" step. The flood-finished handoff in RFEvtBTX
	// (flcode 0) clears event_no without invoking it.
	RFATerminate(e *Engine)

	// Prestart is invoked when an HSS/SSS scan event with a nonzero
	// Prestart fires, just before its scan record is decoded; the
	// Prestart tick count itself does not advance the call.
	Prestart(e *Engine, kind IdleKind)

	// CSMAEval is sub_fceval(query_score): a reserved hook for query-
	// quality-weighted slot shaping. DefaultHooks returns score
	// unchanged (spec §4.3, §9 Open Question (b)).
	CSMAEval(queryScore int32) int32

	// Watchdog services reset_watchdog(period) (spec §9 Open Question
	// (c)); DefaultHooks is a no-op.
	Watchdog(period time.Duration)
}

// DefaultHooks implements Hooks with every method a no-op, matching
// "capability sets... with default no-op implementations" (§9).
// Embed it and override only the methods a given deployment needs.
type DefaultHooks struct{}

func (DefaultHooks) LoadApp(*Engine) bool                { return false }
func (DefaultHooks) Panic(*Engine, int)                  {}
func (DefaultHooks) RFAInit(*Engine, RFAEventNo)         {}
func (DefaultHooks) RFATerminate(*Engine)                {}
func (DefaultHooks) Prestart(*Engine, IdleKind)          {}
func (DefaultHooks) CSMAEval(queryScore int32) int32     { return queryScore }
func (DefaultHooks) Watchdog(time.Duration)              {}

var _ Hooks = DefaultHooks{}
