// Package mac implements the DASH7 Mode 2 link-layer kernel: a
// single-threaded, event-driven session and MAC event manager that
// schedules channel scans, beacon transmissions, request/response
// dialogs, and CSMA-CA contention over a software radio abstraction.
//
// The kernel is a cooperative dispatcher (Engine.Step), not a set of
// goroutines: every exported mutation of kernel state happens on the
// caller's goroutine inside Step, except the narrow set of fields the
// RadioDriver callback contract is allowed to touch from its own
// goroutine (RFA.EventNo/NextEvent and the system mutex bits), which
// are guarded by Engine's own mutex.
package mac
