package mac

import "errors"

// ErrSessionStackFull is returned by SessionStack.New when the stack is
// at capacity and the new session is not ad hoc (spec §4.5).
var ErrSessionStackFull = errors.New("mac: session stack full")

// ErrNoSession names the empty-stack condition. OpenRequest and
// CloseRequest report it by returning false rather than this error.
var ErrNoSession = errors.New("mac: no active session")

// ErrISFRead is wrapped around any failure to read a configured ISF
// and surfaced through sys_panic, per spec §7.
var ErrISFRead = errors.New("mac: ISF read failure")

// ErrDiscriminatorExhausted indicates the 16-bit session id space is
// saturated; astronomically unlikely at the stack's bounded depth, but
// checked because allocateSessionID retries a fixed number of times.
var ErrDiscriminatorExhausted = errors.New("mac: session id allocator exhausted")
