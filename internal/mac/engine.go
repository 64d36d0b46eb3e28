package mac

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickDuration is the kernel's scheduling granularity. The spec speaks
// of abstract "ticks"; this kernel fixes one tick to one millisecond,
// a software-managed rate well within what a cooperative dispatcher on
// a real MCU or, here, a goroutine driven by a clockwork.Clock can
// sustain (spec §1 Non-goals: "hardware-managed RX/TX timers" are
// explicitly out of scope, so this rate is not hardware-constrained).
const TickDuration = time.Millisecond

// maxSleepTicks is the dispatcher's return-value ceiling (spec §4.1
// Idle task: "return min(ETA, 65535)").
const maxSleepTicks = 65535

// Task names the priority tier the dispatcher chose on a given
// iteration (spec §4.1, §8 "exactly one task is chosen per iteration").
type Task int

const (
	TaskIdle Task = iota
	TaskExternal
	TaskHold
	TaskSleep
	TaskBeacon
	TaskSession
	TaskRadio
	TaskProcessing
)

func (t Task) String() string {
	switch t {
	case TaskIdle:
		return "idle"
	case TaskExternal:
		return "external"
	case TaskHold:
		return "hold"
	case TaskSleep:
		return "sleep"
	case TaskBeacon:
		return "beacon"
	case TaskSession:
		return "session"
	case TaskRadio:
		return "radio"
	case TaskProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Engine is the single owning value collecting the source's global
// singletons (sys, dll) per the §9 design note: one value passed by
// exclusive reference through the dispatcher, with ISR-shared fields
// (RFA, Mutex) guarded by an explicit mutex rather than assumed atomic.
type Engine struct {
	mu sync.Mutex // guards RFA and Mutex only — never held across a task body

	RFA   RFAEvent
	Mutex SysMutex

	NetConfig NetConfig
	Stack     *SessionStack

	HSS, SSS, BTS IdleEvent
	HoldCycle     uint16

	Driver RadioDriver
	Store  ISF
	Parser Parser
	Hooks  Hooks
	Clock  clockwork.Clock
	RNG    RNG
	RTC    RTCScheduler
	Log    *slog.Logger

	processingPending bool
	pendingRxq        []byte
	frxCode           int32
	externalPending   bool
	externalFn        func(*Engine)

	watchdogPeriod time.Duration
	watchdogDue    time.Time

	linkQual int32 // phymac.link_qual, configured at construction

	metrics *Metrics
}

// Config bundles the construction-time parameters for NewEngine.
type Config struct {
	NetConfig      NetConfig
	Driver         RadioDriver
	Store          ISF
	Parser         Parser
	Hooks          Hooks
	Clock          clockwork.Clock
	RNG            RNG
	RTC            RTCScheduler
	Log            *slog.Logger
	StackDepth     int
	WatchdogPeriod time.Duration
	LinkQual       int32
	Metrics        *Metrics
}

// NewEngine constructs an Engine. Hooks defaults to DefaultHooks and
// Clock to the real clockwork.Clock when left nil, matching the
// pack's habit of sane zero-value defaults in constructors.
func NewEngine(cfg Config) *Engine {
	if cfg.Hooks == nil {
		cfg.Hooks = DefaultHooks{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.StackDepth <= 0 {
		cfg.StackDepth = 8
	}
	return &Engine{
		NetConfig:      cfg.NetConfig,
		Stack:          NewSessionStack(cfg.StackDepth),
		Driver:         cfg.Driver,
		Store:          cfg.Store,
		Parser:         cfg.Parser,
		Hooks:          cfg.Hooks,
		Clock:          cfg.Clock,
		RNG:            cfg.RNG,
		RTC:            cfg.RTC,
		Log:            cfg.Log,
		watchdogPeriod: cfg.WatchdogPeriod,
		linkQual:       cfg.LinkQual,
		metrics:        cfg.Metrics,
		HSS:            IdleEvent{Kind: KindHSS},
		SSS:            IdleEvent{Kind: KindSSS},
		BTS:            IdleEvent{Kind: KindBTS},
	}
}

// lockRFA/unlockRFA bracket the narrow critical sections that touch
// RFA/Mutex, which the radio driver's own goroutine may also write
// (spec §5 "the implementer must ensure these writes are single-word
// and memory-ordered"). Made explicit here rather than assumed.
func (e *Engine) lockRFA()   { e.mu.Lock() }
func (e *Engine) unlockRFA() { e.mu.Unlock() }

// Preempt implements platform_ot_preempt(): wakes the dispatcher to
// recheck tasks immediately rather than wait out its last-returned
// sleep duration. In this cooperative model the caller's loop invokes
// Step on its own schedule; Preempt only needs to record that a
// recheck is warranted, which Step always does anyway on next entry,
// so it is a no-op retained for interface fidelity with the spec's
// ISR-callback contract and to give tests an explicit hook to assert
// against.
func (e *Engine) Preempt() {}

// SysInit implements sysinit() (spec §6): reruns the config refresh
// and resolves the cold-start idle-state transition (boundary
// scenario 1).
func (e *Engine) SysInit() error {
	cfg, err := e.Store.NetworkSettings()
	if err != nil {
		e.SysPanic(1)
		return ErrISFRead
	}
	e.NetConfig = cfg

	var comm Comm
	res := ApplyIdleEvent(comm.IdleState, e.NetConfig.Role, EvtSysInit)
	comm.IdleState = res.NewState
	e.applyIdleActions(res.Actions)
	return nil
}

// SysPanic implements sys_panic(code) (spec §7): flushes the session
// stack, forces idle, and invokes the panic hook. Must not itself
// allocate or touch the radio, so it only mutates in-memory state and
// defers to Hooks.Panic for anything beyond that.
func (e *Engine) SysPanic(code int) {
	e.Stack = NewSessionStack(cap(e.Stack.frames))
	e.HSS.EventNo, e.SSS.EventNo, e.BTS.EventNo = 0, 0, 0
	if e.metrics != nil {
		e.metrics.SysPanics.Inc()
	}
	e.Hooks.Panic(e, code)
}

func (e *Engine) applyIdleActions(actions []IdleFSMAction) {
	for _, a := range actions {
		switch a {
		case ActRunHSS:
			e.HSS.EventNo = 1
			e.HSS.Cursor = 0
			e.HSS.NextEvent = 0
		case ActRunSSS:
			e.SSS.EventNo = 1
			e.SSS.Cursor = 0
			e.SSS.NextEvent = 0
			e.HSS.EventNo = 0
		case ActResetHoldCycle:
			e.HoldCycle = 0
		case ActIncrementHoldCycle:
			e.HoldCycle++
		case ActForceIdle:
			e.Stack = NewSessionStack(cap(e.Stack.frames))
			e.HSS.EventNo, e.SSS.EventNo, e.BTS.EventNo = 0, 0, 0
		}
	}
}

// Step runs one or more dispatcher iterations (spec §4.1) until a task
// requests a sleep, and returns that duration. elapsed is the time
// since the caller's previous Step call.
func (e *Engine) Step(elapsed time.Duration) time.Duration {
	elapsedTicks := int32(elapsed / TickDuration)

	for {
		e.petWatchdog()
		e.clockTasks(elapsedTicks)
		elapsedTicks = 0 // only the first iteration consumes real elapsed time

		if e.metrics != nil {
			e.metrics.SessionsActive.Set(float64(e.Stack.Count() + 1))
		}

		task := e.chooseTask()
		if e.metrics != nil {
			e.metrics.ObserveTask(task)
		}

		sleep, loop := e.execute(task)
		if !loop {
			return time.Duration(sleep) * TickDuration
		}
	}
}

func (e *Engine) petWatchdog() {
	if e.watchdogPeriod <= 0 {
		return
	}
	now := e.Clock.Now()
	if e.watchdogDue.IsZero() {
		e.watchdogDue = now.Add(e.watchdogPeriod)
		return
	}
	if now.After(e.watchdogDue) {
		e.Driver.Kill()
		e.watchdogDue = now.Add(e.watchdogPeriod)
		return
	}
	e.Hooks.Watchdog(e.watchdogPeriod)
}

func (e *Engine) clockTasks(elapsed int32) {
	if top := e.Stack.Top(); top != nil {
		top.Comm.Tca -= elapsed
	}
	e.HSS.Clock(elapsed)
	e.SSS.Clock(elapsed)
	e.BTS.Clock(elapsed)

	e.lockRFA()
	if e.RFA.EventNo != 0 {
		e.RFA.NextEvent -= elapsed
	}
	e.unlockRFA()

	e.Stack.Refresh(elapsed)
}

// chooseTask implements the priority order of spec §4.1/§5: Processing
// > Radio > Session > Hold/Sleep/Beacon/External > Idle, with idle
// events tie-broken Beacon > Sleep > Hold by iterating from the
// highest index downward.
func (e *Engine) chooseTask() Task {
	if e.processingPending {
		return TaskProcessing
	}

	e.lockRFA()
	radioActive := e.RFA.EventNo != 0
	e.unlockRFA()
	if radioActive {
		return TaskRadio
	}

	if top := e.Stack.Top(); top != nil && top.State.Has(NetInit) {
		return TaskSession
	}

	// Idle-event tier: iterate BTS, SSS, HSS (highest index to lowest)
	// so Beacon > Sleep > Hold (spec §5).
	if e.BTS.Ready() {
		return TaskBeacon
	}
	if e.SSS.Ready() {
		return TaskSleep
	}
	if e.HSS.Ready() {
		return TaskHold
	}
	if e.externalPending {
		return TaskExternal
	}

	return TaskIdle
}

// execute runs the chosen task and reports (sleepTicks, loopAgain).
func (e *Engine) execute(task Task) (int32, bool) {
	switch task {
	case TaskProcessing:
		e.runProcessingTask()
		return 0, true
	case TaskRadio:
		return e.runRadioTask()
	case TaskSession:
		e.runSessionTask()
		return 0, true
	case TaskHold:
		e.runHoldTask()
		return 0, true
	case TaskSleep:
		e.runSleepTask()
		return 0, true
	case TaskBeacon:
		e.runBeaconTask()
		return 0, true
	case TaskExternal:
		fn := e.externalFn
		e.externalPending = false
		e.externalFn = nil
		if fn != nil {
			fn(e)
		}
		return 0, true
	default:
		return e.runIdleTask()
	}
}

// runIdleTask implements spec §4.1's Idle task.
func (e *Engine) runIdleTask() (int32, bool) {
	if top := e.Stack.Top(); top != nil && top.State.Has(NetConnected) {
		return clampSleep(top.Counter), false
	}
	if e.Hooks.LoadApp(e) {
		return 0, true
	}

	eta := e.HSS.NextEvent
	for _, ev := range []int32{e.SSS.NextEvent, e.BTS.NextEvent} {
		if ev < eta {
			eta = ev
		}
	}
	return clampSleep(eta), false
}

func clampSleep(ticks int32) int32 {
	if ticks < 0 {
		return 0
	}
	if ticks > maxSleepTicks {
		return maxSleepTicks
	}
	return ticks
}

// runSessionTask implements spec §4.1's Session task / §9's explicit
// match over the former (netstate>>5)&3 dispatch.
func (e *Engine) runSessionTask() {
	top := e.Stack.Top()
	if top == nil {
		return
	}
	sel, scrap := SelectInit(top.State)
	if scrap {
		e.Stack.Pop()
		return
	}
	switch sel {
	case selInitFTX:
		e.initFTX(top)
	case selFScan:
		e.fscanInit(top)
	case selInitBTX:
		e.initBTX(top)
	case selBScan:
		e.bscanInit(top)
	}
}

// ScheduleExternal queues an externally-triggered wake (start_dialog,
// open_request path), consumed by the External tier of chooseTask.
func (e *Engine) ScheduleExternal(fn func(*Engine)) {
	e.externalPending = true
	e.externalFn = fn
}
