package mac

// This file implements the Idle-Time Scan Sequencer of spec §4.4 and
// the Hold/Sleep/Beacon dispatcher tasks of spec §4.1.

// RTCScheduler is the platform RTC alarm collaborator referenced by
// contract only (spec §1 "the timer platform"; §4.4 "programs the
// platform RTC alarm").
type RTCScheduler interface {
	ProgramAlarm(mask, value uint16)
}

// rtcOffsetStride is the byte stride between RTC schedule ISF records
// (spec §4.4: "offset (sched_id - 4) * 4").
const rtcOffsetStride = 4

// bindRTC implements the sched_id != 0 branch of spec §4.4: pull
// {mask, value} from the RTC schedule ISF, program the platform alarm,
// and reset cursor/nextevent to 0 so the RTC, not the tick countdown,
// drives the next firing.
func (e *Engine) bindRTC(ev *IdleEvent) {
	if ev.SchedID == 0 || e.Store == nil || e.RTC == nil {
		return
	}
	// Record slot sched_id-4 sits at byte offset (sched_id-4)*rtcOffsetStride.
	slot := ev.SchedID - 4
	mask, value, err := e.Store.RTCSchedule(slot)
	if err != nil {
		e.SysPanic(2)
		return
	}
	e.RTC.ProgramAlarm(mask, value)
	ev.Cursor = 0
	ev.NextEvent = 0
}

// fireScan implements one HSS/SSS firing (spec §4.4 scan entries):
// read the entry at cursor, compute rx_timeout, set the scan channel
// list, create the listen session, advance the cursor, wrap at EOF,
// and reload nextevent.
func (e *Engine) fireScan(ev *IdleEvent) {
	seqBytes, err := e.Store.ScanSequence(ev.Kind)
	if err != nil {
		e.SysPanic(3)
		return
	}

	if ev.Prestart > 0 {
		e.Hooks.Prestart(e, ev.Kind)
	}

	rec, next, ok := DecodeScanRecord(seqBytes, ev.Cursor)
	if !ok {
		return
	}

	state := NetState(NetInit).Set(NetReqRx)
	if rec.Flags.Background() {
		state = NetState(NetInit).Set(NetRespRx)
	}

	if sess, err := e.Stack.New(0, state, rec.Channel); err == nil {
		sess.Comm.RxTimeout = rec.Flags.ExpandTimeout()
		sess.Comm.RxChanlist = []uint8{rec.Channel}
	}

	ev.Cursor = next
	ev.NextEvent = int32(rec.NextInterval)

	e.bindRTC(ev)
}

// fireBeacon implements one BTS firing (spec §4.4 beacon entries,
// boundary scenario 7): read the entry, build the TX frame via the
// Parser collaborator, arm a background-flood TX session, advance the
// cursor by the beacon record size, and reload nextevent.
func (e *Engine) fireBeacon(ev *IdleEvent) {
	seqBytes, err := e.Store.BeaconSequence()
	if err != nil {
		e.SysPanic(4)
		return
	}

	if ev.Prestart > 0 {
		e.Hooks.Prestart(e, KindBTS)
	}

	rec, next, ok := DecodeBeaconRecord(seqBytes, ev.Cursor)
	if !ok {
		return
	}

	sess, err := e.Stack.New(0, NetState(NetInit).Set(NetRespTx), rec.Channel)
	if err == nil {
		if e.Parser != nil {
			if frame, ferr := e.Parser.BuildBeacon(rec, e.NetConfig); ferr == nil {
				sess.TxLength = len(frame)
			}
		}
		sess.Comm.Redundants = e.NetConfig.BAttempts
		if rec.Params.CSMABit() {
			sess.Comm.CSMACA.Mode = CSMARIGD
		} else {
			sess.Comm.CSMACA.NoCSMA = true
		}
	}

	ev.Cursor = next
	ev.NextEvent = int32(rec.NextInterval)

	e.bindRTC(ev)
}

// runHoldTask implements spec §4.1's Hold task: advance HSS, and on
// endpoints increment hold_cycle on cursor wrap, transitioning to
// sleep when hold_limit is reached (boundary scenario 2).
func (e *Engine) runHoldTask() {
	e.fireScan(&e.HSS)
	if e.HSS.Cursor != 0 {
		return
	}
	// Cursor returned to 0 after this firing: one full hold-scan
	// sequence completed.
	if e.NetConfig.Role != RoleEndpoint {
		return
	}
	event := EvtHoldCursorWrap
	if e.HoldCycle+1 >= e.NetConfig.HoldLimit {
		event = EvtHoldLimitReached
	}
	res := ApplyIdleEvent(IdleHold, e.NetConfig.Role, event)
	e.applyIdleActions(res.Actions)
	if res.NewState == IdleSleep {
		if e.metrics != nil {
			e.metrics.HoldSleepCycles.Inc()
		}
		e.fireScan(&e.SSS)
	}
}

// runSleepTask implements spec §4.1's Sleep task: simply advance SSS.
func (e *Engine) runSleepTask() { e.fireScan(&e.SSS) }

// runBeaconTask implements spec §4.1's Beacon task: advance BTS.
func (e *Engine) runBeaconTask() { e.fireBeacon(&e.BTS) }
