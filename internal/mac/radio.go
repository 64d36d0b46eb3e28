package mac

// This file implements the Radio I/O State Machine of spec §4.2: the
// bscan/fscan/initftx/initbtx initializers, the txcsma step, and the
// four radio-driver callbacks (rfevt_bscan/frx/ftx/btx).
//
// Unlike a true bare-metal build, the callbacks here run as plain Go
// method calls from whatever goroutine internal/radio's simulator
// drives them from, not a hardware ISR; RFA/Mutex access is still
// funnelled through Engine's lockRFA/unlockRFA so the ordering
// guarantee spec §5 asks for (single-word, memory-ordered writes
// shared with the main loop) is upheld in software as well as intent.

func (e *Engine) filterPass(s *Session) bool {
	if s == nil || e.Driver == nil {
		return true
	}
	hdr := e.Driver.RxQueueHeader()
	return MACFilterPass(hdr[1], hdr[2], e.Driver.RSSI(), e.linkQual, e.NetConfig.Subnet)
}

// bscanInit arms a background-frame receive (spec §4.2 "bscan. Init:").
func (e *Engine) bscanInit(s *Session) {
	_ = e.Driver.RxInitBF(s.Channel)
	e.lockRFA()
	e.RFA = RFAEvent{EventNo: RFABScan, NextEvent: s.Comm.RxTimeout}
	e.unlockRFA()
	e.Mutex |= SysMutex(MutexRadioListen)
	e.Hooks.RFAInit(e, RFABScan)
}

// fscanInit arms a foreground receive on the top session's channel.
func (e *Engine) fscanInit(s *Session) {
	estFrames := 1
	if s.State.Has(NetDsDialog) {
		estFrames = 0 // unknown frame count for a datastream
	}
	_ = e.Driver.RxInitFF(s.Channel, estFrames)
	e.lockRFA()
	e.RFA = RFAEvent{EventNo: RFAFScan, NextEvent: s.Comm.RxTimeout}
	e.unlockRFA()
	e.Mutex |= SysMutex(MutexRadioListen)
	e.Hooks.RFAInit(e, RFAFScan)
}

// initFTX arms a foreground CSMA'd transmit (spec §4.2 "initftx").
func (e *Engine) initFTX(s *Session) {
	_ = e.Driver.TxInitFF(1)
	offset := FCInit(&s.Comm, e.Driver.PktDuration(s.TxLength), e.Driver.DefaultTGD(s.Channel), e.RNG)
	s.Comm.Tca = s.Comm.Tc
	e.lockRFA()
	e.RFA = RFAEvent{EventNo: RFAFTX, NextEvent: offset}
	e.unlockRFA()
	e.Mutex |= SysMutex(MutexRadioListen)
}

// initBTX arms a background-flood transmit (spec §4.2 "initbtx").
func (e *Engine) initBTX(s *Session) {
	_ = e.Driver.TxInitBF()
	s.Comm.Tca = s.Comm.Tc
	e.lockRFA()
	e.RFA = RFAEvent{EventNo: RFABTX, NextEvent: 0}
	e.unlockRFA()
}

// runRadioTask implements spec §4.1's Radio task.
func (e *Engine) runRadioTask() (int32, bool) {
	e.lockRFA()
	nextEvent := e.RFA.NextEvent
	eventNo := e.RFA.EventNo
	e.unlockRFA()

	if nextEvent > 0 {
		return clampSleep(nextEvent), false
	}

	switch {
	case eventNo == RFABScan || eventNo == RFAFScan:
		e.Driver.RxTimeoutISR()
		return 0, true
	case eventNo == RFABTX || eventNo == RFAFTX:
		e.txcsma(eventNo)
		return 0, true
	default: // in-flight (>= 5)
		e.Hooks.Watchdog(e.watchdogPeriod)
		return 1, false
	}
}

// txcsma implements spec §4.2's "txcsma" step.
func (e *Engine) txcsma(eventNo RFAEventNo) {
	top := e.Stack.Top()
	if top == nil {
		e.lockRFA()
		e.RFA.EventNo = RFAIdle
		e.unlockRFA()
		e.Hooks.RFATerminate(e)
		return
	}

	if top.Comm.Tca < 0 {
		e.lockRFA()
		e.RFA.EventNo = RFAIdle
		e.unlockRFA()
		e.Stack.Pop()
		e.Hooks.RFATerminate(e)
		return
	}

	code := e.Driver.TxCSMA()
	switch {
	case code == CSMASuccess:
		e.lockRFA()
		e.Mutex |= SysMutex(MutexRadioData)
		e.RFA.EventNo += 2 // 3->5 (btx), 4->6 (ftx): into in-flight
		if eventNo == RFABTX {
			e.RFA.NextEvent = e.Driver.PktDuration(0) // flood advert duration
		} else {
			e.RFA.NextEvent = e.Driver.PktDuration(top.TxLength)
		}
		e.unlockRFA()
	case code == CSMAErrCCAFail:
		offset := FCLoop(&top.Comm, e.Driver.PktDuration(top.TxLength), e.Driver.DefaultTGD(top.Channel), e.RNG)
		e.lockRFA()
		e.RFA.NextEvent = offset
		e.unlockRFA()
		if e.metrics != nil {
			e.metrics.CSMARetries.Inc()
		}
	case code == CSMAErrBadChannel:
		e.lockRFA()
		e.RFA.EventNo = RFAIdle
		e.unlockRFA()
		top.State = top.State.Set(NetScrap)
		e.Hooks.RFATerminate(e)
	default: // driver-specified wait time in ticks
		e.lockRFA()
		e.RFA.NextEvent = int32(code)
		e.unlockRFA()
	}
}

// toggleReqResp implements the fscan-timeout A2P retry: "toggle
// RESPRX<->REQTX and REQRX<->RESPTX (XOR bits 4-5)" in spec §4.2.
func toggleReqResp(ns NetState) NetState {
	if ns.Has(NetRespRx) {
		ns = ns.Clear(NetRespRx).Set(NetReqTx)
	} else if ns.Has(NetReqTx) {
		ns = ns.Clear(NetReqTx).Set(NetRespRx)
	}
	if ns.Has(NetReqRx) {
		ns = ns.Clear(NetReqRx).Set(NetRespTx)
	} else if ns.Has(NetRespTx) {
		ns = ns.Clear(NetRespTx).Set(NetReqRx)
	}
	return ns
}

// RFEvtBScan implements spec §4.2's bscan callback.
func (e *Engine) RFEvtBScan(scode, fcode int32) {
	top := e.Stack.Top()

	if scode == -1 && top != nil && top.Comm.Redundants > 0 {
		top.Comm.Redundants--
		_ = e.Driver.ReenterRX(RFABScan)
		return
	}

	e.lockRFA()
	e.RFA.EventNo = RFAIdle
	e.unlockRFA()
	e.Mutex &^= SysMutex(MutexRadioListen)

	passed := scode >= 0 && e.filterPass(top)
	if top != nil {
		e.Stack.Pop()
	}
	if passed {
		e.Mutex |= SysMutex(MutexProcessing)
		e.processingPending = true
	}
	e.Hooks.RFATerminate(e)
}

// RFEvtFRX implements spec §4.2's frx callback.
func (e *Engine) RFEvtFRX(pcode, fcode int32) {
	top := e.Stack.Top()

	if pcode < 0 {
		e.lockRFA()
		e.RFA.EventNo = RFAIdle
		e.unlockRFA()
		if top != nil {
			switch {
			case top.Comm.Redundants > 0:
				top.State = top.State.Set(NetReqTx | NetInit | NetFirstRx)
			case top.Comm.CSMACA.Class == ClassA2P:
				top.State = toggleReqResp(top.State)
			default:
				top.State = top.State.Set(NetScrap)
			}
		}
		e.Hooks.RFATerminate(e)
		return
	}

	badCRC := fcode != 0
	var frxCode int32
	switch {
	case badCRC:
		frxCode = -1
	case !e.filterPass(top):
		frxCode = -4
	default:
		frxCode = 0
	}
	e.frxCode = frxCode

	if pcode == 0 {
		if frxCode == 0 {
			e.Mutex |= SysMutex(MutexProcessing)
			e.processingPending = true
			e.lockRFA()
			e.RFA.EventNo = RFAIdle
			e.unlockRFA()
		} else {
			_ = e.Driver.ReenterRX(RFAFScan)
		}
	}

	e.lockRFA()
	done := e.RFA.EventNo == 0
	e.unlockRFA()
	if done {
		e.Hooks.RFATerminate(e)
	}
}

// RFEvtFTX implements spec §4.2's "rfevt_ftx" completion callback.
func (e *Engine) RFEvtFTX(pcode int32, scratch []byte) {
	top := e.Stack.Top()
	if top == nil {
		return
	}
	if top.Comm.Redundants > 0 {
		top.Comm.Redundants--
	}

	wasResponse := top.State.Has(NetRespTx)
	if (top.Comm.RxTimeout == 0 || wasResponse) && top.Comm.Redundants > 0 {
		top.Comm.CSMACA.NoCSMA = true
		_ = e.Driver.PrepResend()
		e.lockRFA()
		e.RFA.EventNo = RFAFTX
		e.unlockRFA()
		return
	}

	top.State = top.State.Clear(NetReqTx | NetRespTx).Set(NetRespRx)
	if pcode < 0 {
		top.State = top.State.Set(NetScrap)
	}
	e.lockRFA()
	e.RFA.EventNo = RFAIdle
	e.unlockRFA()
	e.Hooks.RFATerminate(e)
}

// RFEvtBTX implements spec §4.2's "rfevt_btx" completion callback.
func (e *Engine) RFEvtBTX(flcode int32, scratch []byte) {
	top := e.Stack.Top()
	if top == nil {
		return
	}
	switch flcode {
	case 0:
		top.Comm.Tc = 2
		top.Comm.CSMACA.NoCSMA = true
		top.Comm.Redundants = 1
		top.State = top.State.Clear(NetRespTx).Set(NetReqTx | NetInit)
		e.lockRFA()
		e.RFA.EventNo = RFAIdle
		e.unlockRFA()
	case 2:
		_ = e.Driver.TxInitBF()
	default:
		top.State = top.State.Set(NetScrap)
		e.lockRFA()
		e.RFA.EventNo = RFAIdle
		e.unlockRFA()
		e.Hooks.RFATerminate(e)
	}
}

// runProcessingTask implements spec §4.1's Processing task.
func (e *Engine) runProcessingTask() {
	top := e.Stack.Top()
	e.processingPending = false
	e.Mutex &^= SysMutex(MutexProcessing)

	if top == nil || e.Parser == nil {
		return
	}

	score, err := e.Parser.ParseForeground(top, e.pendingRxq)
	if err != nil || score < 0 {
		return
	}

	top.Comm.IdleState = IdleHold
	e.HoldCycle = 0

	const flagListen = 0x01
	if top.Flags&flagListen != 0 {
		wait := top.Comm.Tc - e.Driver.PktDuration(top.TxLength)
		if wait < 0 {
			wait = 0
		}
		_, _ = e.Stack.New(wait, NetReqRx|NetInit, top.Channel)
	}
}
