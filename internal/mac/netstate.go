package mac

// NetState is the packed per-session state bitset described in spec §3
// and re-expressed per the §9 design note as a small bitset rather than
// a raw integer with magic shifts.
//
// The session-task dispatch formula in §4.1 ("select one of four
// initializers from (netstate>>5)&3") is reproduced explicitly by
// SelectInit rather than by bit-shifting call sites.
type NetState uint16

const (
	// NetInit marks a session mid-initialization (request or response
	// not yet built).
	NetInit NetState = 1 << iota
	// NetReqTx marks an outbound request dialog phase.
	NetReqTx
	// NetReqRx marks an inbound request (listening) dialog phase.
	NetReqRx
	// NetRespTx marks an outbound response dialog phase.
	NetRespTx
	// NetRespRx marks an inbound response (listening) dialog phase.
	NetRespRx
	// NetConnected marks an established two-way dialog.
	NetConnected
	// NetHold marks a session retained across an idle hold cycle.
	NetHold
	// NetScrap marks a session for discard at the next session-task
	// dispatch (spec §3 invariant).
	NetScrap
	// NetFirstRx marks the first received frame of a multi-frame
	// datastream, used by the fscan retry path (spec §4.2).
	NetFirstRx
	// NetDsDialog marks a datastream (M2DP) dialog, which changes bad-CRC
	// handling in the fscan callback (spec §4.2).
	NetDsDialog
)

// Has reports whether all bits in mask are set.
func (n NetState) Has(mask NetState) bool { return n&mask == mask }

// Any reports whether any bit in mask is set.
func (n NetState) Any(mask NetState) bool { return n&mask != 0 }

// Set returns n with mask bits set.
func (n NetState) Set(mask NetState) NetState { return n | mask }

// Clear returns n with mask bits cleared.
func (n NetState) Clear(mask NetState) NetState { return n &^ mask }

// initSelector is the (netstate>>5)&3 equivalent: which two dialog-role
// bits select the session-task initializer. Bits chosen to mirror the
// four combinations of {Tx,Rx}x{Req-phase,Beacon-phase} used by
// SelectInit below; NetConnected/NetHold/etc. occupy bits 5 and up so
// the shift in the original source lines up with this bitset's layout.
type initSelector uint8

const (
	selInitFTX initSelector = iota
	selFScan
	selInitBTX
	selBScan
)

// SelectInit implements the session-task dispatch in spec §4.1: choose
// one of four initializers from the session's role bits, or report
// scrap if the top bit of the selector is set.
func SelectInit(ns NetState) (sel initSelector, scrap bool) {
	switch {
	case ns.Has(NetScrap):
		return 0, true
	case ns.Has(NetReqTx) && ns.Has(NetInit):
		return selInitFTX, false
	case ns.Has(NetReqRx), ns.Has(NetRespRx):
		return selFScan, false
	case ns.Has(NetRespTx) || ns.Has(NetDsDialog):
		return selInitBTX, false
	default:
		return selBScan, false
	}
}
