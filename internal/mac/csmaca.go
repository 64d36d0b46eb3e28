package mac

// This file implements the CSMA-CA / flow-control slot-selection
// disciplines of spec §4.3, in the same spirit as the RFC 7419 common-
// interval helper table elsewhere in this pack: small, pure, table-
// driven functions over a handful of named constants, no hidden state
// beyond what's passed in.

// RNG is the minimal randomness contract CSMA-CA needs: a uniform
// 16-bit draw for slot-offset selection and a 2-byte draw for channel-
// list scrambling. Kept as an interface (rather than a direct
// math/rand or crypto/rand call) so property-based tests can supply a
// deterministic source and the §8 RIGD-halving law can be checked
// without depending on actual randomness.
type RNG interface {
	Uint16() uint16
	Bytes2() [2]byte
}

// FCInit implements sub_fcinit(): the CSMA-CA slot computation run once
// per dialog, at initftx/initbtx time (spec §4.2, §4.3). pktDuration is
// rm2_pkt_duration(tx_frame0) in spec terms; guardTime is rm2_default_tgd.
// It mutates comm.CSMACA/comm.Tc/comm.Tca and returns the computed
// offset in ticks.
func FCInit(comm *Comm, pktDuration, guardTime int32, rng RNG) int32 {
	comm.CSMACA.inited = true
	comm.CSMACA.curSlotN = 0

	if comm.CSMACA.NoCSMA {
		return 0
	}

	switch comm.CSMACA.Mode {
	case CSMARIGD:
		comm.Tc >>= 1
		comm.Tca = comm.Tc
		if comm.Tc <= 0 {
			return 0
		}
		return int32(rng.Uint16()) % comm.Tc

	case CSMARAIND:
		span := comm.Tca - pktDuration
		if span <= 0 {
			return 0
		}
		return int32(rng.Uint16()) % span

	case CSMAAIND:
		return 0

	default: // CSMADefault
		return 0
	}
}

// FCLoop implements sub_fcloop(): the per-retry slot advance invoked
// from the radio task's txcsma step on CCA failure (spec §4.2 "on CCA
// failure RFA.nextevent := sub_fcloop()"). It mutates comm.Tc/comm.Tca
// for RIGD's geometric halving and returns the next offset in ticks.
//
// RIGD halves tc on every new slot and reports remaining-in-slot time
// plus a fresh random offset; RAIND and AIND advance by a fixed
// pktDuration with no decay; Default advances by the physical guard
// time. This matches the three-discipline split in spec §4.3.
func FCLoop(comm *Comm, pktDuration, guardTime int32, rng RNG) int32 {
	comm.CSMACA.curSlotN++

	if comm.CSMACA.NoCSMA {
		return guardTime
	}

	switch comm.CSMACA.Mode {
	case CSMARIGD:
		remaining := comm.Tc - comm.Tca
		if remaining < 0 {
			remaining = 0
		}
		comm.Tc >>= 1
		if comm.Tc <= pktDuration {
			// Halving has underflowed the packet duration: no further
			// slot exists (spec §4.3 "halving continues until tc
			// underflows the packet duration"). Drive Tca negative so
			// the radio task's tca<0 check (spec §4.2) actually observes
			// CSMA failure instead of seeing Tca pinned at a small,
			// non-negative Tc.
			comm.Tca = -1
			return -1
		}
		comm.Tca = comm.Tc
		return remaining + int32(rng.Uint16())%comm.Tc

	case CSMARAIND:
		return pktDuration

	case CSMAAIND:
		return pktDuration

	default: // CSMADefault
		return guardTime
	}
}

// ScrambleChannels permutes chanlist in place using two random bytes,
// per spec §4.3's "channel-list scramble" requirement, to avoid
// synchronised retries across devices contending on the same multi-
// channel list. Implements a Fisher-Yates shuffle seeded from the two
// bytes (reused across swaps by repeated XOR-folding, since the
// channel lists involved are short — at most a handful of entries).
func ScrambleChannels(chanlist []uint8, rng RNG) {
	if len(chanlist) < 2 {
		return
	}
	seed := rng.Bytes2()
	state := uint16(seed[0])<<8 | uint16(seed[1])
	for i := len(chanlist) - 1; i > 0; i-- {
		// xorshift16, cheap and sufficient for a shuffle over a handful
		// of channels; not used for anything security-sensitive.
		state ^= state << 7
		state ^= state >> 9
		state ^= state << 8
		j := int(state) % (i + 1)
		chanlist[i], chanlist[j] = chanlist[j], chanlist[i]
	}
}
