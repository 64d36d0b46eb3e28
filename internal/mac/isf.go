package mac

import "encoding/binary"

// ISF is the read-only-to-the-core Indexed Subordinate File contract
// (spec §6). The core never parses a file format directly; it asks an
// ISF for a named record sequence and reads fixed-width fields from
// it, always explicitly big-endian per the §9 design note ("do not
// rely on host byte order").
//
// A concrete implementation lives in internal/isf; this interface is
// the only thing internal/mac depends on, the same way the radio and
// queues are referenced by contract only (spec §1 "Out of scope").
type ISF interface {
	// NetworkSettings returns ISF 0 (spec §6): subnet, b_subnet, active,
	// dd_flags, b_attempts, hold_limit.
	NetworkSettings() (NetConfig, error)

	// SupportedSettings returns the ISF 1 u16 mask at offset 8.
	SupportedSettings() (uint16, error)

	// ScanSequence returns the raw record bytes of the named scan
	// sequence (hold_scan_sequence or sleep_scan_sequence).
	ScanSequence(kind IdleKind) ([]byte, error)

	// BeaconSequence returns the raw record bytes of
	// beacon_transmit_sequence.
	BeaconSequence() ([]byte, error)

	// RTCSchedule returns the four-byte {mask, value} record at the
	// given schedule slot index (spec §4.4: offset (sched_id-4)*4).
	RTCSchedule(slot uint8) (mask, value uint16, err error)
}

// beU16 and beU16At centralise every BE 16-bit read so no call site
// ever risks a host-order read of wire/ISF data (spec §9).
func beU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

func beU16At(b []byte, offset int) (uint16, bool) {
	if offset+2 > len(b) {
		return 0, false
	}
	return beU16(b[offset : offset+2]), true
}

// ScanRecordSize is the encoded size of one HSS/SSS record (spec §4.4):
// 2 bytes {channel, flags} + 2 bytes {next-interval, BE}.
const ScanRecordSize = 4

// BeaconRecordSize is the encoded size of one BTS record (spec §4.4):
// 2 bytes {channel, params} + 2 bytes {ISF call hi} + 2 bytes {ISF call
// lo} + 2 bytes {next-interval, BE}.
const BeaconRecordSize = 8

// ScanFlags unpacks the flags byte of an HSS/SSS record (spec §4.4):
// bit 7 = background scan, bit 6 = x1024 timeout multiplier, bits 5:0 =
// timeout exp-mantissa code.
type ScanFlags uint8

func (f ScanFlags) Background() bool    { return f&0x80 != 0 }
func (f ScanFlags) Multiplier1024() bool { return f&0x40 != 0 }
func (f ScanFlags) TimeoutCode() uint8   { return uint8(f & 0x3F) }

// ExpandTimeout converts a scan record's exp-mantissa timeout code
// into ticks: mantissa (low 3 bits) with an implicit leading bit added
// (mantissa + 8), shifted by exponent (high 3 bits of the 6-bit code),
// then scaled by 1024 if the x1024 flag is set.
// This is the "compute rx_timeout from the flags (exp-mantissa
// expansion)" step of spec §4.4.
func (f ScanFlags) ExpandTimeout() int32 {
	code := f.TimeoutCode()
	mantissa := int32(code & 0x07)
	exponent := uint(code >> 3)
	ticks := (mantissa + 8) << exponent
	if f.Multiplier1024() {
		ticks *= 1024
	}
	return ticks
}

// ScanRecord is one decoded HSS/SSS entry.
type ScanRecord struct {
	Channel      uint8
	Flags        ScanFlags
	NextInterval uint16
}

// DecodeScanRecord decodes the ScanRecordSize bytes at cursor within
// seq, wrapping the cursor to 0 at end-of-file per spec §4.4.
func DecodeScanRecord(seq []byte, cursor uint32) (ScanRecord, uint32, bool) {
	if len(seq) < ScanRecordSize {
		return ScanRecord{}, 0, false
	}
	if int(cursor)+ScanRecordSize > len(seq) {
		cursor = 0
	}
	rec := seq[cursor : cursor+ScanRecordSize]
	next := cursor + ScanRecordSize
	if int(next) >= len(seq) {
		next = 0
	}
	return ScanRecord{
		Channel: rec[0],
		Flags:   ScanFlags(rec[1]),
		NextInterval: beU16(rec[2:4]),
	}, next, true
}

// BeaconParams unpacks the params byte of a BTS record (spec §4.4,
// boundary scenario 7: "CSMA params include beacon_params & 0x04").
type BeaconParams uint8

func (p BeaconParams) CSMABit() bool { return p&0x04 != 0 }

// BeaconRecord is one decoded BTS entry.
type BeaconRecord struct {
	Channel      uint8
	Params       BeaconParams
	CallHi       uint16
	CallLo       uint16
	NextInterval uint16
}

// DecodeBeaconRecord decodes the BeaconRecordSize bytes at cursor
// within seq, wrapping to 0 at end-of-file.
func DecodeBeaconRecord(seq []byte, cursor uint32) (BeaconRecord, uint32, bool) {
	if len(seq) < BeaconRecordSize {
		return BeaconRecord{}, 0, false
	}
	if int(cursor)+BeaconRecordSize > len(seq) {
		cursor = 0
	}
	rec := seq[cursor : cursor+BeaconRecordSize]
	next := cursor + BeaconRecordSize
	if int(next) >= len(seq) {
		next = 0
	}
	return BeaconRecord{
		Channel:      rec[0],
		Params:       BeaconParams(rec[1]),
		CallHi:       beU16(rec[2:4]),
		CallLo:       beU16(rec[4:6]),
		NextInterval: beU16(rec[6:8]),
	}, next, true
}
