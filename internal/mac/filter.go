package mac

// This file implements the MAC filter of spec §4.6, called on every
// received frame before acceptance. Like the per-packet authentication
// consistency check elsewhere in this pack, rejection is silent and
// cheap: no logging on the expected-reject path (spec §7 — subnet and
// link-budget rejection are absorbed silently, listen continues).

// LinkQualPass implements the link-budget half of the filter.
// rxq1 is byte 1 of the received queue header; rssiDBm is the radio
// driver's instantaneous RSSI reading; linkQual is phymac.link_qual.
func LinkQualPass(rxq1 byte, rssiDBm int32, linkQual int32) bool {
	linkloss := int32((rxq1>>1)&0x3F) - 40 - rssiDBm
	return linkloss <= linkQual
}

// SubnetPass implements the subnet half of the filter (spec §4.6,
// boundary scenario 5). fr is byte 2 of the received queue header
// (rxq[2]); ds is netconf.subnet.
//
// Upper nibble of fr must be 0xF0 (broadcast-subnet wildcard) or equal
// the upper nibble of ds. The lower nibble of fr, masked against the
// lower nibble of ds, must reproduce ds's lower nibble exactly — i.e.
// every bit set in ds's lower nibble must also be set in fr's.
func SubnetPass(fr, ds uint8) bool {
	frHi, dsHi := fr&0xF0, ds&0xF0
	if frHi != 0xF0 && frHi != dsHi {
		return false
	}
	frLo, dsLo := fr&0x0F, ds&0x0F
	return frLo&dsLo == dsLo
}

// MACFilterPass runs both halves of spec §4.6's filter.
func MACFilterPass(rxq1, rxq2 byte, rssiDBm, linkQual int32, subnet uint8) bool {
	return LinkQualPass(rxq1, rssiDBm, linkQual) && SubnetPass(rxq2, subnet)
}
