// Package radio is the reference internal/mac.RadioDriver implementation:
// a software radio simulator that stands in for the sub-GHz transceiver
// the spec treats as out of scope (spec §1 "the physical radio
// transceiver and its register-level driver"). It models the shared RF
// medium as a UDP multicast group, one send/receive path per configured
// channel, grounded on the pack's netio.Listener/UDPSender send/receive
// split.
package radio
