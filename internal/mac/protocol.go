package mac

// Parser is the network/transport layer referenced by contract only
// (spec §1 "Out of scope": "the network/transport parsers (header
// build, route check, beacon payload build)"). The kernel calls it to
// score and build frames; it never inspects M2NP/M2AdvP/M2QP/M2DP
// payloads itself.
type Parser interface {
	// ParseBackground scores a received background (advert/flood) frame
	// against the top session. A non-negative score means the frame is
	// addressed to this device (spec §4.1 "Processing task").
	ParseBackground(s *Session, rxq []byte) (routeScore int32, err error)

	// ParseForeground scores a received foreground frame the same way,
	// for the fscan path.
	ParseForeground(s *Session, rxq []byte) (routeScore int32, err error)

	// BuildRequest builds the M2NP header on the top session for
	// open_request/new_session (spec §6).
	BuildRequest(s *Session, addr uint8, routing []byte) error

	// CloseRequest finalises the footer on the top session (spec §6
	// close_request).
	CloseRequest(s *Session) error

	// BuildBeacon builds a fully-formed TX frame from a decoded BTS
	// record, for beacon idle events (spec §4.4).
	BuildBeacon(rec BeaconRecord, netconf NetConfig) ([]byte, error)
}
