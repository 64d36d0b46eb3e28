package radio

import "time"

// Config bundles the construction-time parameters for a Driver.
type Config struct {
	// GroupAddr is the UDP multicast group and port the simulated ether
	// is carried over, e.g. "239.192.7.7:47000". All Driver instances
	// sharing a GroupAddr observe each other's transmissions.
	GroupAddr string

	// Interface is the network interface to join the multicast group
	// on (empty lets the kernel choose).
	Interface string

	// TicksPerByte is the simulated on-air time per payload byte, in
	// ticks, used by PktDuration.
	TicksPerByte int32

	// BaseGuardTime is the fixed per-channel guard time DefaultTGD
	// reports when no per-channel override is configured.
	BaseGuardTime int32

	// CCABusyWindow is how long a channel is considered occupied after
	// the last frame seen on it, for TxCSMA's clear-channel assessment.
	CCABusyWindow time.Duration

	// NoiseFloor is the RSSI reported when no recent frame has been
	// heard, in dBm.
	NoiseFloor int32

	// SessionSubnet is the subnet byte this device stamps on every
	// transmitted frame (rxq[2] on the receiving end, spec §4.6).
	SessionSubnet uint8
}

// DefaultGroupAddr is the fixture multicast group used when a
// deployment has no reason to pick its own (single-host simulation,
// tests).
const DefaultGroupAddr = "239.192.7.7:47000"

// DefaultConfig returns a Config suitable for a single-host simulation
// with no real RF constraints.
func DefaultConfig() Config {
	return Config{
		GroupAddr:     DefaultGroupAddr,
		TicksPerByte:  1,
		BaseGuardTime: 5,
		CCABusyWindow: 20 * time.Millisecond,
		NoiseFloor:    -95,
	}
}
