package isf

import (
	"strings"

	"github.com/dantte-lp/godash7/internal/mac"
)

// yamlFixture is the on-disk YAML shape: human-readable strings for
// enum-like fields (active class names, role), converted to the
// mac.ActiveClass/mac.Role bitmasks by toFixture.
type yamlFixture struct {
	Network struct {
		Subnet    uint8    `yaml:"subnet"`
		BSubnet   uint8    `yaml:"b_subnet"`
		DDFlags   uint8    `yaml:"dd_flags"`
		BAttempts uint8    `yaml:"b_attempts"`
		Active    []string `yaml:"active"`
		HoldLimit uint16   `yaml:"hold_limit"`
		Role      string   `yaml:"role"`
	} `yaml:"network"`

	SupportedSettings uint16 `yaml:"supported_settings"`

	HoldScan  []yamlScanRecord   `yaml:"hold_scan"`
	SleepScan []yamlScanRecord   `yaml:"sleep_scan"`
	Beacon    []yamlBeaconRecord `yaml:"beacon_sequence"`
	RTC       []yamlRTCSchedule  `yaml:"rtc_schedule"`
}

type yamlScanRecord struct {
	Channel        uint8  `yaml:"channel"`
	Background     bool   `yaml:"background"`
	Multiplier1024 bool   `yaml:"multiplier_1024"`
	TimeoutCode    uint8  `yaml:"timeout_code"`
	NextInterval   uint16 `yaml:"next_interval"`
}

type yamlBeaconRecord struct {
	Channel      uint8  `yaml:"channel"`
	CSMA         bool   `yaml:"csma"`
	CallHi       uint16 `yaml:"call_hi"`
	CallLo       uint16 `yaml:"call_lo"`
	NextInterval uint16 `yaml:"next_interval"`
}

type yamlRTCSchedule struct {
	Mask  uint16 `yaml:"mask"`
	Value uint16 `yaml:"value"`
}

// activeClassNames maps the YAML fixture vocabulary to mac.ActiveClass
// bits (spec §3 netconf.active).
var activeClassNames = map[string]mac.ActiveClass{
	"endpoint":       mac.ClassEndpoint,
	"beacons":        mac.ClassBeacons,
	"gateway":        mac.ClassGateway,
	"subcontroller":  mac.ClassSubcontroller,
	"external_event": mac.ClassExternalEvent,
	"rtc_scheduler":  mac.ClassRTCScheduler,
}

func parseActiveClass(names []string) mac.ActiveClass {
	var class mac.ActiveClass
	for _, n := range names {
		class |= activeClassNames[strings.ToLower(strings.TrimSpace(n))]
	}
	return class
}

func parseRole(s string) mac.Role {
	if strings.EqualFold(strings.TrimSpace(s), "non_endpoint") {
		return mac.RoleNonEndpoint
	}
	return mac.RoleEndpoint
}

func (y yamlFixture) toFixture() Fixture {
	fx := Fixture{
		Network: NetworkFixture{
			Subnet:    y.Network.Subnet,
			BSubnet:   y.Network.BSubnet,
			DDFlags:   y.Network.DDFlags,
			BAttempts: y.Network.BAttempts,
			Active:    parseActiveClass(y.Network.Active),
			HoldLimit: y.Network.HoldLimit,
			Role:      parseRole(y.Network.Role),
		},
		SupportedSettings: y.SupportedSettings,
	}

	for _, r := range y.HoldScan {
		fx.HoldScan = append(fx.HoldScan, ScanRecordFixture(r))
	}
	for _, r := range y.SleepScan {
		fx.SleepScan = append(fx.SleepScan, ScanRecordFixture(r))
	}
	for _, r := range y.Beacon {
		fx.BeaconSequence = append(fx.BeaconSequence, BeaconRecordFixture(r))
	}
	for _, r := range y.RTC {
		fx.RTCSchedule = append(fx.RTCSchedule, RTCScheduleFixture(r))
	}

	return fx
}
