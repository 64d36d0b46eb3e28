// Package isf is the reference Indexed Subordinate File store: the
// concrete collaborator internal/mac.Engine is constructed against for
// network configuration, idle-scan sequences, and RTC schedules (spec
// §6). internal/mac only ever depends on the mac.ISF interface; this
// package is the "disk" on the other side of it, the same role
// internal/netio.Listener plays as the concrete transport gobfd's
// manager is built against.
//
// Two constructors are provided: NewMemStore for an in-memory fixture
// (tests, the software radio simulator's default network) and
// NewFileStore for a YAML-backed fixture loaded with gopkg.in/yaml.v3,
// matching the pack's habit of keeping on-disk config human-editable.
package isf

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dantte-lp/godash7/internal/mac"
)

// Store is a mac.ISF implementation backed by in-memory byte slices.
// Safe for concurrent reads; Reload swaps the whole fixture atomically.
type Store struct {
	mu sync.RWMutex

	netConfig    mac.NetConfig
	supported    uint16
	holdScan     []byte
	sleepScan    []byte
	beaconSeq    []byte
	rtcSchedule  [][2]uint16
}

var _ mac.ISF = (*Store)(nil)

// Fixture is the plain-data description a Store is built from, shared
// by NewMemStore and the YAML decoder.
type Fixture struct {
	Network           NetworkFixture
	SupportedSettings uint16
	HoldScan          []ScanRecordFixture
	SleepScan         []ScanRecordFixture
	BeaconSequence    []BeaconRecordFixture
	RTCSchedule       []RTCScheduleFixture
}

// NetworkFixture mirrors ISF 0 (spec §6).
type NetworkFixture struct {
	Subnet    uint8
	BSubnet   uint8
	DDFlags   uint8
	BAttempts uint8
	Active    mac.ActiveClass
	HoldLimit uint16
	Role      mac.Role
}

// ScanRecordFixture mirrors one HSS/SSS entry (spec §4.4).
type ScanRecordFixture struct {
	Channel        uint8
	Background     bool
	Multiplier1024 bool
	TimeoutCode    uint8
	NextInterval   uint16
}

// BeaconRecordFixture mirrors one BTS entry (spec §4.4).
type BeaconRecordFixture struct {
	Channel      uint8
	CSMA         bool
	CallHi       uint16
	CallLo       uint16
	NextInterval uint16
}

// RTCScheduleFixture mirrors one RTC schedule slot (spec §4.4).
type RTCScheduleFixture struct {
	Mask  uint16
	Value uint16
}

// NewMemStore builds a Store directly from a Fixture, with no file I/O.
func NewMemStore(fx Fixture) *Store {
	s := &Store{}
	s.load(fx)
	return s
}

// NewFileStore reads and decodes a YAML fixture file at path.
func NewFileStore(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("isf: read fixture %s: %w", path, err)
	}

	var doc yamlFixture
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("isf: decode fixture %s: %w", path, err)
	}

	s := &Store{}
	s.load(doc.toFixture())
	return s, nil
}

// Reload atomically replaces the store's contents with fx.
func (s *Store) Reload(fx Fixture) {
	s.load(fx)
}

// ReloadFile re-reads and replaces the store's contents from path.
func (s *Store) ReloadFile(path string) error {
	fresh, err := NewFileStore(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.netConfig = fresh.netConfig
	s.supported = fresh.supported
	s.holdScan = fresh.holdScan
	s.sleepScan = fresh.sleepScan
	s.beaconSeq = fresh.beaconSeq
	s.rtcSchedule = fresh.rtcSchedule
	return nil
}

func (s *Store) load(fx Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.netConfig = mac.NetConfig{
		Subnet:    fx.Network.Subnet,
		BSubnet:   fx.Network.BSubnet,
		DDFlags:   fx.Network.DDFlags,
		BAttempts: fx.Network.BAttempts,
		Active:    fx.Network.Active,
		HoldLimit: fx.Network.HoldLimit,
		Role:      fx.Network.Role,
	}
	s.supported = fx.SupportedSettings
	s.holdScan = encodeScanSequence(fx.HoldScan)
	s.sleepScan = encodeScanSequence(fx.SleepScan)
	s.beaconSeq = encodeBeaconSequence(fx.BeaconSequence)

	s.rtcSchedule = make([][2]uint16, len(fx.RTCSchedule))
	for i, r := range fx.RTCSchedule {
		s.rtcSchedule[i] = [2]uint16{r.Mask, r.Value}
	}
}

// NetworkSettings implements mac.ISF.
func (s *Store) NetworkSettings() (mac.NetConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.netConfig, nil
}

// SupportedSettings implements mac.ISF.
func (s *Store) SupportedSettings() (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.supported, nil
}

// ScanSequence implements mac.ISF.
func (s *Store) ScanSequence(kind mac.IdleKind) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case mac.KindHSS:
		return s.holdScan, nil
	case mac.KindSSS:
		return s.sleepScan, nil
	default:
		return nil, fmt.Errorf("isf: scan sequence not defined for kind %v", kind)
	}
}

// BeaconSequence implements mac.ISF.
func (s *Store) BeaconSequence() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.beaconSeq, nil
}

// RTCSchedule implements mac.ISF.
func (s *Store) RTCSchedule(slot uint8) (mask, value uint16, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(slot) >= len(s.rtcSchedule) {
		return 0, 0, fmt.Errorf("isf: rtc schedule slot %d out of range (have %d)", slot, len(s.rtcSchedule))
	}
	entry := s.rtcSchedule[slot]
	return entry[0], entry[1], nil
}

func encodeScanSequence(recs []ScanRecordFixture) []byte {
	buf := make([]byte, 0, len(recs)*mac.ScanRecordSize)
	for _, r := range recs {
		var flags uint8
		if r.Background {
			flags |= 0x80
		}
		if r.Multiplier1024 {
			flags |= 0x40
		}
		flags |= r.TimeoutCode & 0x3F

		rec := make([]byte, mac.ScanRecordSize)
		rec[0] = r.Channel
		rec[1] = flags
		binary.BigEndian.PutUint16(rec[2:4], r.NextInterval)
		buf = append(buf, rec...)
	}
	return buf
}

func encodeBeaconSequence(recs []BeaconRecordFixture) []byte {
	buf := make([]byte, 0, len(recs)*mac.BeaconRecordSize)
	for _, r := range recs {
		var params uint8
		if r.CSMA {
			params |= 0x04
		}

		rec := make([]byte, mac.BeaconRecordSize)
		rec[0] = r.Channel
		rec[1] = params
		binary.BigEndian.PutUint16(rec[2:4], r.CallHi)
		binary.BigEndian.PutUint16(rec[4:6], r.CallLo)
		binary.BigEndian.PutUint16(rec[6:8], r.NextInterval)
		buf = append(buf, rec...)
	}
	return buf
}
