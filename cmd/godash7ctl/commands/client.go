package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// snapshotWire mirrors internal/server's /v1/snapshot response, kept as
// its own copy since the daemon's wire types are unexported.
type snapshotWire struct {
	Role         string            `json:"role"`
	Subnet       uint8             `json:"subnet"`
	HoldCycle    uint16            `json:"hold_cycle"`
	SessionCount int               `json:"session_count"`
	TopSession   *sessionWire      `json:"top_session,omitempty"`
	RadioActive  bool              `json:"radio_active"`
	HSS          idleEventWire     `json:"hss"`
	SSS          idleEventWire     `json:"sss"`
	BTS          idleEventWire     `json:"bts"`
}

type sessionWire struct {
	ID      uint16 `json:"id"`
	Channel uint8  `json:"channel"`
	Subnet  uint8  `json:"subnet"`
	State   string `json:"state"`
	Counter int32  `json:"counter"`
}

type idleEventWire struct {
	Kind      string `json:"kind"`
	Enabled   bool   `json:"enabled"`
	NextEvent int32  `json:"next_event"`
}

type healthWire struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime_ns"`
}

// getJSON issues a GET to path on the daemon's introspection endpoint
// and decodes the JSON body into out.
func getJSON(path string, out any) error {
	url := "http://" + serverAddr + path
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func fetchSnapshot() (*snapshotWire, error) {
	var snap snapshotWire
	if err := getJSON("/v1/snapshot", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func fetchHealth() (*healthWire, error) {
	var h healthWire
	if err := getJSON("/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}
