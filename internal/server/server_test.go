package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dantte-lp/godash7/internal/mac"
	"github.com/dantte-lp/godash7/internal/server"
)

// fakeDriver is a minimal mac.RadioDriver stub, just enough to build an
// Engine for introspection tests.
type fakeDriver struct{}

func (fakeDriver) RxInitBF(uint8) error          { return nil }
func (fakeDriver) RxInitFF(uint8, int) error     { return nil }
func (fakeDriver) RxTimeoutISR()                 {}
func (fakeDriver) ReenterRX(mac.RFAEventNo) error { return nil }
func (fakeDriver) TxInitBF() error               { return nil }
func (fakeDriver) TxInitFF(int) error            { return nil }
func (fakeDriver) TxCSMA() mac.CSMACode          { return mac.CSMASuccess }
func (fakeDriver) PrepResend() error             { return nil }
func (fakeDriver) TxStopFlood() error            { return nil }
func (fakeDriver) PktDuration(int) int32         { return 0 }
func (fakeDriver) DefaultTGD(uint8) int32        { return 0 }
func (fakeDriver) Kill()                         {}
func (fakeDriver) RSSI() int32                   { return -90 }
func (fakeDriver) RxQueueHeader() [3]byte        { return [3]byte{} }

// fakeISF is a minimal mac.ISF stub.
type fakeISF struct{}

func (fakeISF) NetworkSettings() (mac.NetConfig, error)   { return mac.NetConfig{Role: mac.RoleEndpoint}, nil }
func (fakeISF) SupportedSettings() (uint16, error)        { return 0, nil }
func (fakeISF) ScanSequence(mac.IdleKind) ([]byte, error) { return nil, nil }
func (fakeISF) BeaconSequence() ([]byte, error)           { return nil, nil }
func (fakeISF) RTCSchedule(uint8) (uint16, uint16, error) { return 0, 0, nil }

func newTestEngine(t *testing.T) *mac.Engine {
	t.Helper()
	return mac.NewEngine(mac.Config{
		NetConfig: mac.NetConfig{Role: mac.RoleEndpoint, Subnet: 0x12, HoldLimit: 3},
		Driver:    fakeDriver{},
		Store:     fakeISF{},
		Log:       slog.New(slog.DiscardHandler),
	})
}

func setupTestServer(t *testing.T) (*httptest.Server, *mac.Engine) {
	t.Helper()

	engine := newTestEngine(t)
	srv, err := server.New(engine, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	return httpSrv, engine
}

func TestNewRejectsNilEngine(t *testing.T) {
	t.Parallel()

	if _, err := server.New(nil, nil); err == nil {
		t.Fatal("New(nil, _) should error")
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	httpSrv, _ := setupTestServer(t)

	resp, err := http.Get(httpSrv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Parallel()

	httpSrv, engine := setupTestServer(t)
	_, err := engine.Stack.New(0, mac.NetInit, 9)
	if err != nil {
		t.Fatalf("Stack.New: %v", err)
	}

	resp, err := http.Get(httpSrv.URL + "/v1/snapshot")
	if err != nil {
		t.Fatalf("GET /v1/snapshot: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Role       string `json:"role"`
		Subnet     uint8  `json:"subnet"`
		TopSession *struct {
			Channel uint8 `json:"channel"`
		} `json:"top_session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.Role != "endpoint" {
		t.Errorf("role = %q, want %q", body.Role, "endpoint")
	}
	if body.Subnet != 0x12 {
		t.Errorf("subnet = %#x, want 0x12", body.Subnet)
	}
	if body.TopSession == nil || body.TopSession.Channel != 9 {
		t.Errorf("top_session = %+v, want channel 9", body.TopSession)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	httpSrv, _ := setupTestServer(t)

	resp, err := http.Get(httpSrv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUnknownRouteNotFound(t *testing.T) {
	t.Parallel()

	httpSrv, _ := setupTestServer(t)

	resp, err := http.Get(httpSrv.URL + "/does-not-exist")
	if err != nil {
		t.Fatalf("GET /does-not-exist: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
