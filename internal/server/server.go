// Package server implements the plain HTTP introspection endpoint
// godash7ctl and Prometheus scrape against: a JSON snapshot of the
// running kernel's dispatcher state, alongside the metrics handler.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dantte-lp/godash7/internal/mac"
)

// Sentinel errors for the server package.
var (
	// ErrNilEngine indicates New was called with a nil *mac.Engine.
	ErrNilEngine = errors.New("server: engine must not be nil")
)

// Server is a thin adapter exposing a mac.Engine's read-only state over
// HTTP: no RPC framework, just encoding/json, matching the introspection
// surface godash7ctl's shell and status commands poll.
type Server struct {
	engine  *mac.Engine
	logger  *slog.Logger
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time
}

// New builds a Server wrapping engine. The returned *Server is itself an
// http.Handler; mount it on any address the caller chooses. Every route
// runs behind RecoveryMiddleware and LoggingMiddleware.
func New(engine *mac.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "server"))

	s := &Server{
		engine: engine,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /v1/snapshot", s.handleSnapshot)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.handler = RecoveryMiddleware(logger)(LoggingMiddleware(logger)(s.mux))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// healthResponse is the /healthz payload.
type healthResponse struct {
	Status string        `json:"status"`
	Uptime time.Duration `json:"uptime_ns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start),
	}
	s.writeJSON(r, w, http.StatusOK, resp)
}

// snapshotResponse mirrors mac.Snapshot as wire JSON, keeping the
// kernel's own field names so godash7ctl's shell renders them directly.
type snapshotResponse struct {
	Role         string                 `json:"role"`
	Subnet       uint8                  `json:"subnet"`
	HoldCycle    uint16                 `json:"hold_cycle"`
	SessionCount int                    `json:"session_count"`
	TopSession   *sessionSnapshotWire   `json:"top_session,omitempty"`
	RadioActive  bool                   `json:"radio_active"`
	HSS          idleEventSnapshotWire  `json:"hss"`
	SSS          idleEventSnapshotWire  `json:"sss"`
	BTS          idleEventSnapshotWire  `json:"bts"`
}

type sessionSnapshotWire struct {
	ID      uint16 `json:"id"`
	Channel uint8  `json:"channel"`
	Subnet  uint8  `json:"subnet"`
	State   string `json:"state"`
	Counter int32  `json:"counter"`
}

type idleEventSnapshotWire struct {
	Kind      string `json:"kind"`
	Enabled   bool   `json:"enabled"`
	NextEvent int32  `json:"next_event"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	resp := snapshotResponse{
		Role:         snap.Role,
		Subnet:       snap.Subnet,
		HoldCycle:    snap.HoldCycle,
		SessionCount: snap.SessionCount,
		RadioActive:  snap.RadioActive,
		HSS:          idleEventSnapshotWire(snap.HSS),
		SSS:          idleEventSnapshotWire(snap.SSS),
		BTS:          idleEventSnapshotWire(snap.BTS),
	}
	if snap.TopSession != nil {
		wire := sessionSnapshotWire(*snap.TopSession)
		resp.TopSession = &wire
	}

	s.writeJSON(r, w, http.StatusOK, resp)
}

func (s *Server) writeJSON(r *http.Request, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "encode response", slog.String("error", err.Error()))
	}
}
