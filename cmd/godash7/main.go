// godash7 daemon -- DASH7 Mode 2 MAC link-layer kernel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/trace"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/godash7/internal/config"
	"github.com/dantte-lp/godash7/internal/isf"
	"github.com/dantte-lp/godash7/internal/mac"
	radiometrics "github.com/dantte-lp/godash7/internal/metrics"
	"github.com/dantte-lp/godash7/internal/radio"
	"github.com/dantte-lp/godash7/internal/server"
	appversion "github.com/dantte-lp/godash7/internal/version"
)

// shutdownTimeout is the maximum time to wait for the HTTP servers to
// drain active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// flightRecorderMinAge is the minimum window age for the flight recorder.
const flightRecorderMinAge = 500 * time.Millisecond

// flightRecorderMaxBytes is the upper bound on flight recorder window size.
const flightRecorderMaxBytes = 2 * 1024 * 1024 // 2 MiB

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("godash7 starting",
		slog.String("version", appversion.Version),
		slog.String("server_addr", cfg.Server.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	fr := startFlightRecorder(logger)

	reg := prometheus.NewRegistry()
	engineMetrics := mac.NewMetrics(reg)
	radioMetrics := radiometrics.NewCollector(reg)

	store, err := loadISF(cfg, logger)
	if err != nil {
		logger.Error("failed to build ISF store", slog.String("error", err.Error()))
		return 1
	}

	drv, err := radio.New(cfg.Radio.ToRadioConfig(), logger, radioMetrics)
	if err != nil {
		logger.Error("failed to start radio driver", slog.String("error", err.Error()))
		return 1
	}
	defer drv.Close()

	engine := mac.NewEngine(mac.Config{
		NetConfig:  cfg.Netconf.NetConfig(),
		Driver:     drv,
		Store:      store,
		RNG:        mac.SystemRNG{},
		Log:        logger,
		StackDepth: 8,
		LinkQual:   cfg.Netconf.LinkQual,
		Metrics:    engineMetrics,
	})
	drv.SetCallbacks(engine)

	if err := engine.SysInit(); err != nil {
		logger.Error("sysinit failed", slog.String("error", err.Error()))
		return 1
	}

	if err := runServers(cfg, engine, drv, reg, logger, fr); err != nil {
		logger.Error("godash7 exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("godash7 stopped")
	return 0
}

// runServers runs the radio driver's receive loop, the introspection
// HTTP server, the metrics HTTP server, and the dispatcher loop under
// an errgroup with a signal-aware context, mirroring the teacher's
// runServers shape.
func runServers(
	cfg *config.Config,
	engine *mac.Engine,
	drv *radio.Driver,
	reg *prometheus.Registry,
	logger *slog.Logger,
	fr *trace.FlightRecorder,
) error {
	introspectionSrv, err := newIntrospectionServer(cfg.Server, engine, logger)
	if err != nil {
		return fmt.Errorf("build introspection server: %w", err)
	}
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return drv.Run(gCtx)
	})

	startHTTPServers(gCtx, g, cfg, introspectionSrv, metricsSrv, logger)

	g.Go(func() error {
		return runDispatchLoop(gCtx, engine)
	})

	logger.Info("godash7 ready")

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, fr, introspectionSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// runDispatchLoop drives engine.Step on its own schedule: each call
// returns the dispatcher's requested sleep, which becomes the elapsed
// time fed into the next call (spec §4.1, "the implementer's main
// loop owns the sleep between Step calls").
func runDispatchLoop(ctx context.Context, engine *mac.Engine) error {
	sleep := mac.TickDuration
	timer := time.NewTimer(sleep)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			start := time.Now()
			sleep = engine.Step(sleep)
			if sleep < mac.TickDuration {
				sleep = mac.TickDuration
			}
			elapsed := time.Since(start)
			if elapsed < sleep {
				timer.Reset(sleep - elapsed)
			} else {
				timer.Reset(mac.TickDuration)
			}
		}
	}
}

// startHTTPServers registers the introspection and metrics HTTP server
// goroutines.
func startHTTPServers(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	introspectionSrv *http.Server,
	metricsSrv *http.Server,
	logger *slog.Logger,
) {
	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("introspection server listening", slog.String("addr", cfg.Server.Addr))
		return listenAndServe(ctx, &lc, introspectionSrv, cfg.Server.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(ctx, &lc, metricsSrv, cfg.Metrics.Addr)
	})
}

// gracefulShutdown performs an orderly shutdown: stops the flight
// recorder, then shuts down the HTTP servers within shutdownTimeout.
//
// The parent context is already cancelled when this function is
// called; a fresh timeout context is derived internally for drain.
func gracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	fr *trace.FlightRecorder,
	servers ...*http.Server,
) error {
	logger.Info("initiating graceful shutdown")

	if fr != nil {
		fr.Stop()
		logger.Debug("flight recorder stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

// startFlightRecorder initializes and starts the runtime/trace
// FlightRecorder for post-mortem debugging of dispatcher stalls.
func startFlightRecorder(logger *slog.Logger) *trace.FlightRecorder {
	fr := trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   flightRecorderMinAge,
		MaxBytes: flightRecorderMaxBytes,
	})

	if err := fr.Start(); err != nil {
		logger.Warn("failed to start flight recorder", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("flight recorder started",
		slog.Duration("min_age", flightRecorderMinAge),
		slog.Uint64("max_bytes", flightRecorderMaxBytes),
	)

	return fr
}

// listenAndServe creates a TCP listener using the ListenConfig (for
// noctx compliance) and serves HTTP requests until the server shuts down.
func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newIntrospectionServer(cfg config.ServerConfig, engine *mac.Engine, logger *slog.Logger) (*http.Server, error) {
	srv, err := server.New(engine, logger)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// loadISF builds the mac.ISF store the engine is constructed against:
// a YAML-backed isf.Store when cfg.ISF.FixturePath is set, otherwise
// an in-memory fixture seeded from cfg.Netconf with a minimal scan and
// beacon sequence on the boot channel.
func loadISF(cfg *config.Config, logger *slog.Logger) (*isf.Store, error) {
	if cfg.ISF.FixturePath != "" {
		logger.Info("loading ISF fixture", slog.String("path", cfg.ISF.FixturePath))
		return isf.NewFileStore(cfg.ISF.FixturePath)
	}

	logger.Info("no isf.fixture_path configured, using in-memory defaults seeded from netconf")
	return isf.NewMemStore(defaultFixture(cfg.Netconf)), nil
}

// defaultFixture builds a minimal single-channel Fixture: one HSS/SSS
// scan record and one BTS beacon record on channel 0, and an
// always-matching RTC schedule slot, enough for a lone endpoint to
// boot and idle-scan without a mounted fixture file.
func defaultFixture(nc config.NetconfConfig) isf.Fixture {
	return isf.Fixture{
		Network: isf.NetworkFixture{
			Subnet:    nc.Subnet,
			BSubnet:   nc.BSubnet,
			DDFlags:   nc.DDFlags,
			BAttempts: nc.BAttempts,
			Active:    nc.ActiveClass(),
			HoldLimit: nc.HoldLimit,
			Role:      nc.RoleValue(),
		},
		SupportedSettings: 0,
		HoldScan: []isf.ScanRecordFixture{
			{Channel: 0, TimeoutCode: 8, NextInterval: 64},
		},
		SleepScan: []isf.ScanRecordFixture{
			{Channel: 0, TimeoutCode: 8, NextInterval: 512},
		},
		BeaconSequence: []isf.BeaconRecordFixture{
			{Channel: 0, CSMA: true, NextInterval: 256},
		},
		RTCSchedule: []isf.RTCScheduleFixture{
			{Mask: 0, Value: 0},
		},
	}
}

// loadConfig loads configuration from a file path or returns defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

// newLoggerWithLevel creates a structured logger using a shared
// LevelVar, the hook a future SIGHUP reload handler would retarget.
func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
