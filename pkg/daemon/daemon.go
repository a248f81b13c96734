// Copyright (c) 2025, MinBackup Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package daemon runs the recurring snapshot scheduler as a long-lived
// process with a Prometheus metrics endpoint and systemd integration.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/minbackup/minbackup/pkg/config"
	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/logging"
	"github.com/minbackup/minbackup/pkg/registry"
	"github.com/minbackup/minbackup/pkg/retention"
	"github.com/minbackup/minbackup/pkg/scheduler"
)

const (
	name           = "minbackupd"
	versionDefault = "dev"

	// EnvMetricsAddr overrides the metrics listen address.
	EnvMetricsAddr = "MINBACKUP_METRICS_ADDR"

	// EnvConfig points at the optional configuration file.
	EnvConfig = "MINBACKUP_CONFIG"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Config holds the daemon process settings. Platform and retention settings
// come from the shared configuration file, not from here.
type Config struct {
	// ConfigFile is the shared configuration file path, empty for defaults.
	ConfigFile string

	// MetricsAddr is the listen address of the /metrics endpoint.
	MetricsAddr string

	// ShutdownTimeout bounds how long shutdown waits for the metrics server
	// and an in-flight scheduler tick.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns daemon defaults with environment overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{
		MetricsAddr:     defaults.MetricsAddr,
		ShutdownTimeout: defaults.DaemonShutdownTimeout,
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv(EnvConfig); v != "" {
		cfg.ConfigFile = v
	}
	return cfg
}

// Daemon couples the scheduler loop with the metrics HTTP server.
type Daemon struct {
	config     *Config
	sched      *scheduler.Scheduler
	httpServer *http.Server

	mu    sync.RWMutex
	ready bool
}

// New discovers the configured platforms and assembles the daemon. Platforms
// that fail their probe are excluded for the life of the process; a restart
// picks them back up.
func New(ctx context.Context, cfg *Config) (*Daemon, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	appCfg, err := config.Load(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	types, err := appCfg.PlatformTypes()
	if err != nil {
		return nil, err
	}
	reg, err := registry.Discover(ctx, types,
		&registry.DefaultFactory{CommandTimeout: appCfg.CommandTimeout()})
	if err != nil {
		return nil, err
	}
	for t, reason := range reg.Excluded() {
		slog.Warn("platform excluded",
			slog.String("platform", string(t)),
			slog.String("reason", reason))
	}

	d := &Daemon{
		config: cfg,
		sched: scheduler.New(reg,
			scheduler.NewFileStore(appCfg.StateFile),
			retention.Policy{KeepCount: appCfg.SnapshotRetention}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", d.handleHealth)
	mux.HandleFunc("/ready", d.handleReady)
	d.httpServer = &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return d, nil
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (d *Daemon) handleReady(w http.ResponseWriter, _ *http.Request) {
	d.mu.RLock()
	ready := d.ready
	d.mu.RUnlock()
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}

func (d *Daemon) setReady(ready bool) {
	d.mu.Lock()
	d.ready = ready
	d.mu.Unlock()
}

// Start runs the scheduler loop and the metrics server until ctx is
// canceled, then shuts both down.
func (d *Daemon) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := d.sched.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		slog.Info("metrics server listening", slog.String("addr", d.httpServer.Addr))
		if err := d.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		d.setReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
		defer cancel()
		return d.httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		notifyWatchdog(gctx)
		return nil
	})

	d.setReady(true)
	notify(sd.SdNotifyReady)

	err := g.Wait()
	notify(sd.SdNotifyStopping)
	return err
}

// notify sends a systemd state notification. Outside systemd it is a no-op.
func notify(state string) {
	if _, err := sd.SdNotify(false, state); err != nil {
		slog.Debug("systemd notify failed", slog.String("error", err.Error()))
	}
}

// notifyWatchdog services the systemd watchdog, if one is armed, until ctx
// is canceled.
func notifyWatchdog(ctx context.Context) {
	interval, err := sd.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notify(sd.SdNotifyWatchdog)
		}
	}
}

// Run starts the daemon with graceful shutdown handling. This is called by
// main.main().
func Run() error {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, os.Getenv("LOG_LEVEL"))

	slog.Info("starting daemon",
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("date", date))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := New(ctx, DefaultConfig())
	if err != nil {
		return err
	}

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	slog.Info("daemon stopped gracefully")
	return nil
}
