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

package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/registry"
	"github.com/minbackup/minbackup/pkg/retention"
	"github.com/minbackup/minbackup/pkg/scheduler"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MetricsAddr != defaults.MetricsAddr {
		t.Errorf("expected metrics addr %q, got %q", defaults.MetricsAddr, cfg.MetricsAddr)
	}
	if cfg.ShutdownTimeout != defaults.DaemonShutdownTimeout {
		t.Errorf("expected shutdown timeout %v, got %v",
			defaults.DaemonShutdownTimeout, cfg.ShutdownTimeout)
	}
}

func TestDefaultConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvMetricsAddr, "127.0.0.1:19464")
	t.Setenv(EnvConfig, "/etc/minbackup/config.yaml")

	cfg := DefaultConfig()
	if cfg.MetricsAddr != "127.0.0.1:19464" {
		t.Errorf("expected env metrics addr, got %q", cfg.MetricsAddr)
	}
	if cfg.ConfigFile != "/etc/minbackup/config.yaml" {
		t.Errorf("expected env config file, got %q", cfg.ConfigFile)
	}
}

func testDaemon(t *testing.T) *Daemon {
	t.Helper()

	sched := scheduler.New(&registry.Registry{},
		scheduler.NewFileStore(filepath.Join(t.TempDir(), "state.yaml")),
		retention.DefaultPolicy())

	d := &Daemon{
		config: &Config{
			MetricsAddr:     "127.0.0.1:0",
			ShutdownTimeout: time.Second,
		},
		sched: sched,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", d.handleHealth)
	mux.HandleFunc("/ready", d.handleReady)
	d.httpServer = &http.Server{Addr: d.config.MetricsAddr, Handler: mux}

	return d
}

func TestHealthEndpoint(t *testing.T) {
	d := testDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	d.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	d := testDaemon(t)

	tests := []struct {
		name           string
		ready          bool
		expectedStatus int
	}{
		{
			name:           "not ready before start",
			ready:          false,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "ready after start",
			ready:          true,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.setReady(tt.ready)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()

			d.handleReady(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	d := testDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- d.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after context cancellation")
	}
}
