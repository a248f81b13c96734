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

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/lifecycle"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/provenance"
	"github.com/minbackup/minbackup/pkg/report"
	"github.com/minbackup/minbackup/pkg/retention"
)

// VMSource is the registry view the scheduler needs: the aggregated VM list
// and adapter lookup by platform. Satisfied by registry.Registry.
type VMSource interface {
	ListAllVMs(ctx context.Context) ([]platform.VM, map[platform.Type]string)
	Adapter(t platform.Type) (platform.Adapter, bool)
}

// Scheduler drives recurring automatic snapshots over every discovered VM.
type Scheduler struct {
	source VMSource
	store  Store
	policy retention.Policy

	// wakeInterval bounds how long the daemon loop sleeps between due checks.
	wakeInterval time.Duration

	now func() time.Time

	mu            sync.Mutex
	daemonRunning bool
}

// New creates a scheduler over the given VM source and state store.
func New(source VMSource, store Store, policy retention.Policy) *Scheduler {
	return &Scheduler{
		source:       source,
		store:        store,
		policy:       policy,
		wakeInterval: defaults.SchedulerWakeInterval,
		now:          time.Now,
	}
}

// Enable turns the scheduler on with the given interval. An empty interval
// keeps the currently persisted one (or the default). The change takes effect
// at the daemon's next wake; no daemon restart is needed.
func (s *Scheduler) Enable(interval string) (*State, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	if interval != "" {
		d, err := ParseInterval(interval)
		if err != nil {
			return nil, err
		}
		state.IntervalSeconds = int64(d.Seconds())
	}
	state.Enabled = true

	if err := s.store.Save(state); err != nil {
		return nil, err
	}

	slog.Info("scheduler enabled", "interval", state.Interval().String())
	return state, nil
}

// Disable turns the scheduler off. An in-flight tick finishes; only future
// ticks are prevented.
func (s *Scheduler) Disable() (*State, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	state.Enabled = false
	if err := s.store.Save(state); err != nil {
		return nil, err
	}

	slog.Info("scheduler disabled")
	return state, nil
}

// Status describes the scheduler's current standing plus a best-effort
// inventory summary.
type Status struct {
	Enabled         bool       `json:"enabled" yaml:"enabled"`
	IntervalSeconds int64      `json:"intervalSeconds" yaml:"intervalSeconds"`
	LastRunAt       *time.Time `json:"lastRunAt,omitempty" yaml:"lastRunAt,omitempty"`
	NextRunAt       *time.Time `json:"nextRunAt,omitempty" yaml:"nextRunAt,omitempty"`

	// DaemonRunning reflects this process only; the CLI cannot see a daemon
	// running elsewhere.
	DaemonRunning bool `json:"daemonRunning" yaml:"daemonRunning"`

	// VMCount and ManagedSnapshots are best-effort aggregates; platforms that
	// fail to answer are simply not counted.
	VMCount          int `json:"vmCount" yaml:"vmCount"`
	ManagedSnapshots int `json:"managedSnapshots" yaml:"managedSnapshots"`
}

// Status reports the persisted state, the next due time, and a best-effort
// count of VMs and managed snapshots across the discovered platforms.
func (s *Scheduler) Status(ctx context.Context) (*Status, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	st := &Status{
		Enabled:         state.Enabled,
		IntervalSeconds: int64(state.Interval().Seconds()),
		DaemonRunning:   s.isDaemonRunning(),
	}
	if !state.LastRunAt.IsZero() {
		last := state.LastRunAt
		st.LastRunAt = &last
		if state.Enabled {
			next := last.Add(state.Interval())
			st.NextRunAt = &next
		}
	}

	vms, _ := s.source.ListAllVMs(ctx)
	st.VMCount = len(vms)
	for _, vm := range vms {
		adapter, ok := s.source.Adapter(vm.Platform)
		if !ok {
			continue
		}
		snaps, err := adapter.ListSnapshots(ctx, vm.Name)
		if err != nil {
			continue
		}
		st.ManagedSnapshots += len(provenance.FilterManaged(snaps))
	}

	return st, nil
}

// RunNow executes one tick immediately. It refuses when the scheduler is
// disabled so a manually triggered run cannot bypass an explicit disable.
func (s *Scheduler) RunNow(ctx context.Context) (*report.Run, error) {
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if !state.Enabled {
		return nil, errors.New(errors.ErrCodeInternal,
			"scheduler is disabled, enable it before triggering a run")
	}

	run := s.tick(ctx)

	state.LastRunAt = run.FinishedAt
	if err := s.store.Save(state); err != nil {
		return run, err
	}
	return run, nil
}

// Run is the daemon loop. It wakes periodically, reloads the persisted state
// so enable/disable/interval changes from other processes take effect, and
// fires a tick whenever one is due. It returns when the context is canceled;
// an in-flight tick always completes first.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setDaemonRunning(true)
	defer s.setDaemonRunning(false)

	slog.Info("scheduler daemon started", "wakeInterval", s.wakeInterval.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler daemon stopping")
			return ctx.Err()
		case <-timer.C:
		}

		// Cancellation takes effect only here, between ticks. The tick body
		// runs on a detached context so a shutdown request never interrupts
		// an in-flight platform create or delete mid-operation.
		if err := s.maybeTick(context.WithoutCancel(ctx)); err != nil {
			slog.Error("scheduler tick failed", "error", err)
		}

		timer.Reset(s.wakeInterval)
	}
}

func (s *Scheduler) maybeTick(ctx context.Context) error {
	state, err := s.store.Load()
	if err != nil {
		return err
	}
	if !state.Due(s.now()) {
		return nil
	}

	run := s.tick(ctx)

	state.LastRunAt = run.FinishedAt
	return s.store.Save(state)
}

// tick snapshots every discovered VM and applies retention per VM. VM
// failures are isolated and collected; the tick itself never fails.
func (s *Scheduler) tick(ctx context.Context) *report.Run {
	started := s.now().UTC()
	run := &report.Run{
		ID:        uuid.NewString(),
		StartedAt: started,
	}

	slog.Info("scheduler tick started", "run", run.ID)

	vms, failures := s.source.ListAllVMs(ctx)
	if len(failures) > 0 {
		run.PlatformErrors = failures
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, vm := range vms {
		vm := vm
		g.Go(func() error {
			result := s.runVM(gctx, vm, run.ID)
			mu.Lock()
			run.VMs = append(run.VMs, result)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // per-VM outcomes are collected, never propagated

	run.FinishedAt = s.now().UTC()

	vmProcessedGauge.Set(float64(len(run.VMs)))
	tickDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	if run.Failed() > 0 || len(run.PlatformErrors) > 0 {
		vmFailureTotal.Add(float64(run.Failed()))
		tickTotal.WithLabelValues("partial").Inc()
	} else {
		tickTotal.WithLabelValues("success").Inc()
	}

	slog.Info("scheduler tick finished",
		"run", run.ID,
		"vms", len(run.VMs),
		"succeeded", run.Succeeded(),
		"failed", run.Failed(),
		"duration", run.FinishedAt.Sub(run.StartedAt).String())

	return run
}

func (s *Scheduler) runVM(ctx context.Context, vm platform.VM, runID string) report.VMRun {
	result := report.VMRun{VM: vm}

	adapter, ok := s.source.Adapter(vm.Platform)
	if !ok {
		result.Error = "platform adapter no longer available"
		return result
	}

	manager := lifecycle.NewManager(adapter)

	snap, err := manager.CreateManaged(ctx, vm.Name, "", true)
	if err != nil {
		slog.Warn("scheduled snapshot failed",
			"run", runID, "vm", vm.Name, "platform", vm.Platform, "error", err)
		result.Error = err.Error()
		return result
	}
	result.SnapshotName = snap.Name

	_, rep, err := manager.Cleanup(ctx, vm, s.policy, false)
	if err != nil {
		slog.Warn("scheduled retention failed",
			"run", runID, "vm", vm.Name, "platform", vm.Platform, "error", err)
		result.Error = "retention failed: " + err.Error()
		return result
	}
	result.Retention = rep

	return result
}

func (s *Scheduler) isDaemonRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.daemonRunning
}

func (s *Scheduler) setDaemonRunning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daemonRunning = v
}
