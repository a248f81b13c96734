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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/retention"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu    sync.Mutex
	state State
}

func (m *memStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return &s, nil
}

func (m *memStore) Save(s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *s
	return nil
}

// tickAdapter is a minimal platform.Adapter whose snapshot history grows as
// the scheduler creates snapshots.
type tickAdapter struct {
	mu           sync.Mutex
	platformType platform.Type
	vms          []platform.VM
	snapshots    map[string][]platform.Snapshot
	createFailOn string
}

func newTickAdapter(t platform.Type, vmNames ...string) *tickAdapter {
	a := &tickAdapter{
		platformType: t,
		snapshots:    make(map[string][]platform.Snapshot),
	}
	for _, name := range vmNames {
		a.vms = append(a.vms, platform.VM{
			Name: name, Platform: t, State: platform.StateRunning,
		})
	}
	return a
}

func (a *tickAdapter) Type() platform.Type { return a.platformType }

func (a *tickAdapter) Capabilities() platform.Capabilities { return platform.Capabilities{} }

func (a *tickAdapter) Probe(_ context.Context) error { return nil }

func (a *tickAdapter) ListVMs(_ context.Context) ([]platform.VM, error) { return a.vms, nil }

func (a *tickAdapter) ListSnapshots(_ context.Context, vmName string) ([]platform.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]platform.Snapshot(nil), a.snapshots[vmName]...), nil
}

func (a *tickAdapter) CreateSnapshot(_ context.Context, vmName, snapshotName string) (*platform.Snapshot, error) {
	if vmName == a.createFailOn {
		return nil, errors.New(errors.ErrCodePlatformError, "platform command failed")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := platform.Snapshot{
		VMName:   vmName,
		Platform: a.platformType,
		Name:     snapshotName,
	}
	a.snapshots[vmName] = append(a.snapshots[vmName], snap)
	return &snap, nil
}

func (a *tickAdapter) DeleteSnapshot(_ context.Context, vmName, snapshotName string, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.snapshots[vmName][:0]
	for _, s := range a.snapshots[vmName] {
		if s.Name != snapshotName {
			kept = append(kept, s)
		}
	}
	a.snapshots[vmName] = kept
	return nil
}

func (a *tickAdapter) EstimateSize(_ context.Context, _ string) (int64, error) { return 0, nil }

// fakeSource aggregates tick adapters the way the registry does.
type fakeSource struct {
	adapters map[platform.Type]platform.Adapter
	failures map[platform.Type]string
}

func (f *fakeSource) ListAllVMs(ctx context.Context) ([]platform.VM, map[platform.Type]string) {
	var vms []platform.VM
	for _, a := range f.adapters {
		list, _ := a.ListVMs(ctx)
		vms = append(vms, list...)
	}
	return vms, f.failures
}

func (f *fakeSource) Adapter(t platform.Type) (platform.Adapter, bool) {
	a, ok := f.adapters[t]
	return a, ok
}

func newScheduler(source VMSource, store Store) *Scheduler {
	s := New(source, store, retention.Policy{KeepCount: 3})
	s.wakeInterval = 5 * time.Millisecond
	return s
}

func TestEnableDisable(t *testing.T) {
	store := &memStore{}
	s := newScheduler(&fakeSource{}, store)

	state, err := s.Enable("4h")
	require.NoError(t, err)
	assert.True(t, state.Enabled)
	assert.Equal(t, int64(14400), state.IntervalSeconds)

	// Enabling again without an interval keeps the persisted one.
	state, err = s.Enable("")
	require.NoError(t, err)
	assert.Equal(t, int64(14400), state.IntervalSeconds)

	state, err = s.Disable()
	require.NoError(t, err)
	assert.False(t, state.Enabled)
	assert.Equal(t, int64(14400), state.IntervalSeconds, "disable preserves the interval")
}

func TestEnableInvalidInterval(t *testing.T) {
	store := &memStore{}
	s := newScheduler(&fakeSource{}, store)

	_, err := s.Enable("never")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInterval, errors.CodeOf(err))

	state, err := store.Load()
	require.NoError(t, err)
	assert.False(t, state.Enabled, "failed enable must not persist")
}

func TestRunNowRequiresEnabled(t *testing.T) {
	s := newScheduler(&fakeSource{}, &memStore{})

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRunNowSnapshotsEveryVM(t *testing.T) {
	mp := newTickAdapter(platform.TypeMultipass, "dev-vm", "build-vm")
	vb := newTickAdapter(platform.TypeVirtualBox, "test-vm")
	source := &fakeSource{adapters: map[platform.Type]platform.Adapter{
		platform.TypeMultipass:  mp,
		platform.TypeVirtualBox: vb,
	}}
	store := &memStore{}
	s := newScheduler(source, store)

	_, err := s.Enable("6h")
	require.NoError(t, err)

	run, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	require.Len(t, run.VMs, 3)
	assert.Equal(t, 3, run.Succeeded())
	assert.Equal(t, 0, run.Failed())

	for _, vmRun := range run.VMs {
		assert.True(t, strings.HasPrefix(vmRun.SnapshotName, "auto-"),
			"scheduled snapshots use the auto prefix, got %q", vmRun.SnapshotName)
		require.NotNil(t, vmRun.Retention)
		assert.Equal(t, 0, vmRun.Retention.Deleted())
	}

	state, err := store.Load()
	require.NoError(t, err)
	assert.False(t, state.LastRunAt.IsZero(), "a run must persist LastRunAt")
}

func TestTickIsolatesVMFailures(t *testing.T) {
	mp := newTickAdapter(platform.TypeMultipass, "good-vm", "bad-vm")
	mp.createFailOn = "bad-vm"
	source := &fakeSource{adapters: map[platform.Type]platform.Adapter{
		platform.TypeMultipass: mp,
	}}
	s := newScheduler(source, &memStore{})

	_, err := s.Enable("6h")
	require.NoError(t, err)

	run, err := s.RunNow(context.Background())
	require.NoError(t, err)

	require.Len(t, run.VMs, 2)
	assert.Equal(t, 1, run.Succeeded())
	assert.Equal(t, 1, run.Failed())

	assert.Len(t, mp.snapshots["good-vm"], 1,
		"one VM failing must not block the others")
	assert.Empty(t, mp.snapshots["bad-vm"])
}

func TestTickRecordsPlatformErrors(t *testing.T) {
	source := &fakeSource{
		adapters: map[platform.Type]platform.Adapter{},
		failures: map[platform.Type]string{
			platform.TypeVMware: "platform command timed out",
		},
	}
	s := newScheduler(source, &memStore{})

	_, err := s.Enable("6h")
	require.NoError(t, err)

	run, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Contains(t, run.PlatformErrors, platform.TypeVMware)
	assert.Empty(t, run.VMs)
}

func TestRetentionRunsAfterCreate(t *testing.T) {
	mp := newTickAdapter(platform.TypeMultipass, "dev-vm")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.AddDate(0, 0, i)
		mp.snapshots["dev-vm"] = append(mp.snapshots["dev-vm"], platform.Snapshot{
			VMName:    "dev-vm",
			Platform:  platform.TypeMultipass,
			Name:      "auto-" + ts.Format("20060102-150405"),
			CreatedAt: ts,
		})
	}

	source := &fakeSource{adapters: map[platform.Type]platform.Adapter{
		platform.TypeMultipass: mp,
	}}
	s := newScheduler(source, &memStore{})

	_, err := s.Enable("6h")
	require.NoError(t, err)

	run, err := s.RunNow(context.Background())
	require.NoError(t, err)

	require.Len(t, run.VMs, 1)
	require.NotNil(t, run.VMs[0].Retention)
	// 5 existing + 1 new, keep 3.
	assert.Equal(t, 3, run.VMs[0].Retention.Deleted())
	assert.Len(t, mp.snapshots["dev-vm"], 3)
}

func TestDaemonLoopFiresAndStops(t *testing.T) {
	mp := newTickAdapter(platform.TypeMultipass, "dev-vm")
	source := &fakeSource{adapters: map[platform.Type]platform.Adapter{
		platform.TypeMultipass: mp,
	}}
	store := &memStore{}
	s := newScheduler(source, store)

	_, err := s.Enable("6h")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// The first wake fires the overdue tick.
	require.Eventually(t, func() bool {
		state, _ := store.Load()
		return !state.LastRunAt.IsZero()
	}, 2*time.Second, 5*time.Millisecond)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.DaemonRunning)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon loop did not stop on cancellation")
	}

	st, err = s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.DaemonRunning)
}

// blockingAdapter holds CreateSnapshot open until released, recording
// whether the call's context was canceled in the meantime.
type blockingAdapter struct {
	*tickAdapter
	inFlight chan struct{}
	release  chan struct{}

	once   sync.Once
	mu     sync.Mutex
	ctxErr error
}

func (a *blockingAdapter) CreateSnapshot(ctx context.Context, vmName, snapshotName string) (*platform.Snapshot, error) {
	a.once.Do(func() { close(a.inFlight) })
	<-a.release
	a.mu.Lock()
	a.ctxErr = ctx.Err()
	a.mu.Unlock()
	return a.tickAdapter.CreateSnapshot(ctx, vmName, snapshotName)
}

func TestCancelDuringTickFinishesInFlightOperations(t *testing.T) {
	adapter := &blockingAdapter{
		tickAdapter: newTickAdapter(platform.TypeMultipass, "dev-vm"),
		inFlight:    make(chan struct{}),
		release:     make(chan struct{}),
	}
	source := &fakeSource{adapters: map[platform.Type]platform.Adapter{
		platform.TypeMultipass: adapter,
	}}
	store := &memStore{}
	s := newScheduler(source, store)

	_, err := s.Enable("6h")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Wait until the tick is inside the snapshot call, then request shutdown
	// while it is still blocked there.
	select {
	case <-adapter.inFlight:
	case <-time.After(2 * time.Second):
		t.Fatal("tick never reached the snapshot call")
	}
	cancel()

	time.Sleep(20 * time.Millisecond)
	close(adapter.release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon loop did not stop after the tick completed")
	}

	adapter.mu.Lock()
	ctxErr := adapter.ctxErr
	adapter.mu.Unlock()
	assert.NoError(t, ctxErr, "in-flight snapshot call must not observe the shutdown")

	state, err := store.Load()
	require.NoError(t, err)
	assert.False(t, state.LastRunAt.IsZero(), "the interrupted tick still completes and persists its run")

	snaps, err := adapter.ListSnapshots(context.Background(), "dev-vm")
	require.NoError(t, err)
	assert.Len(t, snaps, 1, "the snapshot taken during shutdown is kept")
}

func TestStatusAggregates(t *testing.T) {
	mp := newTickAdapter(platform.TypeMultipass, "dev-vm", "build-vm")
	mp.snapshots["dev-vm"] = []platform.Snapshot{
		{VMName: "dev-vm", Name: "auto-20250601-120000"},
		{VMName: "dev-vm", Name: "minbackup-20250602-120000"},
		{VMName: "dev-vm", Name: "manual-checkpoint"},
	}
	source := &fakeSource{adapters: map[platform.Type]platform.Adapter{
		platform.TypeMultipass: mp,
	}}
	store := &memStore{}
	s := newScheduler(source, store)

	_, err := s.Enable("4h")
	require.NoError(t, err)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.Equal(t, int64(14400), st.IntervalSeconds)
	assert.Equal(t, 2, st.VMCount)
	assert.Equal(t, 2, st.ManagedSnapshots, "external snapshots are not counted")
	assert.Nil(t, st.LastRunAt)
	assert.Nil(t, st.NextRunAt)

	_, err = s.RunNow(context.Background())
	require.NoError(t, err)

	st, err = s.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.LastRunAt)
	require.NotNil(t, st.NextRunAt)
	assert.Equal(t, st.LastRunAt.Add(4*time.Hour), *st.NextRunAt)
}
