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

package vmware

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/provenance"
)

const tool = "vmrun"

// Adapter drives the VMware vmrun CLI. vmrun addresses VMs by .vmx path and
// only enumerates powered-on VMs, so discovery is limited to running VMs.
// Snapshots are taken live and deleted in one step.
type Adapter struct {
	runner runner
	now    func() time.Time
}

type runner interface {
	Run(ctx context.Context, args ...string) (string, error)
	Available() error
}

// NewAdapter creates a VMware adapter with the given per-command timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	return &Adapter{
		runner: platform.NewRunner(tool, timeout),
		now:    time.Now,
	}
}

// Type implements platform.Adapter.
func (a *Adapter) Type() platform.Type {
	return platform.TypeVMware
}

// Capabilities implements platform.Adapter.
func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{}
}

// Probe implements platform.Adapter.
func (a *Adapter) Probe(ctx context.Context) error {
	if err := a.runner.Available(); err != nil {
		return err
	}
	_, err := a.runner.Run(ctx, "list")
	return err
}

// ListVMs implements platform.Adapter via `vmrun list`. The VM name is the
// .vmx file base name.
func (a *Adapter) ListVMs(ctx context.Context) ([]platform.VM, error) {
	paths, err := a.vmPaths(ctx)
	if err != nil {
		return nil, err
	}

	vms := make([]platform.VM, 0, len(paths))
	for _, path := range paths {
		vms = append(vms, platform.VM{
			Name:     vmName(path),
			Platform: platform.TypeVMware,
			State:    platform.StateRunning,
		})
	}

	slog.Debug("listed vmware VMs", "count", len(vms))
	return vms, nil
}

// ListSnapshots implements platform.Adapter via `vmrun listSnapshots`.
// vmrun reports no timestamps at all; every snapshot's creation time is
// derived from the managed naming convention where possible, else set to
// the query time and flagged estimated.
func (a *Adapter) ListSnapshots(ctx context.Context, vmName string) ([]platform.Snapshot, error) {
	path, err := a.resolvePath(ctx, vmName)
	if err != nil {
		return nil, err
	}

	out, err := a.runner.Run(ctx, "listSnapshots", path)
	if err != nil {
		return nil, err
	}

	queryTime := a.now().UTC()
	snaps := make([]platform.Snapshot, 0)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Total snapshots:") {
			continue
		}
		snap := platform.Snapshot{
			VMName:   vmName,
			Platform: platform.TypeVMware,
			Name:     line,
		}
		if ts, ok := provenance.ParseNameTime(line); ok {
			snap.CreatedAt = ts
		} else {
			snap.CreatedAt = queryTime
			snap.CreatedAtEstimated = true
		}
		snaps = append(snaps, snap)
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].Name < snaps[j].Name
	})

	return snaps, nil
}

// CreateSnapshot implements platform.Adapter via `vmrun snapshot`.
func (a *Adapter) CreateSnapshot(ctx context.Context, vmName, snapshotName string) (*platform.Snapshot, error) {
	path, err := a.resolvePath(ctx, vmName)
	if err != nil {
		return nil, err
	}

	existing, err := a.ListSnapshots(ctx, vmName)
	if err != nil {
		return nil, err
	}
	for _, s := range existing {
		if s.Name == snapshotName {
			return nil, errors.NewWithContext(errors.ErrCodeNameCollision,
				"snapshot name already exists",
				map[string]any{"vm": vmName, "snapshot": snapshotName})
		}
	}

	if _, err := a.runner.Run(ctx, "snapshot", path, snapshotName); err != nil {
		return nil, err
	}

	slog.Info("created vmware snapshot", "vm", vmName, "snapshot", snapshotName)
	return &platform.Snapshot{
		VMName:    vmName,
		Platform:  platform.TypeVMware,
		Name:      snapshotName,
		CreatedAt: a.now().UTC(),
	}, nil
}

// DeleteSnapshot implements platform.Adapter via `vmrun deleteSnapshot`.
// vmrun has no separate purge step.
func (a *Adapter) DeleteSnapshot(ctx context.Context, vmName, snapshotName string, _ bool) error {
	path, err := a.resolvePath(ctx, vmName)
	if err != nil {
		return err
	}

	snaps, err := a.ListSnapshots(ctx, vmName)
	if err != nil {
		return err
	}
	found := false
	for _, s := range snaps {
		if s.Name == snapshotName {
			found = true
			break
		}
	}
	if !found {
		return errors.NewWithContext(errors.ErrCodeSnapshotNotFound,
			"snapshot not found", map[string]any{"vm": vmName, "snapshot": snapshotName})
	}

	if _, err := a.runner.Run(ctx, "deleteSnapshot", path, snapshotName); err != nil {
		return err
	}

	slog.Info("deleted vmware snapshot", "vm", vmName, "snapshot", snapshotName)
	return nil
}

// EstimateSize implements platform.Adapter. vmrun exposes no size data.
func (a *Adapter) EstimateSize(ctx context.Context, vmName string) (int64, error) {
	return 0, nil
}

// vmPaths returns the .vmx paths from `vmrun list`, skipping the count
// header line.
func (a *Adapter) vmPaths(ctx context.Context) ([]string, error) {
	out, err := a.runner.Run(ctx, "list")
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Total running VMs:") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, nil
}

func (a *Adapter) resolvePath(ctx context.Context, name string) (string, error) {
	paths, err := a.vmPaths(ctx)
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		if vmName(path) == name {
			return path, nil
		}
	}
	return "", errors.NewWithContext(errors.ErrCodeVMNotFound,
		"VM not found", map[string]any{"vm": name, "platform": tool})
}

func vmName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".vmx")
}
