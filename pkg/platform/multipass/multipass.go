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

package multipass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/provenance"
	"github.com/minbackup/minbackup/pkg/version"
)

const tool = "multipass"

// Adapter drives the Canonical Multipass CLI. Multipass cannot snapshot a
// running instance and separates deletion from storage reclaim, so the
// adapter declares RequiresStoppedVM and TwoStepDelete.
type Adapter struct {
	runner runner
	now    func() time.Time
}

// runner abstracts command execution for tests.
type runner interface {
	Run(ctx context.Context, args ...string) (string, error)
	Available() error
}

// NewAdapter creates a Multipass adapter with the given per-command timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	return &Adapter{
		runner: platform.NewRunner(tool, timeout),
		now:    time.Now,
	}
}

// Type implements platform.Adapter.
func (a *Adapter) Type() platform.Type {
	return platform.TypeMultipass
}

// Capabilities implements platform.Adapter.
func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{
		RequiresStoppedVM: true,
		TwoStepDelete:     true,
		ReportsSize:       true,
	}
}

// minSnapshotVersion is the first multipass release with snapshot support.
var minSnapshotVersion = version.MustParse("1.13")

// Probe implements platform.Adapter. Snapshots only exist from multipass 1.13
// on, so an older installation is reported unavailable rather than failing
// later with an unrecognized subcommand.
func (a *Adapter) Probe(ctx context.Context) error {
	if err := a.runner.Available(); err != nil {
		return err
	}
	out, err := a.runner.Run(ctx, "version")
	if err != nil {
		return err
	}

	v, ok := parseVersionOutput(out)
	if !ok {
		slog.Debug("could not parse multipass version output", "output", out)
		return nil
	}
	if !v.AtLeast(minSnapshotVersion) {
		return errors.NewWithContext(errors.ErrCodePlatformUnavailable,
			"multipass version too old for snapshot support",
			map[string]any{"version": v.String(), "required": minSnapshotVersion.String()})
	}
	return nil
}

// parseVersionOutput extracts the client version from `multipass version`,
// whose first line looks like "multipass   1.13.1".
func parseVersionOutput(out string) (version.Version, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return version.Version{}, false
	}
	v, err := version.Parse(fields[1])
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// ListVMs implements platform.Adapter via `multipass list --format json`.
func (a *Adapter) ListVMs(ctx context.Context) ([]platform.VM, error) {
	out, err := a.runner.Run(ctx, "list", "--format", "json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		List []struct {
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"list"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, errors.Wrap(errors.ErrCodePlatformError, "failed to parse multipass list output", err)
	}

	vms := make([]platform.VM, 0, len(payload.List))
	for _, item := range payload.List {
		vms = append(vms, platform.VM{
			Name:     item.Name,
			Platform: platform.TypeMultipass,
			State:    parseState(item.State),
		})
	}

	slog.Debug("listed multipass instances", "count", len(vms))
	return vms, nil
}

// ListSnapshots implements platform.Adapter via
// `multipass info <vm> --snapshots --format json`. Multipass does not report
// snapshot creation times in its list output, so timestamps are derived from
// the managed naming convention where the name conforms, else set to the
// query time and flagged estimated.
func (a *Adapter) ListSnapshots(ctx context.Context, vmName string) ([]platform.Snapshot, error) {
	if _, err := a.findVM(ctx, vmName); err != nil {
		return nil, err
	}

	out, err := a.runner.Run(ctx, "info", vmName, "--snapshots", "--format", "json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Info map[string]struct {
			Snapshots map[string]struct {
				Comment string `json:"comment"`
				Parent  string `json:"parent"`
			} `json:"snapshots"`
		} `json:"info"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, errors.Wrap(errors.ErrCodePlatformError, "failed to parse multipass snapshot output", err)
	}

	queryTime := a.now().UTC()
	snaps := make([]platform.Snapshot, 0)
	for _, info := range payload.Info {
		for name := range info.Snapshots {
			snap := platform.Snapshot{
				VMName:   vmName,
				Platform: platform.TypeMultipass,
				Name:     name,
			}
			if ts, ok := provenance.ParseNameTime(name); ok {
				snap.CreatedAt = ts
			} else {
				snap.CreatedAt = queryTime
				snap.CreatedAtEstimated = true
			}
			snaps = append(snaps, snap)
		}
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].Name < snaps[j].Name
	})

	return snaps, nil
}

// CreateSnapshot implements platform.Adapter. Multipass requires a stopped
// instance: a running VM is stopped, snapshotted, and restarted. If the
// snapshot step fails the prior running state is restored before returning.
func (a *Adapter) CreateSnapshot(ctx context.Context, vmName, snapshotName string) (*platform.Snapshot, error) {
	vm, err := a.findVM(ctx, vmName)
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

	wasRunning := vm.State == platform.StateRunning
	if wasRunning {
		if _, err := a.runner.Run(ctx, "stop", vmName); err != nil {
			return nil, errors.Wrap(errors.ErrCodePlatformError, "failed to stop instance before snapshot", err)
		}
	}

	_, snapErr := a.runner.Run(ctx, "snapshot", vmName, "--name", snapshotName)

	if wasRunning {
		if _, startErr := a.runner.Run(ctx, "start", vmName); startErr != nil {
			if snapErr == nil {
				return nil, errors.Wrap(errors.ErrCodePlatformError,
					"snapshot created but instance failed to restart", startErr)
			}
			// Both steps failed: the VM is left stopped, and the caller
			// needs to see that alongside the snapshot failure.
			return nil, errors.WrapWithContext(errors.ErrCodePlatformError,
				"snapshot failed and instance could not be restarted", snapErr,
				map[string]any{"vm": vmName, "restartError": startErr.Error()})
		}
	}
	if snapErr != nil {
		return nil, snapErr
	}

	created := a.now().UTC()
	slog.Info("created multipass snapshot", "vm", vmName, "snapshot", snapshotName)
	return &platform.Snapshot{
		VMName:    vmName,
		Platform:  platform.TypeMultipass,
		Name:      snapshotName,
		CreatedAt: created,
	}, nil
}

// DeleteSnapshot implements platform.Adapter. Multipass marks snapshots
// deleted and reclaims storage only on purge: purge=false runs
// `multipass delete vm.snapshot`, purge=true adds --purge so both steps
// form one logical operation.
func (a *Adapter) DeleteSnapshot(ctx context.Context, vmName, snapshotName string, purge bool) error {
	if err := a.snapshotExists(ctx, vmName, snapshotName); err != nil {
		return err
	}

	ref := fmt.Sprintf("%s.%s", vmName, snapshotName)
	args := []string{"delete", ref}
	if purge {
		args = []string{"delete", "--purge", ref}
	}
	if _, err := a.runner.Run(ctx, args...); err != nil {
		return err
	}

	slog.Info("deleted multipass snapshot", "vm", vmName, "snapshot", snapshotName, "purged", purge)
	return nil
}

// EstimateSize implements platform.Adapter. The estimate is the instance's
// used disk space divided evenly across its snapshots plus the live disk,
// an explicitly approximate share never treated as authoritative.
func (a *Adapter) EstimateSize(ctx context.Context, vmName string) (int64, error) {
	if _, err := a.findVM(ctx, vmName); err != nil {
		return 0, err
	}

	out, err := a.runner.Run(ctx, "info", vmName, "--format", "json")
	if err != nil {
		return 0, err
	}

	var payload struct {
		Info map[string]struct {
			Disks map[string]struct {
				Used string `json:"used"`
			} `json:"disks"`
			Snapshots map[string]any `json:"snapshots"`
		} `json:"info"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return 0, errors.Wrap(errors.ErrCodePlatformError, "failed to parse multipass info output", err)
	}

	info, ok := payload.Info[vmName]
	if !ok {
		return 0, nil
	}

	var used int64
	for _, disk := range info.Disks {
		var n int64
		if _, err := fmt.Sscanf(disk.Used, "%d", &n); err == nil {
			used += n
		}
	}

	shares := int64(len(info.Snapshots)) + 1
	return used / shares, nil
}

func (a *Adapter) findVM(ctx context.Context, vmName string) (*platform.VM, error) {
	vms, err := a.ListVMs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vms {
		if vms[i].Name == vmName {
			return &vms[i], nil
		}
	}
	return nil, errors.NewWithContext(errors.ErrCodeVMNotFound,
		"instance not found", map[string]any{"vm": vmName, "platform": tool})
}

func (a *Adapter) snapshotExists(ctx context.Context, vmName, snapshotName string) error {
	snaps, err := a.ListSnapshots(ctx, vmName)
	if err != nil {
		return err
	}
	for _, s := range snaps {
		if s.Name == snapshotName {
			return nil
		}
	}
	return errors.NewWithContext(errors.ErrCodeSnapshotNotFound,
		"snapshot not found", map[string]any{"vm": vmName, "snapshot": snapshotName})
}

// parseState maps multipass state strings to the uniform model. Suspended
// instances count as stopped for snapshot purposes.
func parseState(state string) platform.State {
	switch state {
	case "Running", "Starting", "Restarting":
		return platform.StateRunning
	case "Stopped", "Suspended", "Suspending":
		return platform.StateStopped
	default:
		return platform.StateUnknown
	}
}
