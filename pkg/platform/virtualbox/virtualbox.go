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

package virtualbox

import (
	"context"
	stderrors "errors"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/provenance"
)

const tool = "vboxmanage"

// vmLine matches `"VM Name" {uuid}` entries from `vboxmanage list vms`.
var vmLine = regexp.MustCompile(`^"([^"]+)"\s+\{([^}]+)\}$`)

// Adapter drives the VirtualBox VBoxManage CLI. VirtualBox snapshots live
// VMs and deletes reclaim storage immediately, so neither RequiresStoppedVM
// nor TwoStepDelete is set; snapshot sizes are estimated from attached disk
// usage.
type Adapter struct {
	runner runner
	now    func() time.Time
}

type runner interface {
	Run(ctx context.Context, args ...string) (string, error)
	Available() error
}

// NewAdapter creates a VirtualBox adapter with the given per-command timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	return &Adapter{
		runner: platform.NewRunner(tool, timeout),
		now:    time.Now,
	}
}

// Type implements platform.Adapter.
func (a *Adapter) Type() platform.Type {
	return platform.TypeVirtualBox
}

// Capabilities implements platform.Adapter.
func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{
		ReportsSize: true,
	}
}

// Probe implements platform.Adapter.
func (a *Adapter) Probe(ctx context.Context) error {
	if err := a.runner.Available(); err != nil {
		return err
	}
	_, err := a.runner.Run(ctx, "--version")
	return err
}

// ListVMs implements platform.Adapter via `vboxmanage list vms` plus a
// per-VM state query. The result is all-or-nothing: a state query failing
// for any VM fails the whole list.
func (a *Adapter) ListVMs(ctx context.Context) ([]platform.VM, error) {
	out, err := a.runner.Run(ctx, "list", "vms")
	if err != nil {
		return nil, err
	}

	vms := make([]platform.VM, 0)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		match := vmLine.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		name := match[1]

		state, err := a.vmState(ctx, name)
		if err != nil {
			return nil, err
		}
		vms = append(vms, platform.VM{
			Name:     name,
			Platform: platform.TypeVirtualBox,
			State:    state,
		})
	}

	slog.Debug("listed virtualbox VMs", "count", len(vms))
	return vms, nil
}

// ListSnapshots implements platform.Adapter via
// `vboxmanage snapshot <vm> list --machinereadable`. VirtualBox reports
// snapshot timestamps; entries without one fall back to the managed naming
// convention or the query time, flagged estimated.
func (a *Adapter) ListSnapshots(ctx context.Context, vmName string) ([]platform.Snapshot, error) {
	if err := a.vmExists(ctx, vmName); err != nil {
		return nil, err
	}

	out, err := a.runner.Run(ctx, "snapshot", vmName, "list", "--machinereadable")
	if err != nil {
		// A VM with no snapshots is a nonzero exit, not an error condition.
		if noSnapshots(err) {
			return []platform.Snapshot{}, nil
		}
		return nil, err
	}

	queryTime := a.now().UTC()
	snaps := make([]platform.Snapshot, 0)
	var current *platform.Snapshot

	flush := func() {
		if current == nil {
			return
		}
		if current.CreatedAt.IsZero() {
			if ts, ok := provenance.ParseNameTime(current.Name); ok {
				current.CreatedAt = ts
			} else {
				current.CreatedAt = queryTime
				current.CreatedAtEstimated = true
			}
		}
		snaps = append(snaps, *current)
		current = nil
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)

		switch {
		case strings.HasPrefix(key, "SnapshotName"):
			flush()
			current = &platform.Snapshot{
				VMName:   vmName,
				Platform: platform.TypeVirtualBox,
				Name:     value,
			}
		case strings.HasPrefix(key, "SnapshotTimeStamp") && current != nil:
			if ts, ok := parseTimestamp(value); ok {
				current.CreatedAt = ts
			}
		}
	}
	flush()

	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].Name < snaps[j].Name
	})

	return snaps, nil
}

// CreateSnapshot implements platform.Adapter via `vboxmanage snapshot take`.
// VirtualBox snapshots running VMs live; no state juggling is needed.
func (a *Adapter) CreateSnapshot(ctx context.Context, vmName, snapshotName string) (*platform.Snapshot, error) {
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

	if _, err := a.runner.Run(ctx, "snapshot", vmName, "take", snapshotName); err != nil {
		return nil, err
	}

	slog.Info("created virtualbox snapshot", "vm", vmName, "snapshot", snapshotName)
	return &platform.Snapshot{
		VMName:    vmName,
		Platform:  platform.TypeVirtualBox,
		Name:      snapshotName,
		CreatedAt: a.now().UTC(),
	}, nil
}

// DeleteSnapshot implements platform.Adapter. VirtualBox has no separate
// purge step; deletion reclaims storage immediately regardless of purge.
func (a *Adapter) DeleteSnapshot(ctx context.Context, vmName, snapshotName string, _ bool) error {
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

	if _, err := a.runner.Run(ctx, "snapshot", vmName, "delete", snapshotName); err != nil {
		return err
	}

	slog.Info("deleted virtualbox snapshot", "vm", vmName, "snapshot", snapshotName)
	return nil
}

// EstimateSize implements platform.Adapter. The estimate is the on-disk
// size of the VM's attached disk images divided evenly across its snapshots
// plus the live disk, an explicitly approximate share never treated as
// authoritative.
func (a *Adapter) EstimateSize(ctx context.Context, vmName string) (int64, error) {
	if err := a.vmExists(ctx, vmName); err != nil {
		return 0, err
	}

	out, err := a.runner.Run(ctx, "showvminfo", vmName, "--machinereadable")
	if err != nil {
		return 0, err
	}

	var used int64
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || !strings.Contains(key, "ImageUUID") {
			continue
		}
		size, err := a.mediumSizeOnDisk(ctx, strings.Trim(value, `"`))
		if err != nil {
			continue
		}
		used += size
	}

	snaps, err := a.ListSnapshots(ctx, vmName)
	if err != nil {
		return 0, err
	}

	shares := int64(len(snaps)) + 1
	return used / shares, nil
}

// mediumSizeOnDisk reads the `Size on disk: N MBytes` line from
// `vboxmanage showmediuminfo disk <uuid>`.
func (a *Adapter) mediumSizeOnDisk(ctx context.Context, uuid string) (int64, error) {
	out, err := a.runner.Run(ctx, "showmediuminfo", "disk", uuid)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(out, "\n") {
		value, ok := strings.CutPrefix(strings.TrimSpace(line), "Size on disk:")
		if !ok {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodePlatformError,
				"failed to parse medium size output", err)
		}
		return n * 1024 * 1024, nil
	}
	return 0, nil
}

func (a *Adapter) vmExists(ctx context.Context, vmName string) error {
	out, err := a.runner.Run(ctx, "list", "vms")
	if err != nil {
		return err
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		match := vmLine.FindStringSubmatch(strings.TrimSpace(line))
		if match != nil && match[1] == vmName {
			return nil
		}
	}
	return errors.NewWithContext(errors.ErrCodeVMNotFound,
		"VM not found", map[string]any{"vm": vmName, "platform": tool})
}

func (a *Adapter) vmState(ctx context.Context, vmName string) (platform.State, error) {
	out, err := a.runner.Run(ctx, "showvminfo", vmName, "--machinereadable")
	if err != nil {
		return platform.StateUnknown, err
	}
	for _, line := range strings.Split(out, "\n") {
		value, ok := strings.CutPrefix(strings.TrimSpace(line), "VMState=")
		if !ok {
			continue
		}
		switch strings.Trim(value, `"`) {
		case "running", "starting", "restoring":
			return platform.StateRunning, nil
		case "poweroff", "saved", "paused", "aborted":
			return platform.StateStopped, nil
		default:
			return platform.StateUnknown, nil
		}
	}
	return platform.StateUnknown, nil
}

// noSnapshots detects the nonzero exit VBoxManage produces when a VM simply
// has no snapshots yet.
func noSnapshots(err error) bool {
	var se *errors.StructuredError
	if !stderrors.As(err, &se) || se.Code != errors.ErrCodePlatformError {
		return false
	}
	stderr, _ := se.Context["stderr"].(string)
	return strings.Contains(stderr, "does not have any snapshots")
}

// parseTimestamp handles the timestamp formats VBoxManage emits across
// versions.
func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.000000000",
	} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
