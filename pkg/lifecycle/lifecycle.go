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

package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/provenance"
	"github.com/minbackup/minbackup/pkg/report"
	"github.com/minbackup/minbackup/pkg/retention"
)

// Manager drives the snapshot lifecycle on one platform adapter.
type Manager struct {
	adapter platform.Adapter

	// now is injectable for deterministic default names in tests.
	now func() time.Time
}

// NewManager creates a lifecycle manager bound to the given adapter.
func NewManager(adapter platform.Adapter) *Manager {
	return &Manager{
		adapter: adapter,
		now:     time.Now,
	}
}

// CreateManaged creates a snapshot with the tool's managed naming convention.
// An empty customName yields the default name: minbackup-YYYYMMDD-HHMMSS for
// manual creates, auto-YYYYMMDD-HHMMSS when auto is set. Name collisions are
// surfaced as NAME_COLLISION without retrying; second-granularity default
// names make a same-second repeat a legitimate caller error, not something to
// paper over with a suffix.
func (m *Manager) CreateManaged(ctx context.Context, vmName, customName string, auto bool) (*platform.Snapshot, error) {
	name := customName
	if name == "" {
		if auto {
			name = provenance.AutomaticName(m.now())
		} else {
			name = provenance.ToolName(m.now())
		}
	}

	snap, err := m.adapter.CreateSnapshot(ctx, vmName, name)
	if err != nil {
		return nil, err
	}

	slog.Info("created snapshot",
		"vm", vmName,
		"platform", m.adapter.Type(),
		"snapshot", snap.Name,
		"provenance", provenance.Classify(snap.Name))

	return snap, nil
}

// DeleteMany removes the named snapshots from a VM. The batch is validated
// upfront: if any name does not exist, nothing is deleted and the error lists
// every unmatched name. Once validation passes, execution is best-effort per
// item and the report enumerates each outcome.
func (m *Manager) DeleteMany(ctx context.Context, vmName string, names []string, purge bool) (*report.DeletionReport, error) {
	snapshots, err := m.adapter.ListSnapshots(ctx, vmName)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]platform.Snapshot, len(snapshots))
	for _, s := range snapshots {
		byName[s.Name] = s
	}

	var missing []string
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewWithContext(errors.ErrCodeSnapshotNotFound,
			"snapshot(s) not found, nothing deleted", map[string]any{
				"vm":       vmName,
				"missing":  missing,
				"platform": string(m.adapter.Type()),
			})
	}

	rep := &report.DeletionReport{
		VMName:   vmName,
		Platform: m.adapter.Type(),
		Items:    make([]report.Deletion, 0, len(names)),
	}

	for _, name := range names {
		item := report.Deletion{Snapshot: byName[name]}
		if err := m.adapter.DeleteSnapshot(ctx, vmName, name, purge); err != nil {
			item.Error = err.Error()
			slog.Warn("snapshot delete failed",
				"vm", vmName, "snapshot", name, "error", err)
		} else {
			item.Deleted = true
			slog.Info("deleted snapshot",
				"vm", vmName, "snapshot", name, "purge", purge)
		}
		rep.Items = append(rep.Items, item)
	}

	return rep, nil
}

// Cleanup lists a VM's snapshots, computes the retention plan under the given
// policy, and applies it. With dryRun set the returned report enumerates the
// would-delete items without side effects.
func (m *Manager) Cleanup(ctx context.Context, vm platform.VM, policy retention.Policy, dryRun bool) (*retention.Plan, *report.DeletionReport, error) {
	snapshots, err := m.adapter.ListSnapshots(ctx, vm.Name)
	if err != nil {
		return nil, nil, err
	}

	plan, err := retention.Compute(vm, snapshots, policy)
	if err != nil {
		return nil, nil, err
	}

	rep := retention.Apply(ctx, plan, m, dryRun)
	return plan, rep, nil
}

// DeleteSnapshot implements retention.Deleter by delegating to the bound
// adapter.
func (m *Manager) DeleteSnapshot(ctx context.Context, vmName, snapshotName string, purge bool) error {
	return m.adapter.DeleteSnapshot(ctx, vmName, snapshotName, purge)
}
