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

package retention

import (
	"context"
	"log/slog"

	"github.com/minbackup/minbackup/pkg/report"
)

// Deleter removes a single snapshot. Satisfied by platform.Adapter and by
// the lifecycle manager.
type Deleter interface {
	DeleteSnapshot(ctx context.Context, vmName, snapshotName string, purge bool) error
}

// Apply executes a plan's Delete list. With dryRun set it performs no side
// effects and returns the would-delete items. Otherwise each entry is
// attempted in turn: one snapshot failing does not abort the remaining
// deletions, and every per-item outcome is enumerated in the report. A
// snapshot removed out-of-band between plan and apply surfaces here as a
// per-item SNAPSHOT_NOT_FOUND failure, not as an abort.
func Apply(ctx context.Context, plan *Plan, deleter Deleter, dryRun bool) *report.DeletionReport {
	rep := &report.DeletionReport{
		VMName:   plan.VMName,
		Platform: plan.Platform,
		Items:    make([]report.Deletion, 0, len(plan.Delete)),
	}

	for _, snap := range plan.Delete {
		if dryRun {
			rep.Items = append(rep.Items, report.Deletion{Snapshot: snap, DryRun: true})
			continue
		}

		item := report.Deletion{Snapshot: snap}
		if err := deleter.DeleteSnapshot(ctx, plan.VMName, snap.Name, true); err != nil {
			item.Error = err.Error()
			slog.Warn("retention delete failed",
				"vm", plan.VMName,
				"platform", plan.Platform,
				"snapshot", snap.Name,
				"error", err)
		} else {
			item.Deleted = true
			slog.Info("retention deleted snapshot",
				"vm", plan.VMName,
				"platform", plan.Platform,
				"snapshot", snap.Name)
		}
		rep.Items = append(rep.Items, item)
	}

	return rep
}
