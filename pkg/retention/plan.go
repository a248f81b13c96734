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
	"sort"

	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/provenance"
)

// Plan is the computed partition of a VM's snapshots under a keep-count
// policy. Keep, Delete, and External together contain every input snapshot
// exactly once; External snapshots never appear in Delete.
type Plan struct {
	VMName   string        `json:"vmName" yaml:"vmName"`
	Platform platform.Type `json:"platform" yaml:"platform"`

	Keep     []platform.Snapshot `json:"keep" yaml:"keep"`
	Delete   []platform.Snapshot `json:"delete" yaml:"delete"`
	External []platform.Snapshot `json:"external" yaml:"external"`
}

// Compute builds the retention plan for one VM's snapshot history.
//
// Managed snapshots are ordered newest first, with ties on the creation time
// broken by snapshot name descending so the plan is deterministic and
// reproducible. The first KeepCount entries are kept, the remainder deleted.
// Fewer managed snapshots than KeepCount yields an empty Delete, never an
// error.
func Compute(vm platform.VM, snapshots []platform.Snapshot, policy Policy) (*Plan, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{
		VMName:   vm.Name,
		Platform: vm.Platform,
		Keep:     []platform.Snapshot{},
		Delete:   []platform.Snapshot{},
		External: []platform.Snapshot{},
	}

	managed := provenance.FilterManaged(snapshots)
	for _, s := range snapshots {
		if !provenance.IsManaged(s.Name) {
			plan.External = append(plan.External, s)
		}
	}

	sort.SliceStable(managed, func(i, j int) bool {
		if !managed[i].CreatedAt.Equal(managed[j].CreatedAt) {
			return managed[i].CreatedAt.After(managed[j].CreatedAt)
		}
		return managed[i].Name > managed[j].Name
	})

	if len(managed) <= policy.KeepCount {
		plan.Keep = managed
		return plan, nil
	}

	plan.Keep = managed[:policy.KeepCount]
	plan.Delete = managed[policy.KeepCount:]
	return plan, nil
}
