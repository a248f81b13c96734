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

package provenance

import (
	"strings"

	"github.com/minbackup/minbackup/pkg/platform"
)

// Provenance classifies a snapshot's origin.
type Provenance string

const (
	// Automatic marks snapshots created by the scheduler.
	Automatic Provenance = "Automatic"
	// ToolManaged marks snapshots created manually through the tool.
	ToolManaged Provenance = "ToolManaged"
	// External marks snapshots created outside the tool. Retention never
	// touches them.
	External Provenance = "External"
)

// Name prefixes recognized by the classifier. The platforms store no custom
// metadata, so the name prefix is the only provenance signal available.
const (
	prefixAutomatic = "auto"
	prefixTool      = "minbackup"
	prefixBackup    = "backup"
)

// Classify maps a snapshot name to its provenance. The match is a
// case-sensitive prefix match on the full name. Any name not matching a
// recognized prefix is conservatively treated as External so retention never
// deletes anything it cannot positively attribute to the tool or scheduler.
func Classify(name string) Provenance {
	switch {
	case strings.HasPrefix(name, prefixAutomatic):
		return Automatic
	case strings.HasPrefix(name, prefixTool):
		return ToolManaged
	case strings.HasPrefix(name, prefixBackup):
		return ToolManaged
	default:
		return External
	}
}

// IsManaged reports whether the named snapshot is Automatic or ToolManaged.
func IsManaged(name string) bool {
	return Classify(name) != External
}

// FilterManaged returns only the Automatic and ToolManaged snapshots,
// preserving the original order.
func FilterManaged(snapshots []platform.Snapshot) []platform.Snapshot {
	managed := make([]platform.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if IsManaged(s.Name) {
			managed = append(managed, s)
		}
	}
	return managed
}
