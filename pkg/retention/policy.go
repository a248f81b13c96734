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
	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
)

// Policy is a keep-last-N retention policy. It applies only to managed
// snapshots (Automatic and ToolManaged provenance); external snapshots are
// excluded from every count and every deletion candidate set, unconditionally.
type Policy struct {
	// KeepCount is the number of newest managed snapshots to keep per VM.
	KeepCount int `json:"keepCount" yaml:"keepCount"`
}

// DefaultPolicy returns the default keep-last-7 policy.
func DefaultPolicy() Policy {
	return Policy{KeepCount: defaults.SnapshotRetention}
}

// Validate fails with INVALID_RETENTION_COUNT unless KeepCount is positive.
func (p Policy) Validate() error {
	if p.KeepCount <= 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidRetentionCount,
			"retention count must be a positive integer",
			map[string]any{"keepCount": p.KeepCount})
	}
	return nil
}
