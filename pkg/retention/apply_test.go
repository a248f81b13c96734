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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
)

type fakeDeleter struct {
	deleted []string
	failOn  map[string]error
}

func (f *fakeDeleter) DeleteSnapshot(_ context.Context, _ string, snapshotName string, _ bool) error {
	if err, ok := f.failOn[snapshotName]; ok {
		return err
	}
	f.deleted = append(f.deleted, snapshotName)
	return nil
}

func testPlan(t *testing.T, keep int) *Plan {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	snaps := []platform.Snapshot{
		snap("auto-20250101-000000", base),
		snap("auto-20250101-010000", base.Add(time.Hour)),
		snap("auto-20250101-020000", base.Add(2*time.Hour)),
		snap("auto-20250101-030000", base.Add(3*time.Hour)),
	}
	plan, err := Compute(testVM, snaps, Policy{KeepCount: keep})
	require.NoError(t, err)
	return plan
}

func TestApplyDeletesPlanEntries(t *testing.T) {
	plan := testPlan(t, 1)
	deleter := &fakeDeleter{}

	rep := Apply(context.Background(), plan, deleter, false)

	assert.Equal(t, 3, rep.Deleted())
	assert.Zero(t, rep.Failed())
	assert.ElementsMatch(t, names(plan.Delete), deleter.deleted)
}

func TestApplyDryRunHasNoSideEffects(t *testing.T) {
	plan := testPlan(t, 1)
	deleter := &fakeDeleter{}

	rep := Apply(context.Background(), plan, deleter, true)

	// Identical delete set, zero adapter calls.
	assert.Empty(t, deleter.deleted)
	require.Len(t, rep.Items, len(plan.Delete))
	for i, item := range rep.Items {
		assert.True(t, item.DryRun)
		assert.False(t, item.Deleted)
		assert.Empty(t, item.Error)
		assert.Equal(t, plan.Delete[i].Name, item.Snapshot.Name)
	}
}

func TestApplyContinuesPastFailures(t *testing.T) {
	plan := testPlan(t, 1)
	deleter := &fakeDeleter{
		failOn: map[string]error{
			"auto-20250101-010000": errors.New(errors.ErrCodeSnapshotNotFound, "deleted out-of-band"),
		},
	}

	rep := Apply(context.Background(), plan, deleter, false)

	// The failure is reported per item and the remaining deletions still ran.
	assert.Equal(t, 2, rep.Deleted())
	assert.Equal(t, 1, rep.Failed())
	assert.Len(t, rep.Items, 3)

	for _, item := range rep.Items {
		if item.Snapshot.Name == "auto-20250101-010000" {
			assert.False(t, item.Deleted)
			assert.Contains(t, item.Error, "SNAPSHOT_NOT_FOUND")
		} else {
			assert.True(t, item.Deleted)
		}
	}
}

func TestApplyEmptyPlan(t *testing.T) {
	plan := testPlan(t, 7)
	require.Empty(t, plan.Delete)

	rep := Apply(context.Background(), plan, &fakeDeleter{}, false)
	assert.Empty(t, rep.Items)
	assert.Zero(t, rep.Deleted())
}
