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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/minbackup/minbackup/pkg/platform"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Provenance
	}{
		{"auto-20250101-120000", Automatic},
		{"auto-x", Automatic},
		{"autosave", Automatic}, // prefix match, not delimiter-aware
		{"minbackup-20250101-120000", ToolManaged},
		{"minbackup-x", ToolManaged},
		{"backup-x", ToolManaged},
		{"backup", ToolManaged},
		{"manual-snap", External},
		{"Auto-20250101-120000", External}, // case-sensitive
		{"my-auto-snap", External},         // prefix, not substring
		{"Backup-1", External},
		{"", External},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.name))
		})
	}
}

func TestFilterManagedPreservesOrder(t *testing.T) {
	snaps := []platform.Snapshot{
		{Name: "manual-snap"},
		{Name: "minbackup-20250101-120000"},
		{Name: "golden-image"},
		{Name: "auto-20250102-120000"},
		{Name: "backup-pre-upgrade"},
	}

	managed := FilterManaged(snaps)

	names := make([]string, 0, len(managed))
	for _, s := range managed {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"minbackup-20250101-120000",
		"auto-20250102-120000",
		"backup-pre-upgrade",
	}, names)
}

func TestFilterManagedEmpty(t *testing.T) {
	assert.Empty(t, FilterManaged(nil))
	assert.Empty(t, FilterManaged([]platform.Snapshot{{Name: "external"}}))
}

func TestManagedNames(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	assert.Equal(t, "minbackup-20250314-150926", ToolName(ts))
	assert.Equal(t, "auto-20250314-150926", AutomaticName(ts))

	// Non-UTC inputs are normalized.
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "minbackup-20250314-200926", ToolName(time.Date(2025, 3, 14, 15, 9, 26, 0, est)))
}

func TestGeneratedNamesClassifyAsManaged(t *testing.T) {
	now := time.Now()
	assert.Equal(t, ToolManaged, Classify(ToolName(now)))
	assert.Equal(t, Automatic, Classify(AutomaticName(now)))
}

func TestParseNameTime(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	got, ok := ParseNameTime("minbackup-20250314-150926")
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	got, ok = ParseNameTime("auto-20250314-150926")
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	for _, name := range []string{
		"minbackup-2025-03-14",
		"minbackup-20250314",
		"auto-20251399-999999",
		"backup-20250314-150926", // backup- names carry no timestamp contract
		"manual-20250314-150926",
		"minbackup-20250314-150926-extra",
		"",
	} {
		_, ok := ParseNameTime(name)
		assert.False(t, ok, "name %q should not parse", name)
	}
}

func TestNameRoundTrip(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	got, ok := ParseNameTime(AutomaticName(ts))
	assert.True(t, ok)
	assert.Equal(t, ts, got)
}
