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

package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "4h", want: 4 * time.Hour},
		{input: "90m", want: 90 * time.Minute},
		{input: "30s", want: 30 * time.Second},
		{input: "1d", want: 24 * time.Hour},
		{input: "0.5d", want: 12 * time.Hour},
		{input: "3600", want: time.Hour},
		{input: " 4h ", want: 4 * time.Hour},
		{input: "0s", wantErr: true},
		{input: "0", wantErr: true},
		{input: "-5m", wantErr: true},
		{input: "-60", wantErr: true},
		{input: "", wantErr: true},
		{input: "soon", wantErr: true},
		{input: "4x", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseInterval(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInterval, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseIntervalSeconds(t *testing.T) {
	// The documented "4h" case persists as 14400 seconds.
	d, err := ParseInterval("4h")
	require.NoError(t, err)
	assert.Equal(t, int64(14400), int64(d.Seconds()))
}

func TestStateInterval(t *testing.T) {
	s := &State{IntervalSeconds: 14400}
	assert.Equal(t, 4*time.Hour, s.Interval())

	s = &State{}
	assert.Equal(t, defaults.SchedulerInterval, s.Interval())

	s = &State{IntervalSeconds: -1}
	assert.Equal(t, defaults.SchedulerInterval, s.Interval())
}

func TestStateDue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{
			name:  "disabled is never due",
			state: State{Enabled: false, LastRunAt: now.Add(-48 * time.Hour)},
			want:  false,
		},
		{
			name:  "enabled but never ran is immediately due",
			state: State{Enabled: true, IntervalSeconds: 21600},
			want:  true,
		},
		{
			name:  "interval not yet elapsed",
			state: State{Enabled: true, IntervalSeconds: 21600, LastRunAt: now.Add(-time.Hour)},
			want:  false,
		},
		{
			name:  "interval exactly elapsed",
			state: State{Enabled: true, IntervalSeconds: 3600, LastRunAt: now.Add(-time.Hour)},
			want:  true,
		},
		{
			name:  "interval long elapsed",
			state: State{Enabled: true, IntervalSeconds: 3600, LastRunAt: now.Add(-72 * time.Hour)},
			want:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.Due(now))
		})
	}
}
