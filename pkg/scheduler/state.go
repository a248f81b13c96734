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
	"strconv"
	"strings"
	"time"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
)

// State is the persisted scheduler state. The interval is stored in whole
// seconds so the state file stays readable and editable by hand.
type State struct {
	Enabled         bool      `json:"enabled" yaml:"enabled"`
	IntervalSeconds int64     `json:"intervalSeconds" yaml:"intervalSeconds"`
	LastRunAt       time.Time `json:"lastRunAt,omitempty" yaml:"lastRunAt,omitempty"`
}

// Interval returns the configured tick interval, falling back to the default
// when the persisted value is missing or invalid.
func (s *State) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return defaults.SchedulerInterval
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// Due reports whether a tick is due at the given time. A state that never ran
// is immediately due.
func (s *State) Due(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.LastRunAt.IsZero() {
		return true
	}
	return !now.Before(s.LastRunAt.Add(s.Interval()))
}

// ParseInterval parses a human interval string into a duration. Accepted
// forms: Go durations ("90m", "4h"), a "d" day suffix ("1d", "0.5d"), and a
// bare number of seconds ("3600"). Anything unparseable or non-positive fails
// with INVALID_INTERVAL.
func ParseInterval(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, errors.New(errors.ErrCodeInvalidInterval, "interval must not be empty")
	}

	d, err := parseIntervalValue(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.NewWithContext(errors.ErrCodeInvalidInterval,
			"interval must be positive", map[string]any{"interval": s})
	}
	return d, nil
}

func parseIntervalValue(s string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	if rest, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.ParseFloat(rest, 64)
		if err == nil {
			return time.Duration(days * 24 * float64(time.Hour)), nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.WrapWithContext(errors.ErrCodeInvalidInterval,
			"unparseable interval", err, map[string]any{"interval": s})
	}
	return d, nil
}
