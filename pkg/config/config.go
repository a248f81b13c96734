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

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
)

// Environment variable names recognized by Load. Each overrides the
// corresponding file/default value.
const (
	EnvPlatforms       = "MINBACKUP_PLATFORMS"
	EnvRetention       = "MINBACKUP_RETENTION"
	EnvTimeoutSeconds  = "MINBACKUP_TIMEOUT_SECONDS"
	EnvIntervalSeconds = "MINBACKUP_INTERVAL_SECONDS"
	EnvStateFile       = "MINBACKUP_STATE_FILE"
)

// Config is the resolved tool configuration.
type Config struct {
	// Platforms restricts which platforms are probed. Empty means all known
	// platforms.
	Platforms []string `yaml:"platforms,omitempty"`

	// SnapshotRetention is the number of managed snapshots kept per VM.
	SnapshotRetention int `yaml:"snapshotRetention"`

	// TimeoutSeconds bounds each native platform tool invocation.
	TimeoutSeconds int `yaml:"timeoutSeconds"`

	// IntervalSeconds is the default scheduler interval used when enabling
	// without an explicit interval.
	IntervalSeconds int64 `yaml:"intervalSeconds"`

	// StateFile is the scheduler state file location.
	StateFile string `yaml:"stateFile,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SnapshotRetention: defaults.SnapshotRetention,
		TimeoutSeconds:    int(defaults.PlatformCommandTimeout.Seconds()),
		IntervalSeconds:   int64(defaults.SchedulerInterval.Seconds()),
		StateFile:         defaults.StateFileName,
	}
}

// Load resolves the configuration: built-in defaults, then the YAML file at
// path (skipped when path is empty or the file does not exist), then
// MINBACKUP_* environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// optional file
		case err != nil:
			return nil, errors.WrapWithContext(errors.ErrCodeInternal,
				"failed to read config file", err, map[string]any{"path": path})
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.WrapWithContext(errors.ErrCodeInternal,
					"failed to parse config file", err, map[string]any{"path": path})
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPlatforms); v != "" {
		c.Platforms = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Platforms = append(c.Platforms, p)
			}
		}
	}
	if v := os.Getenv(EnvStateFile); v != "" {
		c.StateFile = v
	}

	intEnvs := []struct {
		name string
		set  func(int64)
	}{
		{EnvRetention, func(n int64) { c.SnapshotRetention = int(n) }},
		{EnvTimeoutSeconds, func(n int64) { c.TimeoutSeconds = int(n) }},
		{EnvIntervalSeconds, func(n int64) { c.IntervalSeconds = n }},
	}
	for _, e := range intEnvs {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.WrapWithContext(errors.ErrCodeInternal,
				"invalid numeric environment override", err,
				map[string]any{"var": e.name, "value": v})
		}
		e.set(n)
	}
	return nil
}

// Validate checks the configuration for values no component could accept.
func (c *Config) Validate() error {
	for _, p := range c.Platforms {
		if _, err := platform.ParseType(p); err != nil {
			return err
		}
	}
	if c.SnapshotRetention < 1 {
		return errors.NewWithContext(errors.ErrCodeInvalidRetentionCount,
			"snapshot retention must be at least 1",
			map[string]any{"retention": c.SnapshotRetention})
	}
	if c.TimeoutSeconds < 1 {
		return errors.NewWithContext(errors.ErrCodeInternal,
			"timeout must be at least 1 second",
			map[string]any{"timeoutSeconds": c.TimeoutSeconds})
	}
	if c.IntervalSeconds < 1 {
		return errors.NewWithContext(errors.ErrCodeInvalidInterval,
			"interval must be at least 1 second",
			map[string]any{"intervalSeconds": c.IntervalSeconds})
	}
	return nil
}

// PlatformTypes returns the configured platforms as parsed types. Call after
// Validate; unparseable names yield an error here as well.
func (c *Config) PlatformTypes() ([]platform.Type, error) {
	types := make([]platform.Type, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		t, err := platform.ParseType(p)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// CommandTimeout returns the per-invocation platform tool timeout.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the default scheduler interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
