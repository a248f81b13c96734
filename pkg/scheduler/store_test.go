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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
)

func TestFileStoreDefaults(t *testing.T) {
	store := NewFileStore("")
	assert.Equal(t, defaults.StateFileName, store.Path())
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.False(t, state.Enabled)
	assert.Equal(t, defaults.SchedulerInterval, state.Interval())
	assert.True(t, state.LastRunAt.IsZero())
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))

	saved := &State{
		Enabled:         true,
		IntervalSeconds: 14400,
		LastRunAt:       time.Date(2025, 6, 15, 10, 30, 45, 0, time.UTC),
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.Enabled, loaded.Enabled)
	assert.Equal(t, saved.IntervalSeconds, loaded.IntervalSeconds)
	assert.True(t, saved.LastRunAt.Equal(loaded.LastRunAt))
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.yaml")
	store := NewFileStore(path)

	require.NoError(t, store.Save(&State{Enabled: true, IntervalSeconds: 60}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	store := NewFileStore(path)
	_, err := store.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.CodeOf(err))
}
