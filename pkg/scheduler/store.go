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

	"gopkg.in/yaml.v3"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
)

// Store persists scheduler state between invocations. The CLI and the daemon
// are separate processes sharing only this state, so every state transition
// goes through the store.
type Store interface {
	// Load returns the persisted state. A store with no saved state returns
	// the disabled default, not an error.
	Load() (*State, error)

	// Save persists the state.
	Save(*State) error
}

// FileStore persists scheduler state as a small YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store. An empty path uses the default
// state file name in the working directory.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = defaults.StateFileName
	}
	return &FileStore{path: path}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{IntervalSeconds: int64(defaults.SchedulerInterval.Seconds())}, nil
		}
		return nil, errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to read scheduler state", err, map[string]any{"path": s.path})
	}

	state := &State{}
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to parse scheduler state", err, map[string]any{"path": s.path})
	}
	return state, nil
}

// Save implements Store. The write goes through a temp file and rename so a
// crash mid-write never leaves a truncated state file.
func (s *FileStore) Save(state *State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to serialize scheduler state", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to create state directory", err, map[string]any{"dir": dir})
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create temp state file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, "failed to write scheduler state", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, "failed to close temp state file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to replace scheduler state", err, map[string]any{"path": s.path})
	}
	return nil
}
