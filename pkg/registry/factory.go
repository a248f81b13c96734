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

package registry

import (
	"time"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/platform/multipass"
	"github.com/minbackup/minbackup/pkg/platform/virtualbox"
	"github.com/minbackup/minbackup/pkg/platform/vmware"
)

// Factory creates platform adapters. Injecting a Factory into Discover keeps
// the registry testable with fake adapters.
type Factory interface {
	// New returns an adapter for the given platform type, or UNKNOWN_PLATFORM
	// when the factory cannot build one.
	New(t platform.Type) (platform.Adapter, error)
}

// DefaultFactory builds the real adapters that shell out to the platform
// native tools.
type DefaultFactory struct {
	// CommandTimeout bounds each native tool invocation. Non-positive values
	// fall back to the default platform command timeout.
	CommandTimeout time.Duration
}

// New implements Factory.
func (f *DefaultFactory) New(t platform.Type) (platform.Adapter, error) {
	switch t {
	case platform.TypeMultipass:
		return multipass.NewAdapter(f.CommandTimeout), nil
	case platform.TypeVirtualBox:
		return virtualbox.NewAdapter(f.CommandTimeout), nil
	case platform.TypeVMware:
		return vmware.NewAdapter(f.CommandTimeout), nil
	default:
		return nil, errors.NewWithContext(errors.ErrCodeUnknownPlatform,
			"no adapter for platform", map[string]any{"platform": string(t)})
	}
}
