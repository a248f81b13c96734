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

package platform

import (
	"time"

	"github.com/minbackup/minbackup/pkg/errors"
)

// Type identifies a supported virtualization platform.
type Type string

const (
	// TypeMultipass is the Canonical Multipass platform.
	TypeMultipass Type = "multipass"
	// TypeVirtualBox is the Oracle VirtualBox platform.
	TypeVirtualBox Type = "virtualbox"
	// TypeVMware is the VMware Workstation/Fusion platform.
	TypeVMware Type = "vmware"
)

// KnownTypes returns all platform types this build supports, in stable order.
func KnownTypes() []Type {
	return []Type{TypeMultipass, TypeVirtualBox, TypeVMware}
}

// ParseType converts a platform name to a Type. An unrecognized name fails
// with UNKNOWN_PLATFORM.
func ParseType(name string) (Type, error) {
	for _, t := range KnownTypes() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", errors.NewWithContext(errors.ErrCodeUnknownPlatform,
		"unknown platform", map[string]any{"platform": name})
}

// State represents the reported run state of a VM.
type State string

const (
	// StateRunning indicates the VM is running.
	StateRunning State = "Running"
	// StateStopped indicates the VM is stopped or suspended.
	StateStopped State = "Stopped"
	// StateUnknown indicates the platform did not report a usable state.
	StateUnknown State = "Unknown"
)

// VM describes a virtual machine discovered on a platform. VMs are never
// persisted; the platforms are the source of truth and the set is rediscovered
// on every query. A VM name is unique per platform but may repeat across
// platforms, so the identity is the (Platform, Name) pair.
type VM struct {
	Name     string `json:"name" yaml:"name"`
	Platform Type   `json:"platform" yaml:"platform"`
	State    State  `json:"state" yaml:"state"`

	// EstimatedSizeBytes is a lazily computed heuristic, nil until requested.
	EstimatedSizeBytes *int64 `json:"estimatedSizeBytes,omitempty" yaml:"estimatedSizeBytes,omitempty"`
}

// Snapshot describes a single point-in-time snapshot of a VM. Identity is the
// (VMName, Platform, Name) triple. Provenance is intentionally not a field:
// it is always derived from Name (see the provenance package) so it cannot
// drift from the source of truth.
type Snapshot struct {
	VMName   string `json:"vmName" yaml:"vmName"`
	Platform Type   `json:"platform" yaml:"platform"`
	Name     string `json:"name" yaml:"name"`

	// CreatedAt is the platform-reported creation time where available,
	// otherwise a best-effort value derived from the snapshot name or the
	// query time. CreatedAtEstimated marks the best-effort cases.
	CreatedAt          time.Time `json:"createdAt" yaml:"createdAt"`
	CreatedAtEstimated bool      `json:"createdAtEstimated,omitempty" yaml:"createdAtEstimated,omitempty"`

	// EstimatedSizeBytes is an approximate heuristic, never authoritative.
	EstimatedSizeBytes *int64 `json:"estimatedSizeBytes,omitempty" yaml:"estimatedSizeBytes,omitempty"`
}

// Capabilities declares platform-specific behaviors the uniform operations
// must account for. Modeling these as flags keeps the lifecycle manager
// platform-agnostic.
type Capabilities struct {
	// RequiresStoppedVM is true when the platform cannot snapshot a running
	// VM. The adapter stops the VM, snapshots, and restores the prior state.
	RequiresStoppedVM bool

	// TwoStepDelete is true when the platform separates "mark deleted" from
	// "reclaim storage". Deletes with purge=false perform only the first step.
	TwoStepDelete bool

	// ReportsSize is true when the adapter can estimate snapshot sizes.
	ReportsSize bool
}
