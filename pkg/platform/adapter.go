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

import "context"

// Adapter translates the uniform snapshot operations into one platform's
// native tool invocations. Implementations shell out to the platform CLI
// (multipass, vboxmanage, vmrun) and parse its output into the uniform
// data model.
//
// All operations respect context cancellation and the configured per-command
// timeout. Failures carry structured error codes: PLATFORM_UNAVAILABLE when
// the native tool is missing, PLATFORM_TIMEOUT when an invocation exceeds its
// deadline, PLATFORM_ERROR on a nonzero tool exit.
type Adapter interface {
	// Type returns the platform this adapter drives.
	Type() Type

	// Capabilities returns the platform-specific behavior flags.
	Capabilities() Capabilities

	// Probe verifies the native tool is present and responds to a trivial
	// query. Used by the registry during discovery.
	Probe(ctx context.Context) error

	// ListVMs returns every VM known to the platform. The result is
	// all-or-nothing: either the complete list or an error, never a
	// partial population.
	ListVMs(ctx context.Context) ([]VM, error)

	// ListSnapshots returns the VM's snapshots ordered by creation time
	// ascending where the platform reports timestamps. When it does not,
	// the adapter derives a time from the snapshot name if it follows the
	// managed naming convention, else marks the timestamp estimated.
	ListSnapshots(ctx context.Context, vmName string) ([]Snapshot, error)

	// CreateSnapshot creates a named snapshot. If the platform requires a
	// stopped VM and the VM is running, the adapter stops it, snapshots,
	// and restores the prior running state; from the caller's perspective
	// either all of that happens or the operation fails with the VM state
	// unchanged. Fails with VM_NOT_FOUND, NAME_COLLISION, or PLATFORM_ERROR.
	CreateSnapshot(ctx context.Context, vmName, snapshotName string) (*Snapshot, error)

	// DeleteSnapshot removes a named snapshot. On platforms with two-step
	// delete, purge=false performs only the mark step; purge=true performs
	// both as one logical operation. Fails with SNAPSHOT_NOT_FOUND or
	// PLATFORM_ERROR.
	DeleteSnapshot(ctx context.Context, vmName, snapshotName string, purge bool) error

	// EstimateSize returns an approximate per-snapshot size for the VM in
	// bytes. Explicitly a heuristic; adapters without the ReportsSize
	// capability return 0 with no error.
	EstimateSize(ctx context.Context, vmName string) (int64, error)
}
