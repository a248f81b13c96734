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

// Package report defines the structured result types returned by batch
// operations: per-snapshot deletion outcomes and per-VM scheduler run
// outcomes. Formatting and printing of these results is entirely external;
// the core only guarantees that no failure is silently dropped: every
// failure reaches either one of these reports or an immediate error.
package report

import (
	"time"

	"github.com/minbackup/minbackup/pkg/platform"
)

// Deletion describes the outcome of one snapshot deletion attempt.
type Deletion struct {
	Snapshot platform.Snapshot `json:"snapshot" yaml:"snapshot"`

	// Deleted is true when the snapshot was actually removed. Always false
	// for dry runs.
	Deleted bool `json:"deleted" yaml:"deleted"`

	// DryRun marks a "would delete" entry produced without side effects.
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`

	// Error holds the failure message for this item, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DeletionReport enumerates per-item outcomes of a batch deletion so a
// partial failure is visible, never silently swallowed.
type DeletionReport struct {
	VMName   string        `json:"vmName" yaml:"vmName"`
	Platform platform.Type `json:"platform" yaml:"platform"`
	Items    []Deletion    `json:"items" yaml:"items"`
}

// Deleted returns the number of items actually removed.
func (r *DeletionReport) Deleted() int {
	n := 0
	for _, item := range r.Items {
		if item.Deleted {
			n++
		}
	}
	return n
}

// Failed returns the number of items that failed.
func (r *DeletionReport) Failed() int {
	n := 0
	for _, item := range r.Items {
		if item.Error != "" {
			n++
		}
	}
	return n
}

// VMRun describes the outcome of one VM's snapshot-plus-retention step
// within a scheduler run.
type VMRun struct {
	VM platform.VM `json:"vm" yaml:"vm"`

	// SnapshotName is the created snapshot's name, empty when creation failed.
	SnapshotName string `json:"snapshotName,omitempty" yaml:"snapshotName,omitempty"`

	// Error holds the failure message for this VM, empty on success. A VM
	// failure never aborts the rest of the run.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Retention is the per-VM cleanup outcome, nil when the snapshot step
	// failed (retention only runs after that VM's own creation completed).
	Retention *DeletionReport `json:"retention,omitempty" yaml:"retention,omitempty"`
}

// Run describes one complete scheduler run across all discovered platforms.
type Run struct {
	// ID correlates the log lines and metrics of a single run.
	ID string `json:"id" yaml:"id"`

	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`

	// PlatformErrors lists platforms whose VM enumeration failed entirely,
	// keyed by platform name.
	PlatformErrors map[platform.Type]string `json:"platformErrors,omitempty" yaml:"platformErrors,omitempty"`

	VMs []VMRun `json:"vms" yaml:"vms"`
}

// Succeeded returns the number of VMs whose snapshot step succeeded.
func (r *Run) Succeeded() int {
	n := 0
	for _, vm := range r.VMs {
		if vm.Error == "" {
			n++
		}
	}
	return n
}

// Failed returns the number of VMs whose snapshot step failed.
func (r *Run) Failed() int {
	return len(r.VMs) - r.Succeeded()
}
