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

package defaults

import "time"

// Platform tool invocation settings.
const (
	// PlatformCommandTimeout is the default timeout for a single native
	// platform tool invocation (multipass, vboxmanage, vmrun).
	PlatformCommandTimeout = 300 * time.Second

	// PlatformCommandRate is the sustained rate of native tool invocations
	// per platform. VirtualBox in particular degrades under rapid-fire
	// vboxmanage calls.
	PlatformCommandRate = 5.0

	// PlatformCommandBurst is the invocation burst allowance per platform.
	PlatformCommandBurst = 10
)

// Retention settings.
const (
	// SnapshotRetention is the default number of managed snapshots kept per VM.
	SnapshotRetention = 7
)

// Scheduler settings.
const (
	// SchedulerInterval is the default interval between scheduler ticks.
	SchedulerInterval = 6 * time.Hour

	// SchedulerWakeInterval bounds how long the daemon sleeps before
	// re-checking whether a tick is due. Keeps shutdown responsive and
	// tolerates wall-clock jumps while the process is asleep.
	SchedulerWakeInterval = 30 * time.Second

	// StateFileName is the default scheduler state file name, resolved
	// relative to the working directory unless configured otherwise.
	StateFileName = "minbackup_scheduler.yaml"
)

// Daemon settings.
const (
	// MetricsAddr is the default listen address for the daemon's Prometheus
	// metrics endpoint.
	MetricsAddr = ":9464"

	// DaemonShutdownTimeout is the maximum duration the daemon waits for an
	// in-flight tick to complete after a shutdown request.
	DaemonShutdownTimeout = 10 * time.Minute
)
