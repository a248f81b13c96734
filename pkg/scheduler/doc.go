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

// Package scheduler implements recurring automatic snapshots: an enable/
// disable state machine persisted to a small state file, a daemon loop that
// fires a tick whenever the configured interval has elapsed, and the tick
// itself, which snapshots every discovered VM and applies retention per VM.
//
// Cancellation is cooperative at tick boundaries: a shutdown or disable never
// interrupts an in-flight tick, it only prevents the next one. Within a tick
// each VM is isolated, so one failing VM cannot block snapshots of the rest.
package scheduler
