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

// Package platform defines the uniform VM and snapshot data model and the
// Adapter contract implemented once per virtualization platform.
//
// # Uniform model over incompatible platforms
//
// The supported platforms have incompatible native snapshot semantics:
// Multipass requires a stopped instance and separates delete from purge,
// VirtualBox snapshots live VMs and deletes immediately, VMware exposes a
// minimal vmrun surface with no timestamps. The Adapter interface presents
// one model over all of them; platform-specific behaviors are declared as
// Capabilities flags rather than leaking into callers.
//
// # Subpackages
//
// Each adapter lives in its own subpackage:
//
//   - platform/multipass: drives the multipass CLI (JSON output)
//   - platform/virtualbox: drives VBoxManage (machine-readable output)
//   - platform/vmware: drives vmrun (plain text output)
//
// # Command execution
//
// All adapters issue native tool invocations through Runner, which applies
// the configured timeout, rate-limits calls, and maps failures to the
// structured error taxonomy (PLATFORM_UNAVAILABLE, PLATFORM_TIMEOUT,
// PLATFORM_ERROR).
package platform
