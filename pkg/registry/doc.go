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

// Package registry discovers the platform adapters available on the host and
// presents an aggregated view over them: listing every VM across platforms and
// resolving a VM name, with or without a platform hint, to the single adapter
// that owns it. Platforms whose native tool fails the probe are excluded from
// the registry with the probe error retained for reporting, so one missing
// hypervisor never blocks operations on the others.
package registry
