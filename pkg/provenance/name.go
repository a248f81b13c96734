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

package provenance

import (
	"fmt"
	"strings"
	"time"
)

// nameTimeLayout is the timestamp component of managed snapshot names,
// always rendered in UTC. Second granularity means two creates within the
// same second for the same VM legitimately collide; callers surface that as
// a NAME_COLLISION rather than silently suffixing.
const nameTimeLayout = "20060102-150405"

// ToolName returns the default name for a manually created managed snapshot:
// minbackup-YYYYMMDD-HHMMSS.
func ToolName(t time.Time) string {
	return managedName(prefixTool, t)
}

// AutomaticName returns the name for a scheduler-created snapshot:
// auto-YYYYMMDD-HHMMSS.
func AutomaticName(t time.Time) string {
	return managedName(prefixAutomatic, t)
}

func managedName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, t.UTC().Format(nameTimeLayout))
}

// ParseNameTime recovers the creation time from a snapshot name that follows
// the managed naming convention (minbackup-YYYYMMDD-HHMMSS or
// auto-YYYYMMDD-HHMMSS). The second return value is false when the name does
// not conform. Used by adapters whose platform reports no snapshot timestamps.
func ParseNameTime(name string) (time.Time, bool) {
	for _, prefix := range []string{prefixTool, prefixAutomatic} {
		rest, ok := strings.CutPrefix(name, prefix+"-")
		if !ok {
			continue
		}
		t, err := time.Parse(nameTimeLayout, rest)
		if err != nil {
			continue
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}
