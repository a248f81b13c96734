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

// Package version parses and compares the loose semantic versions reported by
// platform tools ("1.13.1", "multipass 1.16.0+mac", "7.0.18r162988"). Adapters
// use it to gate features on minimum tool versions.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
)

// Version is a parsed tool version with up to three numeric components.
// Precision records how many components the source string carried, so "1.13"
// compares only major and minor. Trailing build metadata ("+mac", "r162988")
// is preserved in Extras but ignored by comparisons.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch int `json:"patch,omitempty" yaml:"patch,omitempty"`

	// Precision is the number of significant components (1, 2, or 3).
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	// Extras holds trailing metadata after the numeric components.
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// String renders the numeric components up to the version's precision.
func (v Version) String() string {
	switch v.Precision {
	case 1:
		return strconv.Itoa(v.Major)
	case 2:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// Parse parses a version string. A leading "v" is stripped, and anything
// after the numeric components that is not a dot-digit sequence becomes
// Extras: "7.0.18r162988" parses as 7.0.18 with Extras "r162988".
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	main := s
	var extras string
	for i, ch := range s {
		if ch >= '0' && ch <= '9' {
			continue
		}
		if ch == '.' && i > 0 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			continue
		}
		main = s[:i]
		extras = s[i:]
		break
	}
	if main == "" {
		return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, s)
	}

	parts := strings.Split(main, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyComponents
	}

	v := Version{Precision: len(parts), Extras: extras}
	for i, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		switch i {
		case 0:
			v.Major = num
		case 1:
			v.Minor = num
		case 2:
			v.Patch = num
		}
	}
	return v, nil
}

// MustParse parses a version string and panics on failure. For hardcoded
// strings and tests only.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("version.MustParse(%q): %v", s, err))
	}
	return v
}

// AtLeast reports whether v is equal to or newer than min, comparing only as
// many components as min carries: AtLeast(MustParse("1.13")) accepts any
// 1.13.x and above.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if min.Precision == 1 {
		return true
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	if min.Precision == 2 {
		return true
	}
	return v.Patch >= min.Patch
}
