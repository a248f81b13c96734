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

package serializer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/minbackup/minbackup/pkg/platform"
)

func TestFormatIsUnknown(t *testing.T) {
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
	assert.False(t, FormatTable.IsUnknown())
	assert.True(t, Format("xml").IsUnknown())
	assert.True(t, Format("").IsUnknown())
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "yaml", "table"}, SupportedFormats())
}

func TestUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)

	require.NoError(t, w.Serialize(map[string]string{"key": "value"}))
	assert.JSONEq(t, `{"key":"value"}`, buf.String())
}

func TestSerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)

	vms := []platform.VM{
		{Name: "dev-vm", Platform: platform.TypeMultipass, State: platform.StateRunning},
	}
	require.NoError(t, w.Serialize(vms))

	var decoded []platform.VM
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, vms, decoded)
}

func TestSerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)

	vm := platform.VM{Name: "dev-vm", Platform: platform.TypeVirtualBox, State: platform.StateStopped}
	require.NoError(t, w.Serialize(vm))

	var decoded platform.VM
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, vm, decoded)
}

func TestSerializeTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	vm := platform.VM{Name: "dev-vm", Platform: platform.TypeMultipass, State: platform.StateRunning}
	require.NoError(t, w.Serialize(vm))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "dev-vm")
	assert.Contains(t, out, "multipass")
}

func TestSerializeTableNested(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	data := struct {
		VMName string         `json:"vmName"`
		Items  []string       `json:"items"`
		Labels map[string]int `json:"labels"`
	}{
		VMName: "dev-vm",
		Items:  []string{"a", "b"},
		Labels: map[string]int{"kept": 3},
	}
	require.NoError(t, w.Serialize(data))

	out := buf.String()
	assert.Contains(t, out, "Vm Name")
	assert.Contains(t, out, "Items.[0]")
	assert.Contains(t, out, "Labels.Kept")
}

func TestSerializeTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	require.NoError(t, w.Serialize(struct{}{}))
	assert.Contains(t, buf.String(), "<empty>")
}

func TestHumanizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "name", want: "Name"},
		{in: "vmName", want: "Vm Name"},
		{in: "vms.[0].snapshotName", want: "Vms.[0].Snapshot Name"},
		{in: "intervalSeconds", want: "Interval Seconds"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, humanizeKey(tc.in))
	}
}
