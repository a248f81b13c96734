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

// Package serializer renders command results to the output formats the CLI
// supports:
//   - JSON: machine-readable structured data with indentation
//   - YAML: human-readable structured data
//   - Table: flattened key/value tabular output for terminals
//
// Usage:
//
//	writer := serializer.NewWriter(serializer.FormatTable, os.Stdout)
//	if err := writer.Serialize(result); err != nil {
//		log.Fatal(err)
//	}
package serializer
