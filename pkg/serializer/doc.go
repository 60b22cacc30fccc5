// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

// Package serializer reads and writes structured data for the exporter's
// CLI and HTTP surfaces.
//
// Output formats:
//   - JSON: indented, machine-readable
//   - YAML: human-readable, also used for config files
//   - Table: aligned columns; values implementing Tabular choose their own
//     columns, anything else is flattened into FIELD/VALUE rows
//
// Writing:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, summaries); err != nil {
//		return err
//	}
//
// Reading a config file (local path, "-" or http(s) URL):
//
//	cfg, err := serializer.FromFile[server.FileConfig](ctx, path)
//
// For HTTP responses:
//
//	serializer.RespondJSON(w, http.StatusOK, data)
package serializer
