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

// Package kopia builds a source-partitioned snapshot inventory from the
// output of `kopia snapshot list --json`.
//
// # Overview
//
// Each snapshot record names the source it was taken from as a
// (host, userName, path) triple. The package renders that triple into a
// canonical SourceKey of the form "user@host:path" and groups snapshots by
// key, preserving the order in which kopia emitted them (oldest first).
//
// Sources whose user name contains '@' or whose host contains ':' cannot be
// rendered unambiguously. They are counted in the inventory diagnostics and
// handed to a caller supplied InvalidSourceFunc, which decides whether to
// skip the record or abort ingestion.
//
// # Usage
//
// Running kopia directly:
//
//	inv, err := kopia.Invoke(ctx, "kopia", 15*time.Second, kopia.IgnoreInvalidSource)
//	if err != nil {
//	    return fmt.Errorf("listing snapshots: %w", err)
//	}
//	for key, history := range inv.Snapshots().All() {
//	    slog.Info("source", "key", key, "snapshots", len(history))
//	}
//
// Parsing a saved listing:
//
//	f, _ := os.Open("snapshots.json")
//	defer f.Close()
//	inv, err := kopia.Ingest(f, kopia.RejectInvalidSource)
//
// # Errors
//
// Process level failures are reported as *SpawnError, *ExitError,
// *TimeoutError, *DecodeError or *JSONError. No inventory is returned
// together with an error.
package kopia
