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

// Package metrics derives the exporter's snapshot metrics from a
// kopia.Inventory and writes them in the Prometheus text exposition format.
//
// Catalog fixes the set, order, names and help texts of the metrics. Each
// Descriptor computes a Series from the inventory; metrics that are not
// AlwaysPresent are omitted entirely when they have no samples, for example
// the age of a source whose latest end time could not be parsed.
//
// Values are exact integers (see Value) so that size differences of
// arbitrarily large snapshots never overflow. Ages are rounded to whole
// seconds and may be negative when a snapshot ends in the future.
//
// Output is deterministic: sources are ordered by key, retention reasons
// and invalid source values by string, and invalid user names precede
// invalid hosts.
package metrics
