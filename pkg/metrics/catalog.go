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

package metrics

import (
	"slices"
	"time"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
)

// Type is the Prometheus metric type written on the TYPE line.
type Type string

const (
	Gauge   Type = "gauge"
	Counter Type = "counter"
)

// Label names used across the catalog.
const (
	LabelSource          = "source"
	LabelRetentionReason = "retention_reason"
	LabelInvalidUser     = "invalid_user"
	LabelInvalidHost     = "invalid_host"
)

// Label is one name/value pair of a sample.
type Label struct {
	Name  string
	Value string
}

// Sample is one exposition line.
type Sample struct {
	Labels []Label
	Value  Value
}

// Series holds the samples of one metric. An empty Series means the metric
// is absent.
type Series []Sample

// Descriptor defines one metric of the catalog.
type Descriptor struct {
	Name string
	Help string
	Type Type

	// AlwaysPresent metrics keep their HELP and TYPE lines even when
	// Compute yields no samples.
	AlwaysPresent bool

	Compute func(inv *kopia.Inventory, now time.Time) Series
}

// Present reports whether the metric is written for series.
func (d Descriptor) Present(series Series) bool {
	return d.AlwaysPresent || len(series) > 0
}

// Catalog lists every derived metric in output order.
var Catalog = []Descriptor{
	{
		Name:          "kopia_snapshots_by_retention",
		Help:          "Number of snapshots by retention reason",
		Type:          Gauge,
		AlwaysPresent: true,
		Compute:       snapshotsByRetention,
	},
	{
		Name:    "kopia_snapshot_size_bytes_total",
		Help:    "Total size of latest snapshot in bytes",
		Type:    Gauge,
		Compute: latest(func(s kopia.Snapshot) uint64 { return s.Stats.TotalSize }),
	},
	{
		Name:    "kopia_snapshot_age_seconds",
		Help:    "Age of newest snapshot in seconds",
		Type:    Gauge,
		Compute: ageOf(func(h []kopia.Snapshot) kopia.Snapshot { return h[len(h)-1] }),
	},
	{
		Name:    "kopia_snapshot_oldest_age_seconds",
		Help:    "Age of oldest snapshot in seconds",
		Type:    Gauge,
		Compute: ageOf(func(h []kopia.Snapshot) kopia.Snapshot { return h[0] }),
	},
	{
		Name:    "kopia_snapshot_parse_errors_timestamp_total",
		Help:    "Number of snapshots with unparseable timestamps",
		Type:    Gauge,
		Compute: timestampParseErrors,
	},
	{
		Name:    "kopia_snapshot_parse_errors_source",
		Help:    "Number of snapshots with unparseable sources",
		Type:    Gauge,
		Compute: sourceParseErrors,
	},
	{
		Name:    "kopia_snapshot_last_success_timestamp",
		Help:    "Unix timestamp of last successful snapshot",
		Type:    Gauge,
		Compute: lastSuccess,
	},
	{
		Name:    "kopia_snapshot_errors_total",
		Help:    "Total errors in latest snapshot",
		Type:    Gauge,
		Compute: latest(func(s kopia.Snapshot) uint64 { return uint64(s.Stats.ErrorCount) }),
	},
	{
		Name:    "kopia_snapshot_errors_ignored_total",
		Help:    "Ignored errors in latest snapshot",
		Type:    Gauge,
		Compute: latest(func(s kopia.Snapshot) uint64 { return uint64(s.Stats.IgnoredErrorCount) }),
	},
	{
		Name:    "kopia_snapshot_failed_files_total",
		Help:    "Number of failed files in latest snapshot",
		Type:    Gauge,
		Compute: latest(func(s kopia.Snapshot) uint64 { return uint64(s.RootEntry.Summary.NumFailed) }),
	},
	{
		Name:    "kopia_snapshot_size_bytes_change",
		Help:    "Change in size from previous snapshot",
		Type:    Gauge,
		Compute: sizeChange,
	},
	{
		Name:          "kopia_snapshots_total",
		Help:          "Total number of snapshots",
		Type:          Gauge,
		AlwaysPresent: true,
		Compute:       snapshotsTotal,
	},
}

func sourceLabels(key kopia.SourceKey) []Label {
	return []Label{{Name: LabelSource, Value: key.String()}}
}

// perSource emits one sample per source for which fn reports a value.
func perSource(inv *kopia.Inventory, fn func(history []kopia.Snapshot) (Value, bool)) Series {
	var out Series
	for key, history := range inv.Snapshots().All() {
		if v, ok := fn(history); ok {
			out = append(out, Sample{Labels: sourceLabels(key), Value: v})
		}
	}
	return out
}

func latest(field func(kopia.Snapshot) uint64) func(*kopia.Inventory, time.Time) Series {
	return func(inv *kopia.Inventory, _ time.Time) Series {
		return perSource(inv, func(h []kopia.Snapshot) (Value, bool) {
			if len(h) == 0 {
				return Value{}, false
			}
			return Uint(field(h[len(h)-1])), true
		})
	}
}

func ageOf(pick func([]kopia.Snapshot) kopia.Snapshot) func(*kopia.Inventory, time.Time) Series {
	return func(inv *kopia.Inventory, now time.Time) Series {
		return perSource(inv, func(h []kopia.Snapshot) (Value, bool) {
			if len(h) == 0 {
				return Value{}, false
			}
			end := pick(h).EndTime
			if end == nil {
				return Value{}, false
			}
			return Age(now, *end), true
		})
	}
}

func snapshotsByRetention(inv *kopia.Inventory, _ time.Time) Series {
	var out Series
	for key, counts := range inv.RetentionCounts().All() {
		reasons := make([]string, 0, len(counts))
		for reason := range counts {
			reasons = append(reasons, reason)
		}
		slices.Sort(reasons)
		for _, reason := range reasons {
			out = append(out, Sample{
				Labels: []Label{
					{Name: LabelSource, Value: key.String()},
					{Name: LabelRetentionReason, Value: reason},
				},
				Value: Uint(uint64(counts[reason])),
			})
		}
	}
	return out
}

func timestampParseErrors(inv *kopia.Inventory, _ time.Time) Series {
	return perSource(inv, func(h []kopia.Snapshot) (Value, bool) {
		var n uint64
		for _, s := range h {
			if s.EndTime == nil {
				n++
			}
		}
		return Uint(n), n > 0
	})
}

func sourceParseErrors(inv *kopia.Inventory, _ time.Time) Series {
	var out Series
	add := func(label string, counts map[string]uint32) {
		values := make([]string, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		slices.Sort(values)
		for _, v := range values {
			out = append(out, Sample{
				Labels: []Label{{Name: label, Value: v}},
				Value:  Uint(uint64(counts[v])),
			})
		}
	}
	add(LabelInvalidUser, inv.InvalidUserNames())
	add(LabelInvalidHost, inv.InvalidHosts())
	return out
}

func lastSuccess(inv *kopia.Inventory, _ time.Time) Series {
	return perSource(inv, func(h []kopia.Snapshot) (Value, bool) {
		if len(h) == 0 || h[len(h)-1].EndTime == nil {
			return Value{}, false
		}
		return Int(h[len(h)-1].EndTime.Unix()), true
	})
}

func sizeChange(inv *kopia.Inventory, _ time.Time) Series {
	return perSource(inv, func(h []kopia.Snapshot) (Value, bool) {
		if len(h) < 2 {
			return Value{}, false
		}
		return Diff(h[len(h)-1].Stats.TotalSize, h[len(h)-2].Stats.TotalSize), true
	})
}

func snapshotsTotal(inv *kopia.Inventory, _ time.Time) Series {
	return perSource(inv, func(h []kopia.Snapshot) (Value, bool) {
		return Uint(uint64(len(h))), true
	})
}
