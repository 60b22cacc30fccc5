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

package kopia

import (
	"strconv"
	"time"
)

// SourceSummary condenses one source's history for display.
type SourceSummary struct {
	Source          string     `json:"source" yaml:"source"`
	Snapshots       int        `json:"snapshots" yaml:"snapshots"`
	LatestID        string     `json:"latestId" yaml:"latestId"`
	LatestEndTime   *time.Time `json:"latestEndTime,omitempty" yaml:"latestEndTime,omitempty"`
	LatestTotalSize uint64     `json:"latestTotalSize" yaml:"latestTotalSize"`
	LatestErrors    uint32     `json:"latestErrors" yaml:"latestErrors"`
	LatestFailed    uint32     `json:"latestFailedFiles" yaml:"latestFailedFiles"`
}

// InventorySummary is the display form of an Inventory.
type InventorySummary struct {
	Sources          []SourceSummary   `json:"sources" yaml:"sources"`
	InvalidUserNames map[string]uint32 `json:"invalidUserNames,omitempty" yaml:"invalidUserNames,omitempty"`
	InvalidHosts     map[string]uint32 `json:"invalidHosts,omitempty" yaml:"invalidHosts,omitempty"`
}

// Summarize returns one SourceSummary per source in key order.
func (inv *Inventory) Summarize() InventorySummary {
	out := InventorySummary{
		Sources: make([]SourceSummary, 0, inv.Snapshots().Len()),
	}
	if inv.HasInvalidSources() {
		out.InvalidUserNames = inv.InvalidUserNames()
		out.InvalidHosts = inv.InvalidHosts()
	}
	for key, history := range inv.Snapshots().All() {
		s := SourceSummary{Source: key.String(), Snapshots: len(history)}
		if n := len(history); n > 0 {
			latest := history[n-1]
			s.LatestID = latest.ID
			s.LatestEndTime = latest.EndTime
			s.LatestTotalSize = latest.Stats.TotalSize
			s.LatestErrors = latest.Stats.ErrorCount
			s.LatestFailed = latest.RootEntry.Summary.NumFailed
		}
		out.Sources = append(out.Sources, s)
	}
	return out
}

// TableHeader implements serializer.Tabular.
func (s InventorySummary) TableHeader() []string {
	return []string{"SOURCE", "SNAPSHOTS", "LATEST", "END", "SIZE", "ERRORS", "FAILED"}
}

// TableRows implements serializer.Tabular.
func (s InventorySummary) TableRows() [][]string {
	rows := make([][]string, 0, len(s.Sources))
	for _, src := range s.Sources {
		end := "-"
		if src.LatestEndTime != nil {
			end = src.LatestEndTime.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			src.Source,
			strconv.Itoa(src.Snapshots),
			src.LatestID,
			end,
			strconv.FormatUint(src.LatestTotalSize, 10),
			strconv.FormatUint(uint64(src.LatestErrors), 10),
			strconv.FormatUint(uint64(src.LatestFailed), 10),
		})
	}
	return rows
}
