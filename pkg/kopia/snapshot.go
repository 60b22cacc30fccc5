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
	"fmt"
	"time"
)

// SnapshotJSON is one element of the `kopia snapshot list --json` array.
type SnapshotJSON struct {
	ID              string    `json:"id"`
	Source          Source    `json:"source"`
	Description     string    `json:"description"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	Stats           Stats     `json:"stats"`
	RootEntry       RootEntry `json:"rootEntry"`
	RetentionReason []string  `json:"retentionReason"`
}

// Stats holds the upload counters kopia records for a snapshot.
type Stats struct {
	TotalSize         uint64 `json:"totalSize" yaml:"totalSize"`
	ExcludedTotalSize uint64 `json:"excludedTotalSize" yaml:"excludedTotalSize"`
	FileCount         uint32 `json:"fileCount" yaml:"fileCount"`
	CachedFiles       uint32 `json:"cachedFiles" yaml:"cachedFiles"`
	NonCachedFiles    uint32 `json:"nonCachedFiles" yaml:"nonCachedFiles"`
	DirCount          uint32 `json:"dirCount" yaml:"dirCount"`
	ExcludedFileCount uint32 `json:"excludedFileCount" yaml:"excludedFileCount"`
	ExcludedDirCount  uint32 `json:"excludedDirCount" yaml:"excludedDirCount"`
	IgnoredErrorCount uint32 `json:"ignoredErrorCount" yaml:"ignoredErrorCount"`
	ErrorCount        uint32 `json:"errorCount" yaml:"errorCount"`
}

// RootEntry describes the top-level directory of a snapshot.
type RootEntry struct {
	Name    string  `json:"name" yaml:"name"`
	Type    string  `json:"type" yaml:"type"`
	Mode    string  `json:"mode" yaml:"mode"`
	MTime   string  `json:"mtime" yaml:"mtime"`
	Object  string  `json:"obj" yaml:"obj"`
	Summary Summary `json:"summ" yaml:"summ"`
}

// Summary aggregates the directory tree below a RootEntry.
type Summary struct {
	Size      uint64 `json:"size" yaml:"size"`
	Files     uint32 `json:"files" yaml:"files"`
	Symlinks  uint32 `json:"symlinks" yaml:"symlinks"`
	Dirs      uint32 `json:"dirs" yaml:"dirs"`
	MaxTime   string `json:"maxTime" yaml:"maxTime"`
	NumFailed uint32 `json:"numFailed" yaml:"numFailed"`
}

// Snapshot is a parsed snapshot record. EndTime is nil when the recorded end
// time could not be parsed.
type Snapshot struct {
	ID              string     `json:"id" yaml:"id"`
	Source          Source     `json:"source" yaml:"source"`
	Description     string     `json:"description" yaml:"description"`
	StartTime       string     `json:"startTime" yaml:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Stats           Stats      `json:"stats" yaml:"stats"`
	RootEntry       RootEntry  `json:"rootEntry" yaml:"rootEntry"`
	RetentionReason []string   `json:"retentionReason" yaml:"retentionReason"`
}

// Snapshot converts the wire record, parsing the end time. A malformed end
// time yields a nil EndTime together with the parse error, which callers
// are expected to treat as a diagnostic only.
func (s SnapshotJSON) Snapshot() (Snapshot, *TimestampError) {
	snap := Snapshot{
		ID:              s.ID,
		Source:          s.Source,
		Description:     s.Description,
		StartTime:       s.StartTime,
		Stats:           s.Stats,
		RootEntry:       s.RootEntry,
		RetentionReason: s.RetentionReason,
	}

	end, err := ParseTimestamp(s.EndTime)
	if err != nil {
		return snap, &TimestampError{SnapshotID: s.ID, Value: s.EndTime, Cause: err}
	}
	snap.EndTime = &end
	return snap, nil
}

// ParseTimestamp parses an RFC 3339 timestamp with optional fractional
// seconds, as written by kopia.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
