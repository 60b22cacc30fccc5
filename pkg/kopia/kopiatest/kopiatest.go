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

// Package kopiatest provides snapshot fixtures for tests and for the
// fake-kopia development binary.
package kopiatest

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
)

// SampleListing is a real-shaped `kopia snapshot list --json` output for a
// single source with 17 snapshots.
//
//go:embed testdata/snapshot-list.json
var SampleListing []byte

const (
	// SampleSourceKey is the only source in SampleListing.
	SampleSourceKey = "kopia-system@milton:/persist-home"

	// SampleLatestID is the id of the newest snapshot in SampleListing.
	SampleLatestID = "c5be996d125abae92340f3a658443b24"

	// SampleNow is the reference time the sample golden values are
	// computed against.
	SampleNow = "2025-08-17T20:58:04.972143344Z"
)

// Defaults used by TestSnapshot.
const (
	DefaultHost      = "host"
	DefaultUserName  = "user_name"
	DefaultPath      = "/path"
	DefaultStartTime = "2025-08-14T00:00:00Z"
	DefaultEndTime   = "2025-08-14T00:01:00Z"
)

// SampleNowTime returns SampleNow as a time.Time.
func SampleNowTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, SampleNow)
	if err != nil {
		panic(err)
	}
	return t
}

// Sample ingests SampleListing.
func Sample() *kopia.Inventory {
	inv, err := kopia.Ingest(bytes.NewReader(SampleListing), kopia.RejectInvalidSource)
	if err != nil {
		panic(fmt.Sprintf("kopiatest: sample listing does not ingest: %v", err))
	}
	return inv
}

// DefaultSource is the source TestSnapshot records belong to.
func DefaultSource() kopia.Source {
	return kopia.Source{Host: DefaultHost, UserName: DefaultUserName, Path: DefaultPath}
}

// DefaultSourceKey is the rendered DefaultSource.
func DefaultSourceKey() kopia.SourceKey {
	return mustRender(DefaultSource())
}

// TestSnapshot builds a wire record of DefaultSource with the given id,
// total size and retention reasons. All other fields are fixed.
func TestSnapshot(id string, totalSize uint64, reasons ...string) kopia.SnapshotJSON {
	if reasons == nil {
		reasons = []string{}
	}
	return kopia.SnapshotJSON{
		ID:        id,
		Source:    DefaultSource(),
		StartTime: DefaultStartTime,
		EndTime:   DefaultEndTime,
		Stats: kopia.Stats{
			TotalSize:      totalSize,
			FileCount:      10,
			CachedFiles:    5,
			NonCachedFiles: 5,
			DirCount:       2,
		},
		RootEntry: kopia.RootEntry{
			Name:   "test",
			Type:   "d",
			Mode:   "0755",
			MTime:  DefaultStartTime,
			Object: "obj" + id,
			Summary: kopia.Summary{
				Size:  totalSize,
				Files: 10,
				Dirs:  2,
			},
		},
		RetentionReason: reasons,
	}
}

// WithEndTime returns rec with its end time replaced.
func WithEndTime(rec kopia.SnapshotJSON, end string) kopia.SnapshotJSON {
	rec.EndTime = end
	return rec
}

// WithSource returns rec with its source replaced.
func WithSource(rec kopia.SnapshotJSON, src kopia.Source) kopia.SnapshotJSON {
	rec.Source = src
	return rec
}

// Single builds an inventory of records that all belong to DefaultSource
// and returns it with the source key.
func Single(records ...kopia.SnapshotJSON) (*kopia.Inventory, kopia.SourceKey) {
	return mustInventory(records), DefaultSourceKey()
}

// Alice and Bob are the sources used by Multi.
var (
	Alice = kopia.Source{Host: "hostA", UserName: "alice", Path: "/data"}
	Bob   = kopia.Source{Host: "hostB", UserName: "bob", Path: "/backup"}
)

// Multi builds an inventory with Alice and Bob as sources and returns it
// together with both keys. Sources in the given records are overwritten.
func Multi(alice, bob []kopia.SnapshotJSON) (*kopia.Inventory, kopia.SourceKey, kopia.SourceKey) {
	records := make([]kopia.SnapshotJSON, 0, len(alice)+len(bob))
	for _, rec := range alice {
		records = append(records, WithSource(rec, Alice))
	}
	for _, rec := range bob {
		records = append(records, WithSource(rec, Bob))
	}
	return mustInventory(records), mustRender(Alice), mustRender(Bob)
}

func mustInventory(records []kopia.SnapshotJSON) *kopia.Inventory {
	inv, err := kopia.FromSnapshots(records, kopia.RejectInvalidSource)
	if err != nil {
		panic(fmt.Sprintf("kopiatest: %v", err))
	}
	return inv
}

func mustRender(src kopia.Source) kopia.SourceKey {
	key, err := src.Render()
	if err != nil {
		panic(fmt.Sprintf("kopiatest: %v", err))
	}
	return key
}
