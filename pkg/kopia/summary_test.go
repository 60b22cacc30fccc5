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

package kopia_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/kopia/kopiatest"
)

func TestSummarizeSample(t *testing.T) {
	sum := kopiatest.Sample().Summarize()

	require.Len(t, sum.Sources, 1)
	src := sum.Sources[0]
	assert.Equal(t, kopiatest.SampleSourceKey, src.Source)
	assert.Equal(t, 17, src.Snapshots)
	assert.Equal(t, kopiatest.SampleLatestID, src.LatestID)
	assert.Equal(t, uint64(42154950324), src.LatestTotalSize)
	require.NotNil(t, src.LatestEndTime)
	assert.Equal(t, int64(1755129606), src.LatestEndTime.Unix())
	assert.Nil(t, sum.InvalidUserNames)

	rows := sum.TableRows()
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(sum.TableHeader()))
	assert.Equal(t, "2025-08-14T00:00:06Z", rows[0][3])
}

func TestSummarizeInvalidAndUnparsed(t *testing.T) {
	records := []kopia.SnapshotJSON{
		kopiatest.WithEndTime(kopiatest.TestSnapshot("1", 5), "garbage"),
		kopiatest.WithSource(kopiatest.TestSnapshot("2", 5), kopia.Source{UserName: "a@b", Host: "h", Path: "/"}),
	}
	inv, err := kopia.FromSnapshots(records, nil)
	require.NoError(t, err)

	sum := inv.Summarize()
	require.Len(t, sum.Sources, 1)
	assert.Nil(t, sum.Sources[0].LatestEndTime)
	assert.Equal(t, map[string]uint32{"a@b": 1}, sum.InvalidUserNames)
	assert.Equal(t, "-", sum.TableRows()[0][3])
}
