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

package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia/kopiatest"
	"github.com/NVIDIA/kopia-exporter/pkg/metrics"
)

func TestWriteTextfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kopia.prom")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	inv := kopiatest.Sample()
	now := kopiatest.SampleNowTime()
	require.NoError(t, writeTextfile(path, inv, now))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, metrics.Render(inv, now), string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteTextfile_MissingDir(t *testing.T) {
	err := writeTextfile(filepath.Join(t.TempDir(), "missing", "kopia.prom"), kopiatest.Sample(), time.Now())
	require.Error(t, err)
}

func TestRunScheduled(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := runScheduled(ctx, "@every 1h", func(context.Context) error {
		runs.Add(1)
		return errors.New("failures are logged")
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, runs.Load(), "first run happens immediately")
}

func TestRunScheduled_InvalidSpec(t *testing.T) {
	err := runScheduled(context.Background(), "every now and then", func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestMetricsCommand_ScheduleNeedsOutput(t *testing.T) {
	_, err := run(t, "metrics", "--listing", writeListing(t), "--schedule", "@every 1m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--schedule")
}

func TestMetricsCommand_ScheduleRejectsStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "kopia.prom")
	_, err := run(t, "metrics", "--listing", "-", "--output", out, "--schedule", "@every 1m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin")
	assert.NoFileExists(t, out)
}
