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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/kopia/kopiatest"
	"github.com/NVIDIA/kopia-exporter/pkg/version"
)

func runApp(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(ctx, append([]string{"fake-kopia"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestSnapshotList(t *testing.T) {
	out, _, err := runApp(t, context.Background(), "snapshot", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, string(kopiatest.SampleListing), out)

	inv, err := kopia.Ingest(strings.NewReader(out), kopia.RejectInvalidSource)
	require.NoError(t, err)
	assert.Equal(t, 17, inv.SnapshotCount())
}

func TestSnapshotListRequiresJSON(t *testing.T) {
	_, _, err := runApp(t, context.Background(), "snapshot", "list")
	require.Error(t, err)

	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.ExitCode())
}

func TestRepositoryStatus(t *testing.T) {
	out, _, err := runApp(t, context.Background(), "repository", "status")
	require.NoError(t, err)
	assert.Equal(t, "Repository status: OK\nConnected to: fake-repository\n", out)
}

func TestVersion(t *testing.T) {
	out, _, err := runApp(t, context.Background(), "--version")
	require.NoError(t, err)

	v, err := version.Extract(out)
	require.NoError(t, err)
	assert.True(t, v.EqualsOrNewer(kopia.MinimumVersion))
}

func TestInvocationLogAndTestOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv(envLog, logPath)
	t.Setenv(envWriteTestOutput, "1")
	t.Setenv(envSleep, "0.01")

	for range 2 {
		out, errOut, err := runApp(t, context.Background(), "snapshot", "list", "--json")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, testStdout+"\n"))
		assert.Equal(t, testStderr+"\n", errOut)
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "ForSecs(0.0)\nForSecs(0.0)\n", string(data))
}

func TestSleepForeverHonorsCancel(t *testing.T) {
	t.Setenv(envSleep, "forever")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := runApp(t, ctx, "snapshot", "list", "--json")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExitCode(t *testing.T) {
	t.Setenv(envExitCode, "3")

	_, _, err := runApp(t, context.Background(), "snapshot", "list", "--json")
	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestCustomListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	t.Setenv(envListing, path)

	out, _, err := runApp(t, context.Background(), "snapshot", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestParseSleep(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "None"},
		{in: "1", want: "ForSecs(1.0)"},
		{in: "2.5", want: "ForSecs(2.5)"},
		{in: "forever", want: "Forever"},
		{in: "FOREVER", want: "Forever"},
		{in: "-1", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSleep(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
