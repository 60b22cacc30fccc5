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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/kopia-exporter/pkg/defaults"
	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/kopia/kopiatest"
)

// writeScript creates an executable shell script standing in for kopia.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "kopia")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// writeListing stores the sample listing next to the test and returns its path.
func writeListing(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.json")
	require.NoError(t, os.WriteFile(path, kopiatest.SampleListing, 0o600))
	return path
}

func TestInvokeSuccess(t *testing.T) {
	listing := writeListing(t)
	bin := writeScript(t, `[ "$*" = "snapshot list --json" ] || exit 9
cat '`+listing+`'`)

	inv, err := kopia.Invoke(context.Background(), bin, 5*time.Second, kopia.RejectInvalidSource)
	require.NoError(t, err)

	history, err := inv.Snapshots().Only(kopia.NewSourceKey(kopiatest.SampleSourceKey))
	require.NoError(t, err)
	assert.Len(t, history, 17)
	assert.Equal(t, kopiatest.SampleLatestID, history[len(history)-1].ID)
}

func TestInvokeNonZeroExitDiscardsOutput(t *testing.T) {
	bin := writeScript(t, `echo '[]'
echo 'repository not connected' >&2
exit 3`)

	inv, err := kopia.Invoke(context.Background(), bin, 5*time.Second, kopia.RejectInvalidSource)
	require.Error(t, err)
	assert.Nil(t, inv)

	var exitErr *kopia.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Contains(t, exitErr.Stderr, "repository not connected")
	assert.Contains(t, err.Error(), "failed with exit code 3")
	assert.Equal(t, cnserrors.ErrCodeUnavailable, cnserrors.CodeOf(err))
}

func TestInvokeTimeout(t *testing.T) {
	bin := writeScript(t, `echo 'starting listing' >&2
exec sleep 10`)

	timeout := 300 * time.Millisecond
	start := time.Now()
	inv, err := kopia.Invoke(context.Background(), bin, timeout, kopia.RejectInvalidSource)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, inv)

	var timeoutErr *kopia.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, timeout, timeoutErr.Timeout)
	assert.Contains(t, timeoutErr.Stderr, "starting listing")
	assert.Contains(t, err.Error(), "timeout after 0.3 seconds")
	assert.Equal(t, cnserrors.ErrCodeTimeout, cnserrors.CodeOf(err))

	// one poll interval plus scheduling slack
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+defaults.KopiaPollInterval+250*time.Millisecond)
}

func TestInvokeTimeoutWithGrandchild(t *testing.T) {
	// sleep is a grandchild that keeps both pipes open after sh is killed
	bin := writeScript(t, `echo '[' 
echo 'partial' >&2
sleep 10`)

	timeout := 300 * time.Millisecond
	start := time.Now()
	_, err := kopia.Invoke(context.Background(), bin, timeout, kopia.RejectInvalidSource)
	elapsed := time.Since(start)

	var timeoutErr *kopia.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Contains(t, timeoutErr.Stdout, "[")
	assert.Less(t, elapsed, timeout+defaults.KopiaPollInterval+250*time.Millisecond)
}

func TestInvokeExitedButPipeHeldOpen(t *testing.T) {
	// the script exits 0 right away but a background child holds stdout
	bin := writeScript(t, `sleep 10 &
echo '[]'
exit 0`)

	timeout := 400 * time.Millisecond
	start := time.Now()
	_, err := kopia.Invoke(context.Background(), bin, timeout, kopia.RejectInvalidSource)
	elapsed := time.Since(start)

	var timeoutErr *kopia.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Less(t, elapsed, timeout+defaults.KopiaPollInterval+250*time.Millisecond)
}

func TestInvokeSpawnFailure(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "does-not-exist")

	inv, err := kopia.Invoke(context.Background(), bin, time.Second, kopia.RejectInvalidSource)
	require.Error(t, err)
	assert.Nil(t, inv)

	var spawnErr *kopia.SpawnError
	assert.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, cnserrors.ErrCodeUnavailable, cnserrors.CodeOf(err))
}

func TestInvokeStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not json",
			script: `echo 'kopia: unknown command'`,
			check: func(t *testing.T, err error) {
				var jsonErr *kopia.JSONError
				assert.ErrorAs(t, err, &jsonErr)
			},
		},
		{
			name:   "invalid utf8",
			script: `printf '[{"id":"\377"}]'`,
			check: func(t *testing.T, err error) {
				var decodeErr *kopia.DecodeError
				assert.ErrorAs(t, err, &decodeErr)
			},
		},
		{
			name:   "invalid json followed by a large tail",
			script: `echo 'oops'; head -c 1048576 /dev/zero`,
			check: func(t *testing.T, err error) {
				var jsonErr *kopia.JSONError
				assert.ErrorAs(t, err, &jsonErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := writeScript(t, tt.script)
			inv, err := kopia.Invoke(context.Background(), bin, 5*time.Second, kopia.RejectInvalidSource)
			require.Error(t, err)
			assert.Nil(t, inv)
			tt.check(t, err)
		})
	}
}

func TestInvokerOptions(t *testing.T) {
	bin := writeScript(t, `[ "$KOPIA_TEST_MARKER" = "yes" ] || exit 7
[ "$1" = "custom" ] || exit 8
echo '[]'`)

	iv := kopia.NewInvoker(bin, time.Second,
		kopia.WithArgs("custom"),
		kopia.WithEnv("KOPIA_TEST_MARKER=yes"),
		kopia.WithPollInterval(10*time.Millisecond),
		kopia.WithInvalidSourceFunc(kopia.RejectInvalidSource),
	)
	assert.Equal(t, "kopia custom", iv.Command())
	assert.Equal(t, time.Second, iv.Timeout())

	inv, err := iv.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, inv.Snapshots().IsEmpty())
}

func TestInvokerDefaultTimeout(t *testing.T) {
	iv := kopia.NewInvoker("kopia", 0)
	assert.Equal(t, defaults.KopiaTimeout, iv.Timeout())
	assert.Equal(t, "kopia snapshot list --json", iv.Command())
}

func TestInvokeStderrLimit(t *testing.T) {
	bin := writeScript(t, `head -c 4096 /dev/zero | tr '\0' 'x' >&2
exit 1`)

	_, err := kopia.NewInvoker(bin, 5*time.Second, kopia.WithStderrLimit(16)).Run(context.Background())
	var exitErr *kopia.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "xxxxxxxxxxxxxxxx\n[truncated]", exitErr.Stderr)
}

func TestInvokeContextCanceled(t *testing.T) {
	bin := writeScript(t, `exec sleep 10`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	inv, err := kopia.Invoke(ctx, bin, 5*time.Second, kopia.RejectInvalidSource)
	require.Error(t, err)
	assert.Nil(t, inv)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, cnserrors.ErrCodeUnavailable, cnserrors.CodeOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDetectVersion(t *testing.T) {
	bin := writeScript(t, `[ "$1" = "--version" ] || exit 2
echo '0.17.0 build: 1a2b3c4 from: kopia/kopia'`)

	v, err := kopia.DetectVersion(context.Background(), bin)
	require.NoError(t, err)
	assert.Equal(t, "0.17.0", v.String())
	assert.True(t, v.EqualsOrNewer(kopia.MinimumVersion))

	old := writeScript(t, `echo '0.16.2 build: deadbeef'`)
	v, err = kopia.DetectVersion(context.Background(), old)
	require.NoError(t, err)
	assert.False(t, v.EqualsOrNewer(kopia.MinimumVersion))

	// CheckVersion only logs
	kopia.CheckVersion(context.Background(), old)

	broken := writeScript(t, `echo 'boom' >&2; exit 1`)
	_, err = kopia.DetectVersion(context.Background(), broken)
	assert.ErrorContains(t, err, "boom")
}
