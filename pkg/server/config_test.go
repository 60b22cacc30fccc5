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

package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/kopia-exporter/pkg/defaults"
)

func TestParseConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		cfg := parseConfig()

		assert.Equal(t, DefaultAddress, cfg.Address)
		assert.Equal(t, defaults.BindMaxRetries, cfg.MaxBindRetries)
		assert.Equal(t, defaults.MetricsCacheTTL, cfg.CacheTTL)
		assert.Nil(t, cfg.Auth)
		assert.Equal(t, defaults.ServerShutdownTimeout, cfg.ShutdownTimeout)
	})

	t.Run("custom port from environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		assert.Equal(t, "0.0.0.0:9090", parseConfig().Address)
	})

	t.Run("invalid port from environment uses default", func(t *testing.T) {
		t.Setenv("PORT", "invalid")
		assert.Equal(t, DefaultAddress, parseConfig().Address)
	})

	t.Run("shutdown timeout from environment", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "90")
		assert.Equal(t, 90*time.Second, parseConfig().ShutdownTimeout)
	})
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15", want: 15 * time.Second},
		{in: "0.5", want: 500 * time.Millisecond},
		{in: "2.25", want: 2250 * time.Millisecond},
		{in: "1500ms", want: 1500 * time.Millisecond},
		{in: "1m", want: time.Minute},
		{in: "0", want: 0},
		{in: "-1", wantErr: true},
		{in: "1e10", wantErr: true},
		{in: "-1e10", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "1e9", want: 1_000_000_000 * time.Second},
		{in: "-2s", wantErr: true},
		{in: "soon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeconds(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSecondsOutOfRange(t *testing.T) {
	for _, in := range []string{"1e10", "NaN", "+Inf", "-Inf"} {
		_, err := ParseSeconds(in)
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), "out of range", in)
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "creds")
	require.NoError(t, os.WriteFile(creds, []byte("prom:pw\n"), 0o600))

	path := filepath.Join(dir, "exporter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`bind: 127.0.0.1:9999
kopiaBin: /opt/kopia
timeout: 2.5
cacheSeconds: 30
maxBindRetries: 0
logLevel: debug
auth:
  credentialsFile: `+creds+`
`), 0o600))

	fc, err := LoadFileConfig(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/kopia", fc.KopiaBin)
	assert.Equal(t, Duration(2500*time.Millisecond), fc.Timeout)
	assert.Equal(t, "debug", fc.LogLevel)

	cfg := NewConfig()
	require.NoError(t, fc.Apply(cfg))
	assert.Equal(t, "127.0.0.1:9999", cfg.Address)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0, cfg.MaxBindRetries)
	require.NotNil(t, cfg.Auth)
	assert.Equal(t, "prom", cfg.Auth.Username)
}

func TestLoadFileConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exporter.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bind": ":9100", "timeout": "3s", "cacheSeconds": 0}`), 0o600))

	fc, err := LoadFileConfig(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Duration(3*time.Second), fc.Timeout)

	cfg := NewConfig()
	cfg.CacheTTL = time.Minute
	require.NoError(t, fc.Apply(cfg))
	assert.Equal(t, ":9100", cfg.Address)
	assert.Zero(t, cfg.CacheTTL, "explicit zero must disable the cache")
	assert.Equal(t, defaults.BindMaxRetries, cfg.MaxBindRetries, "unset fields keep their value")
}

func TestFileConfigApply_Invalid(t *testing.T) {
	negative := -1
	fc := &FileConfig{MaxBindRetries: &negative}
	require.Error(t, fc.Apply(NewConfig()))

	fc = &FileConfig{}
	fc.Auth.Username = "only-user"
	require.Error(t, fc.Apply(NewConfig()))
}

func TestLoadFileConfig_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exporter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bindd: :9100\n"), 0o600))

	_, err := LoadFileConfig(context.Background(), path)
	require.Error(t, err)
}
