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
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/kopia-exporter/pkg/defaults"
	"github.com/NVIDIA/kopia-exporter/pkg/serializer"
)

// DefaultAddress is the listen address used when none is configured.
const DefaultAddress = "0.0.0.0:9884"

// Config holds server configuration
type Config struct {
	// Server identity
	Name    string
	Version string

	// Additional Handlers to be added to the server
	Handlers map[string]http.HandlerFunc

	// Address is the host:port to listen on.
	Address string

	// Bind retry
	MaxBindRetries     int
	BindInitialBackoff time.Duration
	BindMaxBackoff     time.Duration

	// CacheTTL is how long a kopia listing is reused across scrapes. Zero disables
	// caching.
	CacheTTL time.Duration

	// Auth enables HTTP basic authentication when non-nil.
	Auth *Credentials

	// Rate limiting configuration
	RateLimit      rate.Limit // requests per second
	RateLimitBurst int        // burst size

	// Timeouts
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// NewConfig returns a new Config with sensible defaults.
// Use this when you want to customize config programmatically.
func NewConfig() *Config {
	return parseConfig()
}

// parseConfig returns sensible defaults
func parseConfig() *Config {
	cfg := &Config{
		Name:               "kopia-exporter",
		Version:            "undefined",
		Address:            DefaultAddress,
		MaxBindRetries:     defaults.BindMaxRetries,
		BindInitialBackoff: defaults.BindRetryInitialBackoff,
		BindMaxBackoff:     defaults.BindRetryMaxBackoff,
		CacheTTL:           defaults.MetricsCacheTTL,
		RateLimit:          defaults.ServerRateLimit,
		RateLimitBurst:     defaults.ServerRateLimitBurst,
		ReadTimeout:        defaults.ServerReadTimeout,
		ReadHeaderTimeout:  defaults.ServerReadHeaderTimeout,
		WriteTimeout:       defaults.ServerWriteTimeout,
		IdleTimeout:        defaults.ServerIdleTimeout,
		ShutdownTimeout:    defaults.ServerShutdownTimeout,
	}

	// Override with environment variables if set
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port < 65536 {
			host, _, _ := net.SplitHostPort(cfg.Address)
			cfg.Address = net.JoinHostPort(host, strconv.Itoa(port))
		}
	}

	// Allow customization of shutdown timeout to match systemd's TimeoutStopSec
	if shutdownStr := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); shutdownStr != "" {
		if seconds, err := strconv.Atoi(shutdownStr); err == nil && seconds > 0 {
			cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}

// FileConfig is the on-disk form of the exporter settings. Zero fields
// leave the corresponding setting untouched.
type FileConfig struct {
	Bind           string   `json:"bind" yaml:"bind"`
	KopiaBin       string   `json:"kopiaBin" yaml:"kopiaBin"`
	Timeout        Duration `json:"timeout" yaml:"timeout"`
	CacheSeconds   *uint64  `json:"cacheSeconds" yaml:"cacheSeconds"`
	MaxBindRetries *int     `json:"maxBindRetries" yaml:"maxBindRetries"`
	LogLevel       string   `json:"logLevel" yaml:"logLevel"`
	LogFormat      string   `json:"logFormat" yaml:"logFormat"`
	Auth           struct {
		Username        string `json:"username" yaml:"username"`
		Password        string `json:"password" yaml:"password"`
		CredentialsFile string `json:"credentialsFile" yaml:"credentialsFile"`
	} `json:"auth" yaml:"auth"`
}

// LoadFileConfig reads a YAML or JSON config from a path or URL.
func LoadFileConfig(ctx context.Context, path string) (*FileConfig, error) {
	fc, err := serializer.FromFile[FileConfig](ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return fc, nil
}

// Apply copies the server-related settings of fc onto cfg.
func (fc *FileConfig) Apply(cfg *Config) error {
	if fc.Bind != "" {
		cfg.Address = fc.Bind
	}
	if fc.CacheSeconds != nil {
		cfg.CacheTTL = time.Duration(*fc.CacheSeconds) * time.Second
	}
	if fc.MaxBindRetries != nil {
		if *fc.MaxBindRetries < 0 {
			return fmt.Errorf("maxBindRetries must not be negative: %d", *fc.MaxBindRetries)
		}
		cfg.MaxBindRetries = *fc.MaxBindRetries
	}
	creds, err := ResolveCredentials(fc.Auth.Username, fc.Auth.Password, fc.Auth.CredentialsFile)
	if err != nil {
		return err
	}
	if creds != nil {
		cfg.Auth = creds
	}
	return nil
}

// Duration accepts either a Go duration string ("1.5s") or a number of
// seconds in config files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseSeconds(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (d *Duration) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// ParseSeconds parses "2.5" as seconds or "2500ms" as a duration. Negative
// values are rejected.
func ParseSeconds(s string) (time.Duration, error) {
	var d time.Duration
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > float64(math.MaxInt64)/float64(time.Second) {
			return 0, fmt.Errorf("invalid duration %q: out of range", s)
		}
		d = time.Duration(f * float64(time.Second))
	} else {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("invalid duration %q: want seconds or a duration such as 1.5s", s)
		}
		d = parsed
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}
