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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/defaults"
	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/logging"
	"github.com/NVIDIA/kopia-exporter/pkg/server"
)

const (
	flagConfig              = "config"
	flagKopiaBin            = "kopia-bin"
	flagBind                = "bind"
	flagTimeout             = "timeout"
	flagCacheSeconds        = "cache-seconds"
	flagMaxBindRetries      = "max-bind-retries"
	flagAuthUsername        = "auth-username"
	flagAuthPassword        = "auth-password"
	flagAuthCredentialsFile = "auth-credentials-file"
	flagInvalidSources      = "invalid-sources"
	flagLogLevel            = "log-level"
	flagLogFormat           = "log-format"

	invalidSourcesIgnore = "ignore"
	invalidSourcesReject = "reject"
)

func envVars(flag string, extra ...string) cli.ValueSourceChain {
	return cli.EnvVars(append([]string{"KOPIA_EXPORTER_" + envName(flag)}, extra...)...)
}

func envName(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// globalFlags are shared by every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Path or URL of a YAML or JSON config file; flags override its values",
			Sources: envVars(flagConfig),
		},
		&cli.StringFlag{
			Name:    flagKopiaBin,
			Usage:   "Path to the kopia binary",
			Value:   "kopia",
			Sources: envVars(flagKopiaBin),
		},
		&cli.StringFlag{
			Name:    flagBind,
			Usage:   "Address to listen on",
			Value:   server.DefaultAddress,
			Sources: envVars(flagBind),
		},
		&cli.StringFlag{
			Name:    flagTimeout,
			Usage:   "Seconds to wait for kopia before giving up (fractions allowed, e.g. 0.5)",
			Value:   strconv.FormatFloat(defaults.KopiaTimeout.Seconds(), 'f', -1, 64),
			Sources: envVars(flagTimeout),
		},
		&cli.IntFlag{
			Name:    flagCacheSeconds,
			Usage:   "Seconds to reuse a kopia listing between scrapes (0 disables caching)",
			Value:   int(defaults.MetricsCacheTTL / time.Second),
			Sources: envVars(flagCacheSeconds),
		},
		&cli.IntFlag{
			Name:    flagMaxBindRetries,
			Usage:   "Maximum number of bind retry attempts",
			Value:   defaults.BindMaxRetries,
			Sources: envVars(flagMaxBindRetries),
		},
		&cli.StringFlag{
			Name:    flagAuthUsername,
			Usage:   "Require HTTP basic auth with this user name",
			Sources: envVars(flagAuthUsername),
		},
		&cli.StringFlag{
			Name:    flagAuthPassword,
			Usage:   "Password for HTTP basic auth",
			Sources: envVars(flagAuthPassword),
		},
		&cli.StringFlag{
			Name:    flagAuthCredentialsFile,
			Usage:   "File holding username:password for HTTP basic auth",
			Sources: envVars(flagAuthCredentialsFile),
		},
		&cli.StringFlag{
			Name:    flagInvalidSources,
			Usage:   "What to do with snapshots whose source cannot be used as a label: ignore or reject",
			Value:   invalidSourcesIgnore,
			Sources: envVars(flagInvalidSources),
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: envVars(flagLogLevel, logging.EnvLogLevel),
		},
		&cli.StringFlag{
			Name:    flagLogFormat,
			Usage:   "Log format (json, text, auto)",
			Value:   string(logging.FormatAuto),
			Sources: envVars(flagLogFormat),
		},
	}
}

// settings is the merged result of defaults, config file and flags.
type settings struct {
	KopiaBin       string
	Timeout        time.Duration
	InvalidSources string
	LogLevel       string
	LogFormat      string
	Server         *server.Config
}

// loadSettings merges the config file, if any, with the flags. Flags that
// were set explicitly or through the environment win over the file.
func loadSettings(ctx context.Context, cmd *cli.Command) (*settings, error) {
	s := &settings{
		KopiaBin:       cmd.String(flagKopiaBin),
		InvalidSources: cmd.String(flagInvalidSources),
		LogLevel:       cmd.String(flagLogLevel),
		LogFormat:      cmd.String(flagLogFormat),
		Server:         server.NewConfig(),
	}
	s.Server.Name = name
	s.Server.Version = version

	timeout, err := server.ParseSeconds(cmd.String(flagTimeout))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flagTimeout, err)
	}
	s.Timeout = timeout

	if path := cmd.String(flagConfig); path != "" {
		fc, err := server.LoadFileConfig(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := fc.Apply(s.Server); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if fc.KopiaBin != "" && !cmd.IsSet(flagKopiaBin) {
			s.KopiaBin = fc.KopiaBin
		}
		if fc.Timeout > 0 && !cmd.IsSet(flagTimeout) {
			s.Timeout = time.Duration(fc.Timeout)
		}
		if fc.LogLevel != "" && !cmd.IsSet(flagLogLevel) {
			s.LogLevel = fc.LogLevel
		}
		if fc.LogFormat != "" && !cmd.IsSet(flagLogFormat) {
			s.LogFormat = fc.LogFormat
		}
	}

	if s.Timeout <= 0 {
		return nil, fmt.Errorf("--%s must be greater than zero", flagTimeout)
	}

	if cmd.IsSet(flagBind) {
		s.Server.Address = cmd.String(flagBind)
	}
	if cmd.IsSet(flagCacheSeconds) {
		secs := cmd.Int(flagCacheSeconds)
		if secs < 0 {
			return nil, fmt.Errorf("--%s must not be negative: %d", flagCacheSeconds, secs)
		}
		s.Server.CacheTTL = time.Duration(secs) * time.Second
	}
	if cmd.IsSet(flagMaxBindRetries) {
		retries := cmd.Int(flagMaxBindRetries)
		if retries < 0 {
			return nil, fmt.Errorf("--%s must not be negative: %d", flagMaxBindRetries, retries)
		}
		s.Server.MaxBindRetries = retries
	}
	if cmd.IsSet(flagAuthUsername) || cmd.IsSet(flagAuthPassword) || cmd.IsSet(flagAuthCredentialsFile) {
		creds, err := server.ResolveCredentials(
			cmd.String(flagAuthUsername),
			cmd.String(flagAuthPassword),
			cmd.String(flagAuthCredentialsFile))
		if err != nil {
			return nil, err
		}
		s.Server.Auth = creds
	}

	switch s.InvalidSources {
	case invalidSourcesIgnore, invalidSourcesReject:
	default:
		return nil, fmt.Errorf("--%s must be %q or %q, got %q",
			flagInvalidSources, invalidSourcesIgnore, invalidSourcesReject, s.InvalidSources)
	}

	return s, nil
}

// setup loads settings and installs the default logger.
func setup(ctx context.Context, cmd *cli.Command) (*settings, error) {
	s, err := loadSettings(ctx, cmd)
	if err != nil {
		return nil, err
	}
	logging.SetDefaultLogger(name, version, s.LogLevel, logging.ParseFormat(s.LogFormat))
	return s, nil
}

func (s *settings) invalidSourceFunc() kopia.InvalidSourceFunc {
	if s.InvalidSources == invalidSourcesReject {
		return kopia.RejectInvalidSource
	}
	return kopia.IgnoreInvalidSource
}

func (s *settings) invoker() *kopia.Invoker {
	return kopia.NewInvoker(s.KopiaBin, s.Timeout, kopia.WithInvalidSourceFunc(s.invalidSourceFunc()))
}
