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

package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// EnvLogLevel names the environment variable holding the default level.
const EnvLogLevel = "LOG_LEVEL"

// Format selects the output encoding of log records.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	// FormatAuto is text on a terminal and JSON otherwise.
	FormatAuto Format = "auto"
)

// ParseFormat maps a flag value to a Format. Unknown values select JSON.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText:
		return FormatText
	case FormatAuto:
		return FormatAuto
	default:
		return FormatJSON
	}
}

// ParseLogLevel converts a level name to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewStructuredLogger returns a JSON logger writing to stderr.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	return NewLogger(os.Stderr, module, version, level, FormatJSON)
}

// NewLogger returns a logger writing to w in the given format, tagged with
// module and version.
func NewLogger(w io.Writer, module, version, level string, format Format) *slog.Logger {
	lvl := ParseLogLevel(level)
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	var h slog.Handler
	switch format {
	case FormatText:
		h = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			AddSource:  lvl <= slog.LevelDebug,
			NoColor:    runtime.GOOS == "windows" || !isTerminal(w),
			TimeFormat: "15:04:05.000",
		})
	default:
		opts := &slog.HandlerOptions{
			Level:     lvl,
			AddSource: lvl <= slog.LevelDebug,
		}
		if w == os.Stderr && stderrIsJournal() {
			// journald stamps every record itself
			opts.ReplaceAttr = dropTime
		}
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With("module", module, "version", version)
}

// SetDefaultStructuredLogger installs a JSON logger whose level comes from
// LOG_LEVEL.
func SetDefaultStructuredLogger(module, version string) {
	SetDefaultStructuredLoggerWithLevel(module, version, os.Getenv(EnvLogLevel))
}

// SetDefaultStructuredLoggerWithLevel installs a JSON logger at level.
func SetDefaultStructuredLoggerWithLevel(module, version, level string) {
	slog.SetDefault(NewStructuredLogger(module, version, level))
}

// SetDefaultLogger installs a logger at level in the given format. An empty
// level falls back to LOG_LEVEL.
func SetDefaultLogger(module, version, level string, format Format) {
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	slog.SetDefault(NewLogger(os.Stderr, module, version, level, format))
}

// NewLogLogger returns a *log.Logger that forwards to the default slog
// logger at level.
func NewLogLogger(level slog.Level) *log.Logger {
	return slog.NewLogLogger(slog.Default().Handler(), level)
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
