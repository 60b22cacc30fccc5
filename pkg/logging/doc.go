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

// Package logging configures the process-wide slog logger.
//
// Logs go to stderr. The default format is JSON with the module name and
// version attached to every record:
//
//	{"time":"2025-08-17T20:58:04Z","level":"INFO","msg":"server started","module":"kopia-exporter","version":"v0.3.0","addr":":9884"}
//
// Under journald the time attribute is dropped since the journal records
// it. When stderr is a terminal, FormatAuto switches to colored text output
// rendered by github.com/lmittmann/tint.
//
// The level is read from the LOG_LEVEL environment variable unless set
// explicitly. Supported values (case-insensitive) are debug, info, warn,
// warning and error; anything else selects info. Debug records carry their
// source location.
//
// Usage:
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("kopia-exporter", version)
//	    slog.Info("starting", "bind", bind)
//	}
//
// NewLogLogger adapts the default logger for APIs that still take a
// *log.Logger, such as http.Server.ErrorLog.
package logging
