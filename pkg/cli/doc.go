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

// Package cli implements the kopia-exporter command line.
//
// # Commands
//
// serve (default) - Serve snapshot metrics over HTTP:
//
//	kopia-exporter [serve] [--kopia-bin PATH] [--bind ADDR] [--timeout SECONDS]
//	               [--cache-seconds N] [--max-bind-retries N]
//
// metrics - Write the metrics page once, or on a cron schedule for the node
// exporter textfile collector:
//
//	kopia-exporter metrics [--listing FILE|URL|-] [--output FILE [--schedule SPEC]]
//
// inventory - Summarize snapshots per source:
//
//	kopia-exporter inventory [--listing FILE|URL|-] [--format table|json|yaml]
//
// # Configuration
//
// Settings come from, in increasing precedence: built-in defaults, the
// file named by --config (YAML or JSON, local or http(s)), environment
// variables, and flags. Every flag has a KOPIA_EXPORTER_* variable, for
// example KOPIA_EXPORTER_CACHE_SECONDS. LOG_LEVEL is honored as well.
//
// # Authentication
//
// Basic auth is enabled with --auth-username and --auth-password, or with
// --auth-credentials-file pointing at a file whose first non-empty line is
// username:password. The two forms are mutually exclusive.
//
// # Exit Codes
//
//	0  Success
//	1  Invalid arguments, bind failure or kopia failure
package cli
