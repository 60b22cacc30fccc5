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

// Package defaults provides centralized configuration constants for the
// exporter.
//
// This package defines timeout values, retry parameters, and other
// configuration defaults used across the codebase so that the CLI, the
// server, and the kopia invoker agree on them.
//
// # Categories
//
//   - Kopia invocation: listing timeout, exit status poll interval, output caps
//   - Metrics cache: default response TTL
//   - Bind retry: attempt count and exponential backoff bounds
//   - Server: HTTP server timeouts and rate limits
//
// # Usage
//
//	import "github.com/NVIDIA/kopia-exporter/pkg/defaults"
//
//	inv, err := kopia.Invoke(ctx, bin, defaults.KopiaTimeout, kopia.IgnoreInvalidSource)
//
// # Guidelines
//
//   - The kopia timeout must stay below the server write timeout so a slow
//     listing still produces an error response instead of a reset connection.
//   - The poll interval bounds how late a timeout is noticed.
package defaults
