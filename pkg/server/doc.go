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

// Package server exposes kopia snapshot metrics over HTTP.
//
// Routes:
//
//	GET /                  info page
//	GET /metrics           snapshot metrics in the Prometheus text format
//	GET /inventory         per-source summary as JSON
//	GET /exporter/metrics  self-metrics of the exporter
//	GET /health            liveness
//	GET /ready             readiness
//
// Every route except /health and /ready passes through request ID,
// panic recovery, optional basic authentication, rate limiting and
// logging middleware. Snapshot inventories are cached for Config.CacheTTL
// and concurrent scrapes share one kopia invocation.
//
// The listener is bound with retry (see Listen) and the server reports
// readiness, shutdown and watchdog pings to systemd when run as a
// notify service.
//
// Usage:
//
//	cfg := server.NewConfig()
//	cfg.CacheTTL = 30 * time.Second
//	err := server.Run(ctx,
//		server.WithConfig(cfg),
//		server.WithScraper(kopia.NewInvoker("/usr/bin/kopia", 15*time.Second)),
//	)
package server
