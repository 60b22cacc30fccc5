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

package defaults

import "time"

// Kopia invocation settings.
const (
	// KopiaTimeout is the default wall-clock limit for one snapshot listing.
	KopiaTimeout = 15 * time.Second

	// KopiaPollInterval is how often the exit status of the listing command
	// is checked. A timeout is detected at most one interval late.
	KopiaPollInterval = 50 * time.Millisecond

	// KopiaVersionTimeout bounds the startup version probe.
	KopiaVersionTimeout = 5 * time.Second

	// KopiaOutputLimit caps how many bytes of diagnostic output are kept
	// from the listing command for error messages.
	KopiaOutputLimit = 64 << 10
)

// Metrics response cache.
const (
	// MetricsCacheTTL is the default lifetime of a rendered metrics page.
	// Zero disables caching and every scrape runs kopia.
	MetricsCacheTTL = 0 * time.Second
)

// Listener bind retry.
const (
	// BindMaxRetries is the default number of extra bind attempts after the
	// first one fails.
	BindMaxRetries = 3

	// BindRetryInitialBackoff is the wait before the first retry. Each later
	// retry doubles it up to BindRetryMaxBackoff.
	BindRetryInitialBackoff = 1 * time.Second

	// BindRetryMaxBackoff caps the wait between bind attempts.
	BindRetryMaxBackoff = 8 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	// It must leave room for a full kopia invocation.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Rate limiting for the scrape endpoints.
const (
	// ServerRateLimit is the sustained request rate in requests per second.
	ServerRateLimit = 20

	// ServerRateLimitBurst is the token bucket size.
	ServerRateLimitBurst = 40
)

// HTTP client settings for fetching config files and saved listings.
const (
	// HTTPClientTimeout is the total time allowed for one fetch.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout bounds establishing the TCP connection.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout bounds the TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout bounds waiting for response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second
)
