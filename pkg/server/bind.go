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
	"log/slog"
	"net"
	"time"

	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
)

// BindPolicy controls how often and how patiently Listen retries.
type BindPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Listen binds addr, retrying with exponential backoff when the address is
// busy. MaxRetries of zero means a single attempt.
func Listen(ctx context.Context, addr string, policy BindPolicy) (net.Listener, error) {
	var lc net.ListenConfig
	backoff := policy.InitialBackoff
	attempts := max(policy.MaxRetries, 0) + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			slog.Info("Successfully bound to address", "address", ln.Addr().String(), "attempt", attempt)
			return ln, nil
		}
		lastErr = err
		bindFailures.Inc()

		if attempt == attempts {
			break
		}
		slog.Warn("Bind attempt failed, retrying",
			"address", addr,
			"attempt", attempt,
			"maxAttempts", attempts,
			"backoff", backoff.String(),
			"error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, cnserrors.Wrap(cnserrors.ErrCodeUnavailable, "bind canceled", ctx.Err())
		}
		backoff = min(backoff*2, max(policy.MaxBackoff, policy.InitialBackoff))
	}

	return nil, cnserrors.WrapWithContext(cnserrors.ErrCodeUnavailable,
		"Failed to bind to "+addr, lastErr,
		map[string]any{"address": addr, "attempts": attempts})
}
