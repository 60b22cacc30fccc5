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

package kopia

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kopia_exporter_invocations_total",
			Help: "Total number of kopia snapshot listing invocations by result",
		},
		[]string{"result"},
	)

	invocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kopia_exporter_invocation_duration_seconds",
			Help:    "Wall-clock duration of kopia snapshot listing invocations",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Invocation results used as the result label.
const (
	resultSuccess  = "success"
	resultSpawn    = "spawn_error"
	resultExit     = "exit_error"
	resultTimeout  = "timeout"
	resultDecode   = "decode_error"
	resultCanceled = "canceled"
	resultOther    = "error"
)

func observeInvocation(start time.Time, err error) {
	invocationDuration.Observe(time.Since(start).Seconds())
	invocationsTotal.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	var (
		spawnErr   *SpawnError
		exitErr    *ExitError
		timeoutErr *TimeoutError
		decodeErr  *DecodeError
		jsonErr    *JSONError
	)
	switch {
	case err == nil:
		return resultSuccess
	case errors.As(err, &spawnErr):
		return resultSpawn
	case errors.As(err, &exitErr):
		return resultExit
	case errors.As(err, &timeoutErr):
		return resultTimeout
	case errors.As(err, &decodeErr), errors.As(err, &jsonErr):
		return resultDecode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCanceled
	default:
		return resultOther
	}
}
