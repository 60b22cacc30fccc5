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
	"fmt"
	"strings"
	"time"

	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
)

// TimestampError records an end time that could not be parsed. It is never
// fatal to ingestion.
type TimestampError struct {
	SnapshotID string
	Value      string
	Cause      error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("snapshot %q: invalid end time %q: %v", e.SnapshotID, e.Value, e.Cause)
}

func (e *TimestampError) Unwrap() error {
	return e.Cause
}

// SpawnError is returned when the listing command could not be started.
type SpawnError struct {
	Command string
	Cause   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Cause)
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// Code implements cnserrors.Coder.
func (e *SpawnError) Code() cnserrors.ErrorCode {
	return cnserrors.ErrCodeUnavailable
}

// ExitError is returned when the listing command exits with a non-zero
// status. Any output it produced is discarded.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d\nstderr: %s",
		e.Command, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Code implements cnserrors.Coder.
func (e *ExitError) Code() cnserrors.ErrorCode {
	return cnserrors.ErrCodeUnavailable
}

// TimeoutError is returned when the listing command did not finish in time.
// Stdout and Stderr hold whatever had been read before the command was killed.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Stdout  string
	Stderr  string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s timeout after %v seconds", e.Command, e.Timeout.Seconds())
	if s := strings.TrimSpace(e.Stdout); s != "" {
		msg += "\nstdout: " + s
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}
	return msg
}

// Code implements cnserrors.Coder.
func (e *TimeoutError) Code() cnserrors.ErrorCode {
	return cnserrors.ErrCodeTimeout
}

// DecodeError is returned when the listing output is not valid UTF-8.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("snapshot listing is not valid UTF-8: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Code implements cnserrors.Coder.
func (e *DecodeError) Code() cnserrors.ErrorCode {
	return cnserrors.ErrCodeInvalidRequest
}

// JSONError is returned when the listing output is not a JSON array of
// snapshot records. Offset is the input byte offset where decoding stopped.
type JSONError struct {
	Offset int64
	Cause  error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("invalid snapshot listing at offset %d: %v", e.Offset, e.Cause)
}

func (e *JSONError) Unwrap() error {
	return e.Cause
}

// Code implements cnserrors.Coder.
func (e *JSONError) Code() cnserrors.ErrorCode {
	return cnserrors.ErrCodeInvalidRequest
}
