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
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
	"github.com/NVIDIA/kopia-exporter/pkg/serializer"
)

// ErrorResponse is the JSON body of every non-2xx response from the JSON
// endpoints.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes an ErrorResponse with the status mapped from code.
func WriteError(w http.ResponseWriter, r *http.Request, code cnserrors.ErrorCode,
	message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}

	serializer.RespondJSON(w, cnserrors.HTTPStatus(code), errResp)
}

// WriteErrorFromErr writes err as an ErrorResponse. Structured errors keep
// their code, message and context; anything else becomes an internal error.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, retryable bool) {
	code := cnserrors.CodeOf(err)
	var details map[string]any
	var se *cnserrors.StructuredError
	if errors.As(err, &se) {
		details = se.Context
	}
	WriteError(w, r, code, err.Error(), retryable, details)
}
