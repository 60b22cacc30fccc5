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
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/metrics"
	"github.com/NVIDIA/kopia-exporter/pkg/serializer"
)

var infoPage = template.Must(template.New("info").Parse(`<!DOCTYPE html>
<html>
<head><title>Kopia Exporter</title></head>
<body>
<h1>Kopia Exporter</h1>
<p>Version {{.Version}}</p>
<ul>
<li><a href="/metrics">/metrics</a> snapshot metrics</li>
<li><a href="/inventory">/inventory</a> per-source summary</li>
<li><a href="/exporter/metrics">/exporter/metrics</a> exporter self-metrics</li>
</ul>
</body>
</html>
`))

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// System endpoints (no auth, no rate limiting)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleInfo))
	mux.HandleFunc("GET /metrics", s.withMiddleware(s.handleMetrics))
	mux.HandleFunc("GET /inventory", s.withMiddleware(s.handleInventory))
	mux.HandleFunc("GET /exporter/metrics", s.withMiddleware(promhttp.Handler().ServeHTTP))

	for path, handler := range s.config.Handlers {
		mux.HandleFunc(path, s.withMiddleware(handler))
	}

	mux.HandleFunc("/", s.withMiddleware(s.handleNotFound))

	return mux
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := infoPage.Execute(&buf, s.config); err != nil {
		slog.Error("info page rendering failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, cnserrors.ErrCodeNotFound, "Not found", false,
		map[string]any{"path": r.URL.Path})
}

// handleMetrics renders the exposition page. Failures are reported as a
// plain-text 500 so scrapers record the target as down.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.inventory(r)
	if !ok {
		http.Error(w, "Error collecting kopia snapshots", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := metrics.Write(&buf, inv, s.now()); err != nil {
		slog.Error("metrics rendering failed", "error", err)
		http.Error(w, "Error rendering metrics", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", metrics.ContentType)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		WriteError(w, r, cnserrors.ErrCodeUnavailable, "No snapshot source configured", false, nil)
		return
	}
	inv, err := s.cache.Get(r.Context())
	if err != nil {
		slog.Error("failed to collect snapshots",
			"requestID", r.Context().Value(contextKeyRequestID),
			"error", err)
		WriteErrorFromErr(w, r, err, true)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, inv.Summarize())
}

func (s *Server) inventory(r *http.Request) (*kopia.Inventory, bool) {
	if s.cache == nil {
		slog.Error("no snapshot source configured")
		return nil, false
	}
	inv, err := s.cache.Get(r.Context())
	if err != nil {
		slog.Error("failed to collect snapshots",
			"requestID", r.Context().Value(contextKeyRequestID),
			"error", err)
		return nil, false
	}
	return inv, true
}
