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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/kopia-exporter/pkg/logging"
)

// Server serves the snapshot metrics of one kopia repository.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	scraper     Scraper
	cache       *snapshotCache
	now         func() time.Time
	out         io.Writer
	mu          sync.RWMutex
	ready       bool
}

// Option is a functional option for configuring Server instances.
type Option func(*Server)

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithHandler registers additional handlers behind the standard middleware.
func WithHandler(handlers map[string]http.HandlerFunc) Option {
	return func(s *Server) {
		s.config.Handlers = handlers
	}
}

// WithScraper sets the source of snapshot inventories, normally a
// *kopia.Invoker.
func WithScraper(scraper Scraper) Option {
	return func(s *Server) {
		s.scraper = scraper
	}
}

// WithClock overrides the time source used for snapshot ages and cache
// expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOutput sets where the startup banner is printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Server) {
		s.out = w
	}
}

// New creates a new Server. Options are applied in order, so WithConfig
// must come before options that modify the config.
func New(opts ...Option) *Server {
	s := &Server{
		config: parseConfig(),
		now:    time.Now,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rateLimiter = rate.NewLimiter(s.config.RateLimit, s.config.RateLimitBurst)
	if s.scraper != nil {
		s.cache = newSnapshotCache(s.scraper, s.config.CacheTTL, s.now)
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.setupRoutes(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          logging.NewLogLogger(slog.LevelWarn),
	}

	return s
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Run binds the configured address, retrying while it is busy, and serves
// until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := Listen(ctx, s.config.Address, BindPolicy{
		MaxRetries:     s.config.MaxBindRetries,
		InitialBackoff: s.config.BindInitialBackoff,
		MaxBackoff:     s.config.BindMaxBackoff,
	})
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	fmt.Fprintf(s.out, "Starting Kopia Exporter on %s\n", ln.Addr())
	slog.Info("serving",
		"address", ln.Addr().String(),
		"cacheTTL", s.config.CacheTTL.String(),
		"auth", s.config.Auth != nil)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.setReady(true)
	sdNotify(daemon.SdNotifyReady)

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.setReady(false)
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded
// by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.setReady(false)
	sdNotify(daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// sdNotify is a no-op outside systemd.
func sdNotify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		slog.Debug("sd_notify failed", "state", state, "error", err)
	}
}

// watchdog pings systemd at half the configured WatchdogSec until ctx is
// done. It returns immediately when no watchdog is configured.
func watchdog(ctx context.Context) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sdNotify(daemon.SdNotifyWatchdog)
		}
	}
}

// Run starts a server with opts and blocks until SIGINT or SIGTERM.
func Run(ctx context.Context, opts ...Option) error {
	server := New(opts...)

	slog.Debug("server config",
		"address", server.config.Address,
		"maxBindRetries", server.config.MaxBindRetries,
		"cacheTTL", server.config.CacheTTL.String(),
		"rateLimit", float64(server.config.RateLimit),
		"rateLimitBurst", server.config.RateLimitBurst,
		"readTimeout", server.config.ReadTimeout.String(),
		"writeTimeout", server.config.WriteTimeout.String(),
		"idleTimeout", server.config.IdleTimeout.String(),
		"shutdownTimeout", server.config.ShutdownTimeout.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return watchdog(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}
