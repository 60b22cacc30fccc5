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
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/kopia-exporter/pkg/defaults"
	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
)

// DefaultArgs lists snapshots of every source as a JSON array.
var DefaultArgs = []string{"snapshot", "list", "--json"}

// Invoker runs the kopia listing command and ingests its output while the
// command is still running.
type Invoker struct {
	bin          string
	args         []string
	env          []string
	timeout      time.Duration
	pollInterval time.Duration
	outputLimit  int
	onInvalid    InvalidSourceFunc
}

// Option is a functional option for configuring Invoker instances.
type Option func(*Invoker)

// WithArgs replaces the default `snapshot list --json` arguments.
func WithArgs(args ...string) Option {
	return func(iv *Invoker) {
		iv.args = args
	}
}

// WithEnv adds KEY=value pairs to the environment of the command.
func WithEnv(env ...string) Option {
	return func(iv *Invoker) {
		iv.env = append(iv.env, env...)
	}
}

// WithPollInterval sets how often the exit status is checked.
func WithPollInterval(d time.Duration) Option {
	return func(iv *Invoker) {
		if d > 0 {
			iv.pollInterval = d
		}
	}
}

// WithStderrLimit caps how many bytes of stderr (and of stdout, for timeout
// diagnostics) are retained. Zero or less keeps everything.
func WithStderrLimit(n int) Option {
	return func(iv *Invoker) {
		iv.outputLimit = n
	}
}

// WithInvalidSourceFunc sets the policy applied to records whose source
// cannot be rendered. The default is IgnoreInvalidSource.
func WithInvalidSourceFunc(fn InvalidSourceFunc) Option {
	return func(iv *Invoker) {
		if fn != nil {
			iv.onInvalid = fn
		}
	}
}

// NewInvoker creates an invoker for the kopia binary at bin. A timeout of
// zero or less selects defaults.KopiaTimeout.
func NewInvoker(bin string, timeout time.Duration, opts ...Option) *Invoker {
	if timeout <= 0 {
		timeout = defaults.KopiaTimeout
	}
	iv := &Invoker{
		bin:          bin,
		args:         DefaultArgs,
		timeout:      timeout,
		pollInterval: defaults.KopiaPollInterval,
		outputLimit:  defaults.KopiaOutputLimit,
		onInvalid:    IgnoreInvalidSource,
	}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

// Invoke runs `bin snapshot list --json` and ingests its output.
// It is shorthand for NewInvoker(bin, timeout, WithInvalidSourceFunc(onInvalid)).Run(ctx).
func Invoke(ctx context.Context, bin string, timeout time.Duration, onInvalid InvalidSourceFunc) (*Inventory, error) {
	return NewInvoker(bin, timeout, WithInvalidSourceFunc(onInvalid)).Run(ctx)
}

// Timeout returns the wall-clock limit of one run.
func (iv *Invoker) Timeout() time.Duration {
	return iv.timeout
}

// Command returns the command line used in error messages.
func (iv *Invoker) Command() string {
	return strings.Join(append([]string{filepath.Base(iv.bin)}, iv.args...), " ")
}

type ingestResult struct {
	inv *Inventory
	err error
}

// Run executes the command once. The command is killed when the timeout
// elapses or ctx is done. No inventory is returned together with an error.
func (iv *Invoker) Run(ctx context.Context) (*Inventory, error) {
	start := time.Now()
	inv, err := iv.run(ctx, start)
	observeInvocation(start, err)
	if err != nil {
		slog.Debug("kopia invocation failed",
			"command", iv.Command(),
			"duration", time.Since(start).String(),
			"error", err)
		return nil, err
	}
	slog.Debug("kopia invocation completed",
		"command", iv.Command(),
		"duration", time.Since(start).String(),
		"sources", inv.Snapshots().Len(),
		"snapshots", inv.SnapshotCount())
	return inv, nil
}

func (iv *Invoker) run(ctx context.Context, start time.Time) (*Inventory, error) {
	command := iv.Command()

	// Pipes are owned here rather than by exec.Cmd so that reaping the
	// process never closes a reader a worker is still using.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Command: command, Cause: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, &SpawnError{Command: command, Cause: err}
	}
	defer closeAll(stdoutR, stderrR)

	cmd := exec.Command(iv.bin, iv.args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	if len(iv.env) > 0 {
		cmd.Env = append(os.Environ(), iv.env...)
	}

	if err := cmd.Start(); err != nil {
		closeAll(stdoutW, stderrW)
		return nil, &SpawnError{Command: command, Cause: err}
	}
	closeAll(stdoutW, stderrW)

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	stdoutTail := newCappedBuffer(iv.outputLimit)
	ingested := make(chan ingestResult, 1)
	go func() {
		src := io.TeeReader(stdoutR, stdoutTail)
		inv, err := Ingest(src, iv.onInvalid)
		if err != nil {
			// keep the child from blocking on a full pipe
			_, _ = io.Copy(io.Discard, src)
		}
		ingested <- ingestResult{inv: inv, err: err}
	}()

	stderr := newCappedBuffer(iv.outputLimit)
	drained := make(chan error, 1)
	go func() {
		_, err := io.Copy(stderr, stderrR)
		drained <- err
	}()

	deadline := start.Add(iv.timeout)
	ticker := time.NewTicker(iv.pollInterval)
	defer ticker.Stop()

	var waitErr error
poll:
	for {
		select {
		case waitErr = <-exited:
			break poll
		default:
		}

		if !time.Now().Before(deadline) {
			iv.kill(cmd, exited)
			closeAll(stdoutR, stderrR)
			return nil, &TimeoutError{
				Command: command,
				Timeout: iv.timeout,
				Stdout:  stdoutTail.String(),
				Stderr:  stderr.String(),
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			iv.kill(cmd, exited)
			closeAll(stdoutR, stderrR)
			return nil, cnserrors.WrapWithContext(contextCode(ctx.Err()), "kopia invocation canceled", ctx.Err(),
				map[string]any{
					"command": command,
					"stderr":  stderr.String(),
				})
		}
	}

	// The process is gone, but a grandchild may still hold the pipes open.
	// Joining the workers is bounded by what is left of the timeout.
	remaining := time.NewTimer(max(time.Until(deadline), 0))
	defer remaining.Stop()

	timedOut := func() error {
		closeAll(stdoutR, stderrR)
		return &TimeoutError{
			Command: command,
			Timeout: iv.timeout,
			Stdout:  stdoutTail.String(),
			Stderr:  stderr.String(),
		}
	}

	if _, ok := await(drained, remaining.C); !ok {
		return nil, timedOut()
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, &ExitError{Command: command, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, cnserrors.WrapWithContext(cnserrors.ErrCodeInternal, "failed to wait for kopia", waitErr,
			map[string]any{"command": command})
	}

	res, ok := await(ingested, remaining.C)
	if !ok {
		return nil, timedOut()
	}
	if res.err != nil {
		return nil, res.err
	}
	return res.inv, nil
}

// await receives from ch unless timeout fires first. A value that is
// already available wins over an expired timer.
func await[T any](ch <-chan T, timeout <-chan time.Time) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	default:
	}
	select {
	case v := <-ch:
		return v, true
	case <-timeout:
		var zero T
		return zero, false
	}
}

// kill stops the process and reaps it so no zombie is left behind.
func (iv *Invoker) kill(cmd *exec.Cmd, exited <-chan error) {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		slog.Warn("failed to kill kopia", "pid", cmd.Process.Pid, "error", err)
	}
	<-exited
}

func contextCode(err error) cnserrors.ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return cnserrors.ErrCodeTimeout
	}
	return cnserrors.ErrCodeUnavailable
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// cappedBuffer keeps the first limit bytes written to it and silently
// discards the rest. It is safe for concurrent use.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keep := p
	if b.limit > 0 {
		room := max(b.limit-b.buf.Len(), 0)
		if len(keep) > room {
			keep = keep[:room]
			b.truncated = true
		}
	}
	b.buf.Write(keep)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return b.buf.String() + "\n[truncated]"
	}
	return b.buf.String()
}
