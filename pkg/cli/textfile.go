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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/logging"
	"github.com/NVIDIA/kopia-exporter/pkg/metrics"
)

// writeTextfile renders inv into path through a temporary file in the same
// directory, so a concurrent reader such as the node exporter textfile
// collector never sees a partial page.
func writeTextfile(path string, inv *kopia.Inventory, now time.Time) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if err := metrics.Write(tmp, inv, now); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// runScheduled runs job once right away and then on every tick of the cron
// spec until ctx is done. A tick is skipped while the previous run is still
// going. Job failures are logged, not returned.
func runScheduled(ctx context.Context, spec string, job func(context.Context) error) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger := cron.PrintfLogger(logging.NewLogLogger(slog.LevelDebug))
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))

	runJob := func() {
		start := time.Now()
		if err := job(ctx); err != nil {
			slog.Error("scheduled run failed", "error", err, "duration", time.Since(start).String())
			return
		}
		slog.Debug("scheduled run completed", "duration", time.Since(start).String())
	}

	runJob()
	c.Schedule(schedule, cron.FuncJob(runJob))
	c.Start()
	slog.Info("running on schedule", "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
