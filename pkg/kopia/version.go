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
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/NVIDIA/kopia-exporter/pkg/defaults"
	"github.com/NVIDIA/kopia-exporter/pkg/version"
)

// MinimumVersion is the oldest kopia release whose JSON listing carries
// every field the metrics are derived from.
var MinimumVersion = version.NewVersion(0, 17, 0)

// DetectVersion runs `bin --version` and parses the reported version.
func DetectVersion(ctx context.Context, bin string) (version.Version, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.KopiaVersionTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return version.Version{}, fmt.Errorf("%s --version: %w", bin, ctx.Err())
		}
		return version.Version{}, fmt.Errorf("%s --version: %w: %s", bin, err, bytes.TrimSpace(stderr.Bytes()))
	}

	v, err := version.Extract(stdout.String())
	if err != nil {
		return version.Version{}, fmt.Errorf("%s --version: %w", bin, err)
	}
	return v, nil
}

// CheckVersion probes the kopia binary and logs a warning when it cannot be
// identified or is older than MinimumVersion. It never fails; the listing
// itself is the authoritative check.
func CheckVersion(ctx context.Context, bin string) {
	v, err := DetectVersion(ctx, bin)
	if err != nil {
		slog.Warn("unable to determine kopia version", "bin", bin, "error", err)
		return
	}
	if !v.EqualsOrNewer(MinimumVersion) {
		slog.Warn("kopia version is older than supported minimum",
			"bin", bin,
			"version", v.String(),
			"minimum", MinimumVersion.String())
		return
	}
	slog.Debug("kopia version detected", "bin", bin, "version", v.String())
}
