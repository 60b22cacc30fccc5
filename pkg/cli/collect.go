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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/serializer"
)

const (
	flagListing = "listing"
	flagOutput  = "output"
	flagFormat  = "format"
)

var listingFlag = &cli.StringFlag{
	Name:    flagListing,
	Aliases: []string{"l"},
	Usage:   "Read saved `kopia snapshot list --json` output from a file, URL or - (stdin) instead of running kopia",
}

var outputFlag = &cli.StringFlag{
	Name:    flagOutput,
	Aliases: []string{"o"},
	Usage:   "Output file (default: stdout)",
}

// collect runs kopia, or ingests a saved listing when --listing is set.
func collect(ctx context.Context, cmd *cli.Command, s *settings) (*kopia.Inventory, error) {
	path := cmd.String(flagListing)
	if path == "" {
		return s.invoker().Run(ctx)
	}

	rc, err := serializer.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			slog.Warn("failed to close listing", "path", path, "error", closeErr)
		}
	}()

	inv, err := kopia.Ingest(rc, s.invalidSourceFunc())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	return inv, nil
}
