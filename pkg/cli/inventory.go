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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/serializer"
)

var formatFlag = &cli.StringFlag{
	Name:    flagFormat,
	Aliases: []string{"t"},
	Usage:   "Output format (" + strings.Join(serializer.SupportedFormats(), ", ") + ")",
	Value:   string(serializer.FormatTable),
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String(flagFormat))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}

func inventoryCmd() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "Summarize snapshots per source",
		Description: `Lists every source with its snapshot count and the state of its latest
snapshot, plus the sources that were skipped as invalid.

# Examples

  kopia-exporter inventory
  kopia-exporter inventory --format yaml --listing snapshots.json`,
		Flags: []cli.Flag{
			listingFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			s, err := setup(ctx, cmd)
			if err != nil {
				return err
			}

			inv, err := collect(ctx, cmd, s)
			if err != nil {
				return err
			}

			w := serializer.NewWriter(format, stdout(cmd))
			if path := cmd.String(flagOutput); path != "" {
				w = serializer.NewFileWriterOrStdout(format, path)
			}
			defer func() {
				if err := w.Close(); err != nil {
					slog.Warn("failed to close writer", "error", err)
				}
			}()

			return w.Serialize(ctx, inv.Summarize())
		},
	}
}
