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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/metrics"
)

const flagSchedule = "schedule"

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Write snapshot metrics once, or on a schedule",
		Description: `Renders the same page /metrics would serve. Useful with the node
exporter textfile collector or to inspect a saved listing. Files named by
--output are replaced atomically. With --schedule the file is rewritten on
a cron schedule until the process is stopped.

# Examples

  kopia-exporter metrics --output /var/lib/node_exporter/kopia.prom
  kopia-exporter metrics --output /var/lib/node_exporter/kopia.prom --schedule "@every 5m"
  kopia snapshot list --json | kopia-exporter metrics --listing -`,
		Flags: []cli.Flag{
			listingFlag,
			outputFlag,
			&cli.StringFlag{
				Name:    flagSchedule,
				Usage:   `Cron schedule ("*/5 * * * *" or "@every 5m") for rewriting --output`,
				Sources: envVars(flagSchedule),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := setup(ctx, cmd)
			if err != nil {
				return err
			}

			output := cmd.String(flagOutput)
			if output == "-" {
				output = ""
			}

			once := func(ctx context.Context) error {
				inv, err := collect(ctx, cmd, s)
				if err != nil {
					return err
				}
				if output == "" {
					return metrics.Write(stdout(cmd), inv, time.Now())
				}
				return writeTextfile(output, inv, time.Now())
			}

			spec := cmd.String(flagSchedule)
			if spec == "" {
				return once(ctx)
			}
			if output == "" {
				return fmt.Errorf("--%s needs --%s naming a file", flagSchedule, flagOutput)
			}
			if cmd.String(flagListing) == "-" {
				return fmt.Errorf("--%s cannot reread stdin; pass --%s a file or URL", flagSchedule, flagListing)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScheduled(ctx, spec, once)
		},
	}
}
