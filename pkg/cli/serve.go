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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
	"github.com/NVIDIA/kopia-exporter/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve snapshot metrics over HTTP (default)",
		Description: `Listens on --bind and runs kopia for each scrape of /metrics, reusing
the listing for --cache-seconds. The listener is retried with backoff while
the address is busy, up to --max-bind-retries times.

# Examples

  kopia-exporter serve --kopia-bin /usr/bin/kopia --bind 127.0.0.1:9884
  kopia-exporter --cache-seconds 30 --auth-credentials-file /etc/kopia-exporter/htpasswd`,
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	s, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"kopiaBin", s.KopiaBin,
		"timeout", s.Timeout.String())

	kopia.CheckVersion(ctx, s.KopiaBin)

	return server.Run(ctx,
		server.WithConfig(s.Server),
		server.WithScraper(s.invoker()),
		server.WithOutput(stdout(cmd)),
	)
}
