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

// Command fake-kopia stands in for kopia in tests and demos. It answers
// `snapshot list --json` with a fixed sample listing.
//
// Environment:
//
//	FAKE_KOPIA_LOG                append one line per invocation to this file
//	FAKE_KOPIA_SLEEP_FOR_SECS     sleep before answering; a number or "forever"
//	FAKE_KOPIA_WRITE_TEST_OUTPUT  write marker lines to stdout and stderr first
//	FAKE_KOPIA_LISTING            serve this file instead of the sample listing
//	FAKE_KOPIA_EXIT_CODE          fail with this exit code after the sleep
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia/kopiatest"
)

const (
	envLog             = "FAKE_KOPIA_LOG"
	envSleep           = "FAKE_KOPIA_SLEEP_FOR_SECS"
	envWriteTestOutput = "FAKE_KOPIA_WRITE_TEST_OUTPUT"
	envListing         = "FAKE_KOPIA_LISTING"
	envExitCode        = "FAKE_KOPIA_EXIT_CODE"

	testStdout = "fake-kopia-test-stdout"
	testStderr = "fake-kopia-test-stderr"

	fakeVersion = "0.21.1 build: fake from: fake-kopia"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code, ok := err.(cli.ExitCoder); ok {
			os.Exit(code.ExitCode())
		}
		os.Exit(1)
	}
}

// sleep is how long to wait before answering. Forever is reported as a
// negative duration.
type sleep time.Duration

const forever = sleep(-1)

func (s sleep) String() string {
	switch {
	case s == forever:
		return "Forever"
	case s == 0:
		return "None"
	default:
		return fmt.Sprintf("ForSecs(%.1f)", time.Duration(s).Seconds())
	}
}

func parseSleep(v string) (sleep, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return 0, nil
	case strings.EqualFold(v, "forever"):
		return forever, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%s: want seconds or \"forever\", got %q", envSleep, v)
	}
	return sleep(time.Duration(secs * float64(time.Second))), nil
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "fake-kopia",
		Usage:     "A stand-in for kopia during development",
		Version:   fakeVersion,
		Writer:    stdout,
		ErrWriter: stderr,
		// exit codes are applied by main so tests can run the app in-process
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			{
				Name:  "snapshot",
				Usage: "Snapshot operations",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List snapshots",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "json", Usage: "Output in JSON format"},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if !cmd.Bool("json") {
								return cli.Exit("fake-kopia only supports --json output for snapshot list", 2)
							}
							return listSnapshots(ctx, stdout, stderr)
						},
					},
				},
			},
			{
				Name:  "repository",
				Usage: "Repository operations",
				Commands: []*cli.Command{
					{
						Name:  "status",
						Usage: "Show repository status",
						Action: func(context.Context, *cli.Command) error {
							fmt.Fprintln(stdout, "Repository status: OK")
							fmt.Fprintln(stdout, "Connected to: fake-repository")
							return nil
						},
					},
				},
			},
		},
	}
}

func listSnapshots(ctx context.Context, stdout, stderr io.Writer) error {
	delay, err := parseSleep(os.Getenv(envSleep))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if path := os.Getenv(envLog); path != "" {
		if err := appendLine(path, delay.String()); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write %s: %v", envLog, err), 2)
		}
	}

	if os.Getenv(envWriteTestOutput) != "" {
		fmt.Fprintln(stdout, testStdout)
		fmt.Fprintln(stderr, testStderr)
	}

	switch {
	case delay == forever:
		<-ctx.Done()
		return ctx.Err()
	case delay > 0:
		select {
		case <-time.After(time.Duration(delay)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if v := os.Getenv(envExitCode); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil {
			return cli.Exit(fmt.Sprintf("%s: %v", envExitCode, err), 2)
		}
		return cli.Exit("fake-kopia: failing as requested", code)
	}

	listing := kopiatest.SampleListing
	if path := os.Getenv(envListing); path != "" {
		if listing, err = os.ReadFile(path); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}
	_, err = stdout.Write(listing)
	return err
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
