// Copyright 2025 Poiesic Systems
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


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/grievance"
	"github.com/poiesic/grievance/config"
	"github.com/poiesic/grievance/ingestion"
	"github.com/poiesic/grievance/logging"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// newSystem is replaced in tests to inject stores.
var newSystem = grievance.NewSystem

func main() {
	if err := newApp(os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	var flush func()

	return &cli.App{
		Name:      "grievance",
		Usage:     "Publish citizen complaint folders to the analytical store",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides LOG_LEVEL",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set log output format (text, json); overrides LOG_FORMAT",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with configuration overrides",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("env-file"))
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if c.IsSet("log-level") {
				cfg.LogLevel = c.String("log-level")
			}
			if c.IsSet("log-format") {
				cfg.LogFormat = c.String("log-format")
			}

			_, flush, err = logging.Setup(logging.Options{
				Level:       cfg.LogLevel,
				Format:      cfg.LogFormat,
				Writer:      out,
				SentryDSN:   cfg.SentryDSN,
				Environment: cfg.AppEnv,
			})
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]interface{}{configKey: cfg}
			return nil
		},
		After: func(c *cli.Context) error {
			if flush != nil {
				flush()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Publish every unprocessed complaint folder",
				Action: processCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of folders processed concurrently; overrides WORKERS",
					},
					&cli.BoolFlag{
						Name:  "skip-withdrawn",
						Usage: "Leave withdrawn complaints unpublished",
					},
					&cli.BoolFlag{
						Name:  "claims",
						Usage: "Claim folders before publishing so concurrent runs do not collide",
					},
					&cli.DurationFlag{
						Name:  "claim-ttl",
						Usage: "Age after which another run's claim is considered stale; overrides CLAIM_TTL",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N folders (0 disables)",
						Value: 100,
					},
				},
			},
			{
				Name:   "reset-markers",
				Usage:  "Delete every processed marker so folders are published again",
				Action: resetMarkersCommand,
			},
			{
				Name:   "create-table",
				Usage:  "Create the analytical complaint table",
				Action: createTableCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "recreate",
						Usage: "Drop an existing table first",
					},
				},
			},
			{
				Name:   "analyze",
				Usage:  "Extract text features for complaint folders",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "extractor",
						Usage: "Feature extractor (keyword, llm); overrides EXTRACTOR",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-analyze folders that already have extracted features",
					},
				},
			},
		},
	}
}

// openSystem applies command flags to the loaded config and opens the system.
func openSystem(ctx context.Context, c *cli.Context) (*grievance.System, *config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.Bool("skip-withdrawn") {
		cfg.SkipWithdrawn = true
	}
	if c.Bool("claims") {
		cfg.ClaimFolders = true
	}
	if c.IsSet("claim-ttl") {
		cfg.ClaimTTL = c.Duration("claim-ttl")
	}
	if c.IsSet("extractor") {
		cfg.Extractor = c.String("extractor")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sys, err := newSystem(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stores: %w", err)
	}
	return sys, cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func processCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	sys, cfg, err := openSystem(ctx, c)
	if err != nil {
		return err
	}
	defer sys.Close()

	var opts []ingestion.Option
	if interval := c.Int("report-interval"); interval > 0 {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter, interval))
	}
	orch, err := sys.NewOrchestrator(opts...)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orch.Release()

	fmt.Fprintf(c.App.ErrWriter, "Blob backend: %s\n", cfg.BlobBackend)
	fmt.Fprintf(c.App.ErrWriter, "Analytics table: %s (%s)\n", cfg.AnalyticsTable, cfg.AnalyticsBackend)
	fmt.Fprintf(c.App.ErrWriter, "Workers: %d\n", cfg.Workers)
	fmt.Fprintln(c.App.ErrWriter)

	summary, err := orch.Run(ctx)
	printSummary(c.App.Writer, summary)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s ingestion.Summary) {
	fmt.Fprintf(w, "Discovered:        %d\n", s.Discovered)
	fmt.Fprintf(w, "Processed:         %d\n", s.Processed)
	fmt.Fprintf(w, "Already processed: %d\n", s.AlreadyProcessed)
	fmt.Fprintf(w, "Missing artifacts: %d\n", s.MissingArtifacts)
	fmt.Fprintf(w, "Failed:            %d\n", s.Failed)
	fmt.Fprintf(w, "Skipped:           %d\n", s.Skipped)
	fmt.Fprintf(w, "Elapsed:           %s\n", s.Elapsed.Round(time.Millisecond))
}

func resetMarkersCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	sys, _, err := openSystem(ctx, c)
	if err != nil {
		return err
	}
	defer sys.Close()

	orch, err := sys.NewOrchestrator()
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orch.Release()

	n, err := orch.ResetMarkers(ctx)
	if err != nil {
		return fmt.Errorf("resetting markers: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Removed %d markers\n", n)
	return nil
}

func createTableCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	sys, cfg, err := openSystem(ctx, c)
	if err != nil {
		return err
	}
	defer sys.Close()

	if err := sys.CreateTable(ctx, c.Bool("recreate")); err != nil {
		return fmt.Errorf("creating table %s: %w", cfg.AnalyticsTable, err)
	}
	slog.Info("table ready", "table", cfg.AnalyticsTable, "backend", cfg.AnalyticsBackend, "recreated", c.Bool("recreate"))
	fmt.Fprintf(c.App.Writer, "Table %s ready\n", cfg.AnalyticsTable)
	return nil
}

func analyzeCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	sys, cfg, err := openSystem(ctx, c)
	if err != nil {
		return err
	}
	defer sys.Close()

	analyzer, err := sys.NewAnalyzer(ingestion.WithForce(c.Bool("force")))
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Extractor: %s\n", cfg.Extractor)
	summary, err := analyzer.Analyze(ctx)
	fmt.Fprintf(c.App.Writer, "Analyzed: %d\nSkipped:  %d\nFailed:   %d\n", summary.Analyzed, summary.Skipped, summary.Failed)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return nil
}
