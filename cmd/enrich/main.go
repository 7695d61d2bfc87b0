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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/poiesic/enrich"
	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/batch"
	"github.com/poiesic/enrich/checkpoint"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/dataset"
	"github.com/poiesic/enrich/search"
	"github.com/poiesic/enrich/search/elastic"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "enrich",
		Usage: "Enrich JSON record batches with generated text or retrieved documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this file, rotated at 10 MB",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML batch configuration file",
			},
			&cli.StringFlag{
				Name:  "journal",
				Usage: "Path to a BadgerDB directory recording run progress",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Add generated text to every record carrying a prompt",
				Action: generateCommand,
				Flags: append(runFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path to the output JSON file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "n-words",
						Usage: "Number of words to trim the generated text to",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "backend",
						Usage: "Generation backend (process, http)",
						Value: ai.BackendProcess,
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Model name",
						Value: "llama3.2",
					},
					&cli.StringFlag{
						Name:  "executable",
						Usage: "Executable run for each prompt by the process backend",
						Value: "ollama",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible service host URL for the http backend",
						Value: "http://localhost:11434/v1",
					},
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Completion token limit for the http backend (0 = server default)",
					},
				}...),
			},
			{
				Name:   "retrieve",
				Usage:  "Search every sentence of each record's text and attach the results",
				Action: retrieveCommand,
				Flags: append(runFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Directory receiving <input stem>_results.json",
						Value: ".",
					},
					&cli.IntFlag{
						Name:  "nb-documents",
						Usage: "Number of retrieved documents per sentence",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "index-name",
						Usage: "Name of the search index",
						Value: "sampled_redpajama",
					},
					&cli.StringSliceFlag{
						Name:    "es-url",
						Usage:   "Elasticsearch node URL (repeatable)",
						EnvVars: []string{"ELASTIC_URL"},
					},
					&cli.StringFlag{
						Name:    "cloud-id",
						Usage:   "Elastic Cloud deployment ID",
						EnvVars: []string{"ELASTIC_CLOUD_ID"},
					},
					&cli.StringFlag{
						Name:  "es-username",
						Usage: "Elasticsearch basic auth user",
						Value: "elastic",
					},
					&cli.StringFlag{
						Name:    "es-password",
						Usage:   "Elasticsearch basic auth password",
						EnvVars: []string{"ELASTIC_CLOUD_PASSWORD"},
					},
					&cli.StringFlag{
						Name:    "es-api-key",
						Usage:   "Elasticsearch API key, used instead of basic auth",
						EnvVars: []string{"ELASTIC_API_KEY"},
					},
					&cli.StringFlag{
						Name:  "corpus",
						Usage: "Search a local JSON array of documents instead of Elasticsearch",
					},
					&cli.DurationFlag{
						Name:  "cache-ttl",
						Usage: "Cache identical queries for this long (0 disables)",
					},
				}...),
			},
			{
				Name:   "sanitize",
				Usage:  "Reduce a JSON array to objects holding only their text field",
				Action: sanitizeCommand,
				Flags:  ioFlags("Path to the output JSON file"),
			},
			{
				Name:   "score-csv",
				Usage:  "Export the first words and coverage score of each record as CSV",
				Action: scoreCSVCommand,
				Flags:  ioFlags("Path to the output CSV file"),
			},
			{
				Name:   "status",
				Usage:  "List runs recorded in the journal",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete completed runs from the journal",
					},
				},
			},
		},
	}
}

// runFlags are shared by generate and retrieve.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "Path to the input JSON file",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "subset",
			Usage: "Process only the first N records (0 = all)",
		},
		&cli.BoolFlag{
			Name:  "resume",
			Usage: "Continue after the results already in the output file",
		},
		&cli.StringFlag{
			Name:  "checkpoint",
			Usage: "When to rewrite the output file (every-record, end)",
			Value: batch.CheckpointEveryRecord,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of records transformed concurrently",
			Value: 1,
		},
		&cli.DurationFlag{
			Name:  "call-timeout",
			Usage: "Timeout for each backend call (0 = none)",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Attempts per backend call",
			Value: 1,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N records",
			Value: 1,
		},
	}
}

func ioFlags(outputUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "Path to the input JSON file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    outputUsage,
			Required: true,
		},
	}
}

func generateCommand(c *cli.Context) error {
	config, err := batchConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("n-words") || c.String("config") == "" {
		config.WordBudget = c.Int("n-words")
	}

	engine, err := openEngine(c, config)
	if err != nil {
		return err
	}
	defer engine.Close()

	aiConfig := ai.NewConfig(
		ai.WithBackend(c.String("backend")),
		ai.WithModel(c.String("model")),
		ai.WithExecutable(c.String("executable")),
		ai.WithHost(c.String("host")),
		ai.WithMaxTokens(c.Int("max-tokens")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	transform, err := engine.NewGenerateTransform(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	input, output := c.String("input"), c.String("output")
	fmt.Fprintf(c.App.ErrWriter, "Input: %s\n", input)
	fmt.Fprintf(c.App.ErrWriter, "Output: %s\n", output)
	fmt.Fprintf(c.App.ErrWriter, "Backend: %s (%s)\n", aiConfig.Backend, aiConfig.Model)
	fmt.Fprintln(c.App.ErrWriter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, stats, err := engine.Run(ctx, enrich.Job{
		Mode:      core.ModeGenerate,
		Input:     input,
		Output:    output,
		Transform: transform,
		Subset:    c.Int("subset"),
		Resume:    c.Bool("resume"),
		Progress:  c.App.ErrWriter,
	})
	printSummary(c.App.Writer, output, stats)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	return nil
}

func retrieveCommand(c *cli.Context) error {
	config, err := batchConfig(c)
	if err != nil {
		return err
	}
	fromFile := c.String("config") != ""
	if c.IsSet("nb-documents") || !fromFile {
		config.TopK = c.Int("nb-documents")
	}
	if c.IsSet("index-name") || !fromFile {
		config.IndexName = c.String("index-name")
	}
	if !c.IsSet("subset") && !fromFile {
		config.SubsetSize = 100
	}

	engine, err := openEngine(c, config)
	if err != nil {
		return err
	}
	defer engine.Close()

	searchConfig := enrich.SearchConfig{
		Corpus:   c.String("corpus"),
		CacheTTL: c.Duration("cache-ttl"),
	}
	if searchConfig.Corpus == "" {
		searchConfig.Elastic = &elastic.Config{
			Addresses: c.StringSlice("es-url"),
			CloudID:   c.String("cloud-id"),
			Username:  c.String("es-username"),
			Password:  c.String("es-password"),
			APIKey:    c.String("es-api-key"),
		}
	}

	monitor := search.NewStatsMonitor()
	transform, err := engine.NewRetrieveTransform(searchConfig, monitor)
	if err != nil {
		return fmt.Errorf("failed to create search backend: %w", err)
	}

	input := c.String("input")
	output := dataset.ResultsPath(c.String("output-dir"), input)
	fmt.Fprintf(c.App.ErrWriter, "Input: %s\n", input)
	fmt.Fprintf(c.App.ErrWriter, "Output: %s\n", output)
	fmt.Fprintf(c.App.ErrWriter, "Index: %s (top %d)\n", config.IndexName, config.TopK)
	fmt.Fprintln(c.App.ErrWriter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, stats, err := engine.Run(ctx, enrich.Job{
		Mode:      core.ModeRetrieve,
		Input:     input,
		Output:    output,
		Transform: transform,
		Subset:    c.Int("subset"),
		Resume:    c.Bool("resume"),
		Progress:  c.App.ErrWriter,
	})
	printSummary(c.App.Writer, output, stats)
	if stats != nil {
		slog.Info("search summary", "queries", monitor.Snapshot())
	}
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	return nil
}

func sanitizeCommand(c *cli.Context) error {
	records, err := dataset.Load(c.String("input"), 0)
	if err != nil {
		return err
	}
	sink, err := checkpoint.NewFileSink(c.String("output"))
	if err != nil {
		return err
	}
	if err := sink.Persist(c.Context, dataset.Sanitize(records)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Extracted 'text' fields and saved to %s\n", c.String("output"))
	return nil
}

func scoreCSVCommand(c *cli.Context) error {
	records, err := dataset.Load(c.String("input"), 0)
	if err != nil {
		return err
	}
	f, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	rows, err := dataset.WriteScoreCSV(f, records)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d rows to %s\n", rows, c.String("output"))
	return nil
}

func statusCommand(c *cli.Context) error {
	if c.String("journal") == "" {
		return errors.New("--journal is required")
	}
	engine, err := openEngine(c, batch.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	runs, err := engine.Runs(c.Context)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		return nil
	}

	done := color.New(color.FgGreen)
	partial := color.New(color.FgYellow)
	for _, run := range runs {
		marker := partial
		label := "partial"
		if run.Done() {
			marker, label = done, "done"
		}
		marker.Fprintf(c.App.Writer, "%-8s", label)
		fmt.Fprintf(c.App.Writer, " %016x %-8s %d/%d ok=%d failed=%d skipped=%d updated=%s\n",
			uint64(run.Id), run.Mode, run.Cursor, run.Total,
			run.Succeeded, run.Failed, run.Skipped, run.UpdatedAt.Format(time.RFC3339))
		fmt.Fprintf(c.App.Writer, "         %s -> %s\n", run.Input, run.Output)

		if c.Bool("prune") && run.Done() {
			if err := engine.Journal().DeleteRun(c.Context, run.Id); err != nil {
				return fmt.Errorf("pruning run %016x: %w", uint64(run.Id), err)
			}
		}
	}
	return nil
}

// batchConfig starts from the --config file, or the defaults, and applies
// explicitly set run flags. Without a config file every flag applies.
func batchConfig(c *cli.Context) (*batch.Config, error) {
	config := batch.DefaultConfig()
	path := c.String("config")
	if path != "" {
		loaded, err := batch.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	apply := func(name string) bool {
		return path == "" || c.IsSet(name)
	}

	if apply("subset") {
		config.SubsetSize = c.Int("subset")
	}
	if apply("checkpoint") {
		config.Checkpoint = c.String("checkpoint")
	}
	if apply("workers") {
		config.Workers = c.Int("workers")
	}
	if apply("call-timeout") {
		config.CallTimeout = c.Duration("call-timeout")
	}
	if apply("max-attempts") {
		config.MaxAttempts = c.Int("max-attempts")
	}
	if apply("retry-delay") {
		config.RetryDelay = c.Duration("retry-delay")
	}
	if apply("report-interval") {
		config.ReportInterval = c.Int("report-interval")
	}
	policy, err := checkpoint.ParsePolicy(config.Checkpoint)
	if err != nil {
		return nil, err
	}
	config.Checkpoint = policy.String()
	return config, nil
}

func openEngine(c *cli.Context, config *batch.Config) (*enrich.Engine, error) {
	opts := []enrich.EngineOption{enrich.WithConfig(config)}
	if dir := c.String("journal"); dir != "" {
		opts = append(opts, enrich.WithJournal(dir))
	}
	engine, err := enrich.NewEngine(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func printSummary(w io.Writer, output string, stats *batch.Stats) {
	if stats == nil {
		return
	}
	fmt.Fprintln(w)
	color.New(color.FgGreen).Fprintf(w, "Results saved to: %s\n", output)
	fmt.Fprintf(w, "Processed %d of %d records in %s", stats.Processed(), stats.Total-stats.Resumed,
		stats.Elapsed.Round(time.Millisecond))
	if stats.Resumed > 0 {
		fmt.Fprintf(w, " (%d resumed)", stats.Resumed)
	}
	fmt.Fprintln(w)
	if stats.Failed > 0 {
		color.New(color.FgRed).Fprintf(w, "%d records failed\n", stats.Failed)
	}
	if stats.Skipped > 0 {
		color.New(color.FgYellow).Fprintf(w, "%d records passed through unchanged\n", stats.Skipped)
	}
	if stats.CheckpointErrors > 0 {
		color.New(color.FgRed).Fprintf(w, "%d checkpoint writes failed\n", stats.CheckpointErrors)
	}
}

// setup configures logging and loads a .env file from the working
// directory when one exists.
func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	var out io.Writer = c.App.ErrWriter
	if out == nil {
		out = os.Stderr
	}
	if path := c.String("log-file"); path != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})).With("invocation", uuid.NewString())
	slog.SetDefault(logger)

	return nil
}
