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

// Package enrich wires the enrichment engine together: it opens the run
// journal, builds generation and search backends from configuration, and
// drives batch runs from an input file to a checkpointed output file.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/ai/ollama"
	"github.com/poiesic/enrich/ai/openai"
	"github.com/poiesic/enrich/batch"
	"github.com/poiesic/enrich/checkpoint"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/dataset"
	"github.com/poiesic/enrich/generate"
	"github.com/poiesic/enrich/retrieve"
	"github.com/poiesic/enrich/search"
	"github.com/poiesic/enrich/search/elastic"
	"github.com/poiesic/enrich/search/memory"
	"github.com/poiesic/enrich/storage"
	"github.com/poiesic/enrich/storage/badger"
)

var (
	// ErrNoJournal is returned by journal queries on an Engine opened without one.
	ErrNoJournal = errors.New("engine has no journal")

	// ErrUnknownMode is returned for a Job whose Mode is neither generate nor retrieve.
	ErrUnknownMode = errors.New("unknown mode")
)

type Engine struct {
	backend *badger.Backend
	journal storage.JournalRepository
	config  *batch.Config
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	config          *batch.Config
	journalDir      string
	inMemoryJournal bool
	logger          *slog.Logger
}

// WithConfig sets the batch configuration. Default is batch.DefaultConfig().
func WithConfig(config *batch.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = config
	}
}

// WithJournal records run progress in a badger database under dir.
func WithJournal(dir string) EngineOption {
	return func(o *engineOptions) {
		o.journalDir = dir
	}
}

// WithMemoryJournal records run progress in memory only.
func WithMemoryJournal() EngineOption {
	return func(o *engineOptions) {
		o.inMemoryJournal = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

func NewEngine(opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		config: batch.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.config == nil {
		options.config = batch.DefaultConfig()
	}
	if err := options.config.Validate(); err != nil {
		return nil, err
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{
		config: options.config,
		logger: options.logger.With("component", "engine"),
	}
	if options.journalDir == "" && !options.inMemoryJournal {
		return e, nil
	}

	backend, err := badger.OpenBackend(options.journalDir, options.inMemoryJournal)
	if err != nil {
		return nil, err
	}
	journal, err := badger.NewJournalRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	e.backend = backend
	e.journal = journal
	return e, nil
}

func (e *Engine) Close() error {
	if e.backend == nil {
		return nil
	}
	if err := e.journal.Close(); err != nil {
		e.logger.Error("error closing journal", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Config() *batch.Config {
	return e.config
}

// Journal returns the run journal, or nil when the engine has none.
func (e *Engine) Journal() storage.JournalRepository {
	return e.journal
}

// Runs lists the journaled runs, most recently updated first.
func (e *Engine) Runs(ctx context.Context) ([]*core.RunState, error) {
	if e.journal == nil {
		return nil, ErrNoJournal
	}
	return e.journal.ListRuns(ctx)
}

// NewGenerator creates the generation backend selected by config.Backend.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	config.Normalize()
	switch config.Backend {
	case ai.BackendProcess:
		return ollama.NewProcessGenerator(config)
	case ai.BackendHTTP:
		return openai.NewGenerator(config)
	default:
		return nil, config.Validate()
	}
}

// NewGenerateTransform creates a generation transform using the engine's
// word budget and call policy.
func (e *Engine) NewGenerateTransform(aiConfig *ai.Config) (*generate.Transform, error) {
	gen, err := NewGenerator(aiConfig)
	if err != nil {
		return nil, err
	}
	return generate.NewTransform(gen,
		generate.WithWordBudget(e.config.WordBudget),
		generate.WithCallPolicy(e.config.CallPolicy()),
		generate.WithLogger(e.logger.With("component", "generate")))
}

// SearchConfig selects and configures the search backend.
type SearchConfig struct {
	// Elastic connects to a cluster. Used when Corpus is empty.
	Elastic *elastic.Config
	// Corpus is a JSON array of documents searched in memory instead of a cluster.
	Corpus string
	// CacheTTL enables result caching when positive.
	CacheTTL time.Duration
}

// NewSearchBackend creates the search backend described by config. A
// corpus is indexed under index.
func NewSearchBackend(config SearchConfig, index string) (search.Backend, error) {
	var backend search.Backend
	if config.Corpus != "" {
		mem := memory.NewBackend()
		if _, err := mem.LoadFile(config.Corpus, index); err != nil {
			return nil, err
		}
		backend = mem
	} else {
		if config.Elastic == nil {
			return nil, errors.New("search config: Elastic or Corpus is required")
		}
		es, err := elastic.NewBackend(config.Elastic)
		if err != nil {
			return nil, err
		}
		backend = es
	}
	if config.CacheTTL > 0 {
		return search.NewCachedBackend(backend, config.CacheTTL)
	}
	return backend, nil
}

// NewRetrieveTransform creates a retrieval transform using the engine's
// top-k, index and call policy. monitor may be nil.
func (e *Engine) NewRetrieveTransform(config SearchConfig, monitor search.Monitor) (*retrieve.Transform, error) {
	backend, err := NewSearchBackend(config, e.config.IndexName)
	if err != nil {
		return nil, err
	}
	return retrieve.NewTransform(backend,
		retrieve.WithTopK(e.config.TopK),
		retrieve.WithIndex(e.config.IndexName),
		retrieve.WithCallPolicy(e.config.CallPolicy()),
		retrieve.WithMonitor(monitor),
		retrieve.WithLogger(e.logger.With("component", "retrieve")))
}

// Job describes one batch run.
type Job struct {
	Mode      core.Mode
	Input     string
	Output    string
	Transform batch.Transform
	// Subset keeps only the first Subset input records when positive.
	// Zero falls back to the configured subset size.
	Subset int
	// Resume continues after the results already present in Output.
	Resume bool
	// Progress receives the progress display. Nil disables it.
	Progress io.Writer
}

// Run loads the job's input, transforms it, and checkpoints results to the
// job's output according to the configured policy. Load failures are
// returned before any output is written.
func (e *Engine) Run(ctx context.Context, job Job) ([]core.Record, *batch.Stats, error) {
	if job.Mode != core.ModeGenerate && job.Mode != core.ModeRetrieve {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMode, job.Mode)
	}
	subset := job.Subset
	if subset == 0 {
		subset = e.config.SubsetSize
	}
	records, err := dataset.Load(job.Input, subset)
	if err != nil {
		return nil, nil, err
	}

	policy, err := checkpoint.ParsePolicy(e.config.Checkpoint)
	if err != nil {
		return nil, nil, err
	}
	sink, err := checkpoint.NewFileSink(job.Output)
	if err != nil {
		return nil, nil, err
	}

	opts := []batch.Option{
		batch.WithLogger(e.logger.With("mode", string(job.Mode))),
		batch.WithProgress(job.Progress),
	}
	if job.Resume {
		done, err := dataset.LoadResults(job.Output)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, batch.WithResume(done))
	}
	if e.journal != nil {
		state, err := e.runState(ctx, job)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, batch.WithJournal(e.journal, state))
	}

	runner, err := batch.NewRunner(e.config, checkpoint.NewCheckpointer(sink, policy), opts...)
	if err != nil {
		return nil, nil, err
	}
	return runner.Run(ctx, records, job.Transform)
}

// runState returns the journal entry for job. A fresh run starts a new
// entry; a resumed run continues the existing one when present.
func (e *Engine) runState(ctx context.Context, job Job) (*core.RunState, error) {
	input, output := absPath(job.Input), absPath(job.Output)
	id := core.RunID(job.Mode, input, output)

	if job.Resume {
		state, err := e.journal.LoadRun(ctx, id)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("loading run %d: %w", id, err)
		}
	}
	return &core.RunState{
		Id:     id,
		Mode:   job.Mode,
		Input:  input,
		Output: output,
	}, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
