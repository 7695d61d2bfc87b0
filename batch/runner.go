package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/storage"
)

// Transform augments one record.
type Transform interface {
	// Name identifies the transform in logs.
	Name() string

	// RequiredField is the field a record must carry to be transformed.
	RequiredField() string

	// Apply returns the augmented record. It receives a private copy of the
	// input and may modify it.
	Apply(ctx context.Context, record core.Record) (core.Record, error)

	// Fail returns the record to emit when Apply fails with err.
	Fail(record core.Record, err error) core.Record
}

// Checkpointer persists the results completed so far.
type Checkpointer interface {
	// Record is called after every committed record with the full result prefix.
	Record(ctx context.Context, results []core.Record) error

	// Finish is called once when the run stops, successfully or not.
	Finish(ctx context.Context, results []core.Record) error
}

type outcome int

const (
	succeeded outcome = iota
	failed
	skipped
	interrupted
)

// Runner drives a Transform over a record collection.
type Runner struct {
	config       *Config
	checkpointer Checkpointer
	journal      storage.JournalRepository
	state        *core.RunState
	done         []core.Record
	progress     io.Writer
	logger       *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithProgress sets where the progress display is written.
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithJournal records run progress in journal under state. The state's
// cursor, total and counters are maintained by the Runner.
func WithJournal(journal storage.JournalRepository, state *core.RunState) Option {
	return func(r *Runner) error {
		if journal == nil || state == nil {
			return errors.New("journal and run state are required")
		}
		r.journal = journal
		r.state = state
		return nil
	}
}

// WithResume starts the run after previously completed results. done must
// be the output of an earlier run over the same input; processing resumes
// at index len(done).
func WithResume(done []core.Record) Option {
	return func(r *Runner) error {
		r.done = done
		return nil
	}
}

// NewRunner creates a Runner. A nil config uses DefaultConfig().
func NewRunner(config *Config, checkpointer Checkpointer, opts ...Option) (*Runner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if checkpointer == nil {
		return nil, ErrCheckpointerRequired
	}

	r := &Runner{
		config:       config,
		checkpointer: checkpointer,
		logger:       slog.Default().With("component", "batch-runner"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run transforms records and returns one output record per input record, in
// input order. The returned error is non-nil only when ctx was cancelled or
// the final checkpoint failed; the results and stats are valid either way.
func (r *Runner) Run(ctx context.Context, records []core.Record, t Transform) ([]core.Record, *Stats, error) {
	if t == nil {
		return nil, nil, ErrTransformRequired
	}
	if len(r.done) > len(records) {
		return nil, nil, fmt.Errorf("%w: %d completed results for %d records",
			ErrResumeMismatch, len(r.done), len(records))
	}

	start := time.Now()
	logger := r.logger.With("transform", t.Name())
	persistCtx := context.WithoutCancel(ctx)

	stats := &Stats{Total: len(records), Resumed: len(r.done)}
	results := make([]core.Record, 0, len(records))
	results = append(results, r.done...)

	journal := r.openJournal(persistCtx, logger, len(records))

	tracker := NewProgressTracker(r.progress, len(records), r.config.ReportInterval)
	tracker.Start(len(r.done))

	logger.Info("starting batch run",
		"records", len(records),
		"resumed", len(r.done),
		"workers", r.config.Workers,
		"checkpoint", r.config.Checkpoint)

	commit := func(index int, record core.Record, o outcome) {
		results = append(results, record)
		switch o {
		case succeeded:
			stats.Succeeded++
		case failed:
			stats.Failed++
		case skipped:
			stats.Skipped++
		}
		if err := r.checkpointer.Record(persistCtx, results); err != nil {
			stats.CheckpointErrors++
			logger.Error("checkpoint failed", "record", index, "err", err)
		}
		journal.update(persistCtx, stats, len(results))
		tracker.Advance(o == failed)
	}

	pending := records[len(r.done):]
	var runErr error
	if r.config.Workers > 1 {
		runErr = r.runPooled(ctx, pending, len(r.done), t, logger, commit)
	} else {
		runErr = r.runSequential(ctx, pending, len(r.done), t, logger, commit)
	}

	tracker.Finish()
	stats.Elapsed = time.Since(start)

	if err := r.checkpointer.Finish(persistCtx, results); err != nil {
		logger.Error("final checkpoint failed", "err", err)
		runErr = errors.Join(runErr, err)
	}
	journal.update(persistCtx, stats, len(results))

	if runErr != nil {
		logger.Warn("batch run stopped", "completed", len(results), "stats", stats, "err", runErr)
	} else {
		logger.Info("batch run finished", "stats", stats)
	}
	return results, stats, runErr
}

type commitFunc func(index int, record core.Record, o outcome)

func (r *Runner) runSequential(ctx context.Context, pending []core.Record, offset int, t Transform, logger *slog.Logger, commit commitFunc) error {
	for i, record := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, o := r.process(ctx, offset+i, record, t, logger)
		if o == interrupted {
			return ctx.Err()
		}
		commit(offset+i, out, o)
	}
	return nil
}

// runPooled transforms records on a worker pool and commits them in index
// order as they become available.
func (r *Runner) runPooled(ctx context.Context, pending []core.Record, offset int, t Transform, logger *slog.Logger, commit commitFunc) error {
	pool, err := ants.NewPool(r.config.Workers)
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	type slot struct {
		record  core.Record
		outcome outcome
		err     error
		done    chan struct{}
	}
	slots := make([]*slot, len(pending))
	for i := range slots {
		slots[i] = &slot{done: make(chan struct{})}
	}

	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i, record := range pending {
			s := slots[i]
			if err := ctx.Err(); err != nil {
				s.outcome, s.err = interrupted, err
				close(s.done)
				continue
			}
			index := offset + i
			err := pool.Submit(func() {
				s.record, s.outcome = r.process(ctx, index, record, t, logger)
				if s.outcome == interrupted {
					s.err = ctx.Err()
				}
				close(s.done)
			})
			if err != nil {
				s.outcome, s.err = interrupted, fmt.Errorf("submitting record %d: %w", index, err)
				close(s.done)
			}
		}
	}()

	var runErr error
	for i, s := range slots {
		<-s.done
		if s.outcome == interrupted {
			runErr = s.err
			break
		}
		commit(offset+i, s.record, s.outcome)
	}

	// Wait for in-flight records so no worker outlives the run.
	<-submitted
	for _, s := range slots {
		<-s.done
	}
	return runErr
}

// process is the per-record fault boundary.
func (r *Runner) process(ctx context.Context, index int, record core.Record, t Transform, logger *slog.Logger) (core.Record, outcome) {
	if err := core.RequireField(record, t.RequiredField()); err != nil {
		logger.Warn("passing record through unchanged", "record", index, "reason", err)
		return record, skipped
	}

	out, err := safeApply(ctx, record, t)
	if err == nil {
		return out, succeeded
	}
	if ctx.Err() != nil {
		return record, interrupted
	}

	logger.Warn("record failed", "record", index, "err", err)
	return t.Fail(record.Clone(), err), failed
}

func safeApply(ctx context.Context, record core.Record, t Transform) (out core.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrTransformPanic, p)
		}
	}()
	return t.Apply(ctx, record.Clone())
}

// runJournal mirrors run progress into the journal. A zero runJournal is a no-op.
type runJournal struct {
	repo   storage.JournalRepository
	state  *core.RunState
	base   core.RunState
	logger *slog.Logger
}

func (r *Runner) openJournal(ctx context.Context, logger *slog.Logger, total int) *runJournal {
	if r.journal == nil {
		return &runJournal{}
	}
	j := &runJournal{repo: r.journal, state: r.state, logger: logger}

	// Counters from an earlier invocation only carry over when they
	// describe the results being resumed.
	if r.state.Cursor != len(r.done) {
		if r.state.Cursor != 0 || len(r.done) != 0 {
			logger.Warn("journal cursor does not match resumed results; resetting counters",
				"cursor", r.state.Cursor, "resumed", len(r.done))
		}
		r.state.Succeeded, r.state.Failed, r.state.Skipped = 0, 0, 0
		r.state.Cursor = len(r.done)
	}
	r.state.Total = total
	j.base = *r.state

	if err := j.repo.SaveRun(ctx, j.state); err != nil {
		logger.Warn("journal update failed", "err", err)
	}
	return j
}

func (j *runJournal) update(ctx context.Context, stats *Stats, cursor int) {
	if j.repo == nil {
		return
	}
	j.state.Cursor = cursor
	j.state.Succeeded = j.base.Succeeded + stats.Succeeded
	j.state.Failed = j.base.Failed + stats.Failed
	j.state.Skipped = j.base.Skipped + stats.Skipped
	if err := j.repo.SaveRun(ctx, j.state); err != nil {
		j.logger.Warn("journal update failed", "cursor", cursor, "err", err)
	}
}
