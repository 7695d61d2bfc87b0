package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/batch"
	"github.com/poiesic/enrich/core"
)

// ErrGeneratorRequired is returned when a Transform is created without a generator.
var ErrGeneratorRequired = errors.New("generator required")

// Transform implements batch.Transform for generation mode.
type Transform struct {
	generator  ai.Generator
	wordBudget int
	policy     batch.CallPolicy
	logger     *slog.Logger
}

var _ batch.Transform = (*Transform)(nil)

// Option configures a Transform.
type Option func(*Transform)

// WithWordBudget sets the maximum number of words kept. Default 100.
func WithWordBudget(n int) Option {
	return func(t *Transform) {
		t.wordBudget = n
	}
}

// WithCallPolicy sets the timeout and retry policy for generator calls.
func WithCallPolicy(p batch.CallPolicy) Option {
	return func(t *Transform) {
		t.policy = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transform) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransform creates a generation transform backed by generator.
func NewTransform(generator ai.Generator, opts ...Option) (*Transform, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	t := &Transform{
		generator:  generator,
		wordBudget: 100,
		policy:     batch.DefaultCallPolicy(),
		logger:     slog.Default().With("component", "generate"),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.wordBudget < 0 {
		return nil, fmt.Errorf("word budget cannot be negative: %d", t.wordBudget)
	}
	return t, nil
}

func (t *Transform) Name() string          { return "generate" }
func (t *Transform) RequiredField() string { return core.FieldPrompt }

// Apply generates text for the record's prompt and stores it in "text".
func (t *Transform) Apply(ctx context.Context, record core.Record) (core.Record, error) {
	prompt, ok := record.String(core.FieldPrompt)
	if !ok {
		return record, fmt.Errorf("%w: %q is not a string", core.ErrInvalidRecord, core.FieldPrompt)
	}

	wrapped := BuildPrompt(prompt)
	var raw string
	err := t.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = t.generator.Generate(ctx, wrapped)
		return err
	})
	if err != nil {
		return record, err
	}

	text := StripEcho(strings.TrimSpace(raw), prompt)
	text = TrimToWords(text, t.wordBudget)
	t.logger.Debug("generated", "backend", t.generator.Name(), "words", len(strings.Fields(text)))

	if err := record.Set(core.FieldText, text); err != nil {
		return record, err
	}
	return record, nil
}

// Fail stores the diagnostic for err in "text".
func (t *Transform) Fail(record core.Record, err error) core.Record {
	if setErr := record.Set(core.FieldText, core.Diagnostic(err)); setErr != nil {
		t.logger.Error("cannot record failure", "err", setErr)
	}
	return record
}
