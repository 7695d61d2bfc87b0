package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/enrich/batch"
	"github.com/poiesic/enrich/core"
	"github.com/poiesic/enrich/search"
	"github.com/poiesic/enrich/textproc"
)

// ErrSegmenterRequired is returned when WithSegmenter is given nil.
var ErrSegmenterRequired = errors.New("segmenter required")

// Transform implements batch.Transform for retrieval mode.
type Transform struct {
	backend    search.Backend
	normalizer textproc.Normalizer
	segmenter  textproc.Segmenter
	policy     batch.CallPolicy
	topK       int
	index      string
	monitor    search.Monitor
	logger     *slog.Logger
}

var _ batch.Transform = (*Transform)(nil)

// Option configures a Transform.
type Option func(*Transform) error

// WithTopK sets the number of documents requested per sentence. Default 100.
func WithTopK(k int) Option {
	return func(t *Transform) error {
		if k < 0 {
			return fmt.Errorf("%w: %d", search.ErrInvalidTopK, k)
		}
		t.topK = k
		return nil
	}
}

// WithIndex sets the index searched. Empty searches the backend's default scope.
func WithIndex(index string) Option {
	return func(t *Transform) error {
		t.index = index
		return nil
	}
}

// WithCallPolicy sets the timeout and retry policy for each query.
func WithCallPolicy(p batch.CallPolicy) Option {
	return func(t *Transform) error {
		t.policy = p
		return nil
	}
}

// WithNormalizer replaces the default ASCII transliteration.
func WithNormalizer(n textproc.Normalizer) Option {
	return func(t *Transform) error {
		if n != nil {
			t.normalizer = n
		}
		return nil
	}
}

// WithSegmenter replaces the default punkt sentence segmenter.
func WithSegmenter(s textproc.Segmenter) Option {
	return func(t *Transform) error {
		if s == nil {
			return ErrSegmenterRequired
		}
		t.segmenter = s
		return nil
	}
}

// WithMonitor observes every query.
func WithMonitor(m search.Monitor) Option {
	return func(t *Transform) error {
		if m != nil {
			t.monitor = m
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transform) error {
		if logger != nil {
			t.logger = logger
		}
		return nil
	}
}

// NewTransform creates a retrieval transform querying backend.
func NewTransform(backend search.Backend, opts ...Option) (*Transform, error) {
	if backend == nil {
		return nil, search.ErrBackendRequired
	}
	t := &Transform{
		backend:    backend,
		normalizer: textproc.Unidecode{},
		policy:     batch.DefaultCallPolicy(),
		topK:       100,
		monitor:    search.NoopMonitor(),
		logger:     slog.Default().With("component", "retrieve"),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.segmenter == nil {
		seg, err := textproc.NewPunktSegmenter()
		if err != nil {
			return nil, fmt.Errorf("loading sentence model: %w", err)
		}
		t.segmenter = seg
	}
	return t, nil
}

func (t *Transform) Name() string          { return "retrieve" }
func (t *Transform) RequiredField() string { return core.FieldText }

// Apply queries the backend once per sentence of the record's text and
// stores the results in "retrieval_details". A failed query drops its
// sentence from the details; it does not fail the record.
func (t *Transform) Apply(ctx context.Context, record core.Record) (core.Record, error) {
	text, ok := record.String(core.FieldText)
	if !ok {
		return record, fmt.Errorf("%w: %q is not a string", core.ErrInvalidRecord, core.FieldText)
	}

	segments := t.segmenter.Segment(t.normalizer.Normalize(text))
	details := make([]core.DocDetail, 0, len(segments))
	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return record, err
		}
		detail, err := t.query(ctx, segment)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return record, ctxErr
			}
			t.logger.Warn("search failed, skipping sentence",
				"backend", t.backend.Name(), "sentence", i, "err", err)
			continue
		}
		details = append(details, detail)
	}

	if err := record.Set(core.FieldRetrievalDetails, details); err != nil {
		return record, err
	}
	return record, nil
}

func (t *Transform) query(ctx context.Context, segment string) (core.DocDetail, error) {
	t.monitor.Start(segment)
	begin := time.Now()

	var hits []search.Hit
	err := t.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		hits, err = t.backend.Search(ctx, segment, t.topK, t.index)
		return err
	})
	elapsed := time.Since(begin)
	if err != nil {
		t.monitor.Fail(segment, err, elapsed)
		return core.DocDetail{}, err
	}

	if len(hits) > t.topK {
		hits = hits[:t.topK]
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	t.monitor.Finish(segment, len(hits), elapsed)
	return core.DocDetail{
		Query:            segment,
		TopDocs:          hits,
		RetrievalRuntime: elapsed.Seconds(),
	}, nil
}

// Fail stores an empty "retrieval_details" and the diagnostic for err in
// "retrieval_error".
func (t *Transform) Fail(record core.Record, err error) core.Record {
	if setErr := record.Set(core.FieldRetrievalDetails, []core.DocDetail{}); setErr != nil {
		t.logger.Error("cannot record failure", "err", setErr)
		return record
	}
	if setErr := record.Set(core.FieldRetrievalError, core.Diagnostic(err)); setErr != nil {
		t.logger.Error("cannot record failure", "err", setErr)
	}
	return record
}
