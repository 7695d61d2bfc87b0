package batch

import (
	"log/slog"
	"time"
)

// Stats summarizes a run. Counters cover only records processed by this
// invocation; Resumed counts records carried over from an earlier one.
type Stats struct {
	Total            int
	Resumed          int
	Succeeded        int
	Failed           int
	Skipped          int
	CheckpointErrors int
	Elapsed          time.Duration
}

// Processed returns the number of records committed by this invocation.
func (s *Stats) Processed() int {
	return s.Succeeded + s.Failed + s.Skipped
}

// LogValue implements slog.LogValuer for structured logging.
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("resumed", s.Resumed),
		slog.Int("succeeded", s.Succeeded),
		slog.Int("failed", s.Failed),
		slog.Int("skipped", s.Skipped),
		slog.Int("checkpoint_errors", s.CheckpointErrors),
		slog.Duration("elapsed", s.Elapsed),
	)
}
