package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/poiesic/enrich/core"
)

// Policy selects when results are persisted.
type Policy int

const (
	// PolicyEveryRecord persists after every committed record.
	PolicyEveryRecord Policy = iota
	// PolicyAtEnd persists only when the run finishes.
	PolicyAtEnd
)

func (p Policy) String() string {
	switch p {
	case PolicyEveryRecord:
		return "every-record"
	case PolicyAtEnd:
		return "end"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a policy name ("every-record" or "end") to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "every-record", "every", "":
		return PolicyEveryRecord, nil
	case "end", "at-end":
		return PolicyAtEnd, nil
	default:
		return 0, fmt.Errorf("unknown checkpoint policy %q", name)
	}
}

// Checkpointer applies a Policy in front of a Sink.
type Checkpointer struct {
	sink   Sink
	policy Policy
	writes atomic.Int64
	logger *slog.Logger
}

// NewCheckpointer creates a Checkpointer persisting to sink under policy.
func NewCheckpointer(sink Sink, policy Policy) *Checkpointer {
	return &Checkpointer{
		sink:   sink,
		policy: policy,
		logger: slog.Default().With("component", "checkpointer"),
	}
}

// Policy returns the configured policy.
func (c *Checkpointer) Policy() Policy {
	return c.policy
}

// Record persists results when the policy is PolicyEveryRecord.
func (c *Checkpointer) Record(ctx context.Context, results []core.Record) error {
	if c.policy != PolicyEveryRecord {
		return nil
	}
	return c.persist(ctx, results)
}

// Finish always persists results.
func (c *Checkpointer) Finish(ctx context.Context, results []core.Record) error {
	return c.persist(ctx, results)
}

// Writes returns the number of successful writes.
func (c *Checkpointer) Writes() int64 {
	return c.writes.Load()
}

func (c *Checkpointer) persist(ctx context.Context, results []core.Record) error {
	if err := c.sink.Persist(ctx, results); err != nil {
		c.logger.Debug("checkpoint write failed", "policy", c.policy, "records", len(results), "err", err)
		return err
	}
	c.writes.Add(1)
	return nil
}
