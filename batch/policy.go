package batch

import (
	"context"
	"time"
)

// CallPolicy governs a single backend call: an optional timeout per attempt
// and retry with exponential backoff.
type CallPolicy struct {
	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration
	// MaxAttempts is the number of tries. Values below 1 mean one try.
	MaxAttempts int
	// RetryDelay is the delay before the second attempt; it doubles after that.
	RetryDelay time.Duration
}

// DefaultCallPolicy makes one attempt with no timeout.
func DefaultCallPolicy() CallPolicy {
	return CallPolicy{MaxAttempts: 1}
}

// Do runs op under the policy. op receives a context carrying the
// per-attempt deadline.
func (p CallPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return RetryWithBackoff(ctx, func() error {
		if p.Timeout <= 0 {
			return op(ctx)
		}
		callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()
		return op(callCtx)
	}, attempts, p.RetryDelay)
}
