// Package retry implements the failure policy for section agents: an error
// taxonomy, an exponential backoff policy, and a per-attempt-timeout retry
// loop. The engine wraps every agent invocation in Do; agents themselves
// never loop.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/draftgrid/internal/ctxlog"
)

// Func is one attempt of a unit of work producing text output.
type Func func(ctx context.Context) (string, error)

// Config bounds the retry loop for one task.
type Config struct {
	// MaxAttempts is the total number of invocations allowed, including
	// the first. Values below 1 are treated as 1.
	MaxAttempts int

	// Timeout bounds each individual attempt. Zero means no per-attempt
	// timeout.
	Timeout time.Duration

	// Policy supplies the retry decision and backoff delays.
	Policy Policy

	// OnRetry, when set, is invoked after a failed attempt that will be
	// retried, before the backoff sleep. attempt is the number of the
	// attempt that just failed, counting from 1.
	OnRetry func(attempt int, err error)
}

// Do invokes fn up to cfg.MaxAttempts times, sleeping the policy's backoff
// between attempts. It returns the first successful output, the number of
// attempts consumed, and the last error when all attempts fail.
//
// An attempt that exceeds cfg.Timeout counts as a transient failure. If the
// parent context is cancelled, the current attempt's error is returned
// without further retries; the backoff sleep is likewise interruptible.
// Fatal errors short-circuit the loop but still count as an attempt.
func Do(ctx context.Context, cfg Config, fn Func) (string, int, error) {
	logger := ctxlog.FromContext(ctx)

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		output, err := runAttempt(ctx, cfg.Timeout, fn)
		if err == nil {
			return output, attempt, nil
		}
		lastErr = err

		if err := ctx.Err(); err != nil {
			// The run is being cancelled; the attempt was allowed to
			// finish, but there is no point in another one.
			return "", attempt, err
		}

		if attempt == maxAttempts || !cfg.Policy.ShouldRetry(err, attempt) {
			return "", attempt, lastErr
		}

		delay := cfg.Policy.Backoff(attempt)
		logger.Warn("Attempt failed, backing off before retry.",
			"attempt", attempt, "max_attempts", maxAttempts, "backoff", delay, "error", err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return "", attempt, ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", maxAttempts, lastErr
}

// runAttempt executes fn once under the per-attempt timeout, converting a
// deadline expiry into a transient error.
func runAttempt(ctx context.Context, timeout time.Duration, fn Func) (string, error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := fn(attemptCtx)
	if err == nil {
		return output, nil
	}

	// Distinguish the attempt deadline from parent cancellation: only the
	// former is worth retrying.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", NewTransientError(fmt.Errorf("attempt timed out after %s: %w", timeout, err))
	}

	return "", err
}
