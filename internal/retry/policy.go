package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Policy decides whether a failed attempt is retried and how long to wait
// before the next one. Delays grow exponentially from Initial up to Max.
type Policy struct {
	// Initial is the delay after the first failed attempt.
	Initial time.Duration

	// Max caps the delay regardless of attempt number.
	Max time.Duration

	// Multiplier is applied to the delay on each subsequent attempt.
	Multiplier float64

	// Jitter, when non-zero, spreads each delay by a uniform ±Jitter
	// fraction to avoid synchronized retries when many sections fail at
	// once. The default is 0, which keeps Backoff a pure function of the
	// attempt number.
	Jitter float64
}

// DefaultPolicy returns the retry defaults used for section agents: LLM
// calls fail transiently often enough that a couple of spaced retries
// recover most runs.
func DefaultPolicy() Policy {
	return Policy{
		Initial:    2 * time.Second,
		Max:        30 * time.Second,
		Multiplier: 2.0,
	}
}

// Backoff returns the delay to sleep after the given failed attempt
// (counting from 1): min(Initial * Multiplier^(attempt-1), Max), spread by
// Jitter when configured.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= p.Multiplier
	}

	delay := time.Duration(float64(p.Initial) * multiplier)
	if delay > p.Max || delay < 0 {
		delay = p.Max
	}

	if p.Jitter > 0 {
		spread := float64(delay) * p.Jitter * (rand.Float64()*2 - 1)
		delay += time.Duration(spread)
	}

	return delay
}

// ShouldRetry reports whether a failed attempt should be tried again.
// Fatal errors and parent-context cancellation are never retried; anything
// else, including unclassified errors, is treated as transient. The attempt
// budget itself is enforced by Do.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
