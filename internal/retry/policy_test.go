package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsExponentiallyUpToCap(t *testing.T) {
	p := Policy{Initial: 2 * time.Second, Max: 30 * time.Second, Multiplier: 2.0}

	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 8*time.Second, p.Backoff(3))
	assert.Equal(t, 16*time.Second, p.Backoff(4))
	assert.Equal(t, 30*time.Second, p.Backoff(5))
	assert.Equal(t, 30*time.Second, p.Backoff(6))
}

func TestBackoffIsPureWithoutJitter(t *testing.T) {
	p := DefaultPolicy()
	for attempt := 1; attempt <= 8; attempt++ {
		first := p.Backoff(attempt)
		second := p.Backoff(attempt)
		require.Equal(t, first, second, "attempt %d", attempt)
	}
}

func TestBackoffClampsInvalidAttempt(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, p.Backoff(1), p.Backoff(0))
	assert.Equal(t, p.Backoff(1), p.Backoff(-3))
}

func TestBackoffJitterStaysWithinSpread(t *testing.T) {
	p := Policy{Initial: 2 * time.Second, Max: 30 * time.Second, Multiplier: 2.0, Jitter: 0.2}

	for i := 0; i < 100; i++ {
		d := p.Backoff(2)
		assert.GreaterOrEqual(t, d, time.Duration(float64(4*time.Second)*0.8))
		assert.LessOrEqual(t, d, time.Duration(float64(4*time.Second)*1.2))
	}
}

func TestShouldRetryClassification(t *testing.T) {
	p := DefaultPolicy()

	assert.False(t, p.ShouldRetry(nil, 1))
	assert.False(t, p.ShouldRetry(NewFatalError(errors.New("bad input")), 1))
	assert.False(t, p.ShouldRetry(context.Canceled, 1))
	assert.True(t, p.ShouldRetry(NewTransientError(errors.New("rate limited")), 1))
	// Unclassified errors default to retryable.
	assert.True(t, p.ShouldRetry(errors.New("connection reset"), 1))
}

func TestErrorWrappersUnwrap(t *testing.T) {
	base := errors.New("boom")

	transient := NewTransientError(base)
	require.True(t, IsTransient(transient))
	assert.False(t, IsFatal(transient))
	assert.ErrorIs(t, transient, base)

	fatal := NewFatalError(base)
	require.True(t, IsFatal(fatal))
	assert.False(t, IsTransient(fatal))
	assert.ErrorIs(t, fatal, base)
}
