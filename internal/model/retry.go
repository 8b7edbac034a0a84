// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the models for the per-section retry and backoff
// strategy. Consolidating the failure policy into dedicated structs gives
// the execution engine a structured representation of the user's intent
// instead of loose key-value attributes.
package model

import (
	"fmt"
	"time"
)

// RetryConfig is the resolved failure policy for one section.
type RetryConfig struct {
	// Attempts is the total number of invocations allowed, including the
	// first.
	Attempts int
	// BackoffInitial is the delay after the first failed attempt.
	BackoffInitial time.Duration
	// BackoffMax caps the exponentially growing delay.
	BackoffMax time.Duration
	// BackoffJitter spreads delays by a uniform ± fraction; 0 disables
	// jitter.
	BackoffJitter float64
}

// Retry defaults, matching the engine contract for slow LLM backends.
const (
	DefaultAttempts       = 3
	DefaultBackoffInitial = 2 * time.Second
	DefaultBackoffMax     = 30 * time.Second
)

// hclRetry mirrors the `retry` block.
type hclRetry struct {
	Attempts *int        `hcl:"attempts,optional"`
	Backoff  *hclBackoff `hcl:"backoff,block"`
}

// hclBackoff mirrors the nested `backoff` block.
type hclBackoff struct {
	Initial *string  `hcl:"initial,optional"`
	Max     *string  `hcl:"max,optional"`
	Jitter  *float64 `hcl:"jitter,optional"`
}

// newRetryFromHCL resolves a retry block (which may be nil) against the
// defaults.
func newRetryFromHCL(parsed *hclRetry) (RetryConfig, error) {
	cfg := RetryConfig{
		Attempts:       DefaultAttempts,
		BackoffInitial: DefaultBackoffInitial,
		BackoffMax:     DefaultBackoffMax,
	}
	if parsed == nil {
		return cfg, nil
	}

	if parsed.Attempts != nil {
		if *parsed.Attempts < 1 {
			return cfg, fmt.Errorf("retry.attempts must be at least 1, got %d", *parsed.Attempts)
		}
		cfg.Attempts = *parsed.Attempts
	}

	if parsed.Backoff != nil {
		if parsed.Backoff.Initial != nil {
			d, err := parseDuration("retry.backoff.initial", *parsed.Backoff.Initial)
			if err != nil {
				return cfg, err
			}
			cfg.BackoffInitial = d
		}
		if parsed.Backoff.Max != nil {
			d, err := parseDuration("retry.backoff.max", *parsed.Backoff.Max)
			if err != nil {
				return cfg, err
			}
			cfg.BackoffMax = d
		}
		if parsed.Backoff.Jitter != nil {
			if *parsed.Backoff.Jitter < 0 || *parsed.Backoff.Jitter >= 1 {
				return cfg, fmt.Errorf("retry.backoff.jitter must be in [0, 1), got %v", *parsed.Backoff.Jitter)
			}
			cfg.BackoffJitter = *parsed.Backoff.Jitter
		}
		if cfg.BackoffMax < cfg.BackoffInitial {
			return cfg, fmt.Errorf("retry.backoff.max (%s) must not be below retry.backoff.initial (%s)",
				cfg.BackoffMax, cfg.BackoffInitial)
		}
	}

	return cfg, nil
}
