// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Section structure, the atomic unit of work within
// a Plan. A section names the agent type that produces its text, the
// sections whose output it needs as context, and its failure policy.
package model

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Section is the format-agnostic representation of a `section` block.
type Section struct {
	// AgentType names the registered agent module that generates this
	// section's text (the first block label).
	AgentType string
	// Name uniquely identifies the section within the plan (the second
	// block label) and is the key in the engine's result map.
	Name string
	// DependsOn lists the names of sections whose output is excerpted
	// into this section's context.
	DependsOn []string
	// Retry is the resolved failure policy for this section.
	Retry RetryConfig
	// ExecutionTimeout bounds each individual generation attempt.
	ExecutionTimeout time.Duration
	// Arguments is the raw body of the `arguments` block, decoded later
	// by the owning agent module. Nil when the block is absent.
	Arguments hcl.Body
	// SourceFile records where the section was declared, for error
	// messages and deterministic ordering diagnostics.
	SourceFile string
}

// hclSection represents a single 'section' block for initial decoding.
type hclSection struct {
	AgentType string        `hcl:"type,label"`
	Name      string        `hcl:"name,label"`
	DependsOn []string      `hcl:"depends_on,optional"`
	Retry     *hclRetry     `hcl:"retry,block"`
	Timeouts  *hclTimeouts  `hcl:"timeouts,block"`
	Arguments *hclArguments `hcl:"arguments,block"`
}

// hclArguments captures the arguments block body without interpreting it.
type hclArguments struct {
	Body hcl.Body `hcl:",remain"`
}

// hclTimeouts mirrors the `timeouts` block. Durations arrive as strings
// ("120s") and are parsed during translation.
type hclTimeouts struct {
	Execution *string `hcl:"execution,optional"`
}

// DefaultExecutionTimeout bounds a single generation attempt when the plan
// does not override it. LLM calls are slow; two minutes is generous
// without letting a hung call stall the stage forever.
const DefaultExecutionTimeout = 120 * time.Second

// newSectionFromHCL translates a decoded section block into the model,
// applying defaults and parsing durations.
func newSectionFromHCL(parsed *hclSection, filePath string) (*Section, error) {
	if parsed.Name == "" {
		return nil, fmt.Errorf("section of type %q is missing a name label", parsed.AgentType)
	}

	section := &Section{
		AgentType:        parsed.AgentType,
		Name:             parsed.Name,
		DependsOn:        parsed.DependsOn,
		ExecutionTimeout: DefaultExecutionTimeout,
		SourceFile:       filePath,
	}

	retry, err := newRetryFromHCL(parsed.Retry)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", parsed.Name, err)
	}
	section.Retry = retry

	if parsed.Timeouts != nil && parsed.Timeouts.Execution != nil {
		d, err := parseDuration("timeouts.execution", *parsed.Timeouts.Execution)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", parsed.Name, err)
		}
		section.ExecutionTimeout = d
	}

	if parsed.Arguments != nil {
		section.Arguments = parsed.Arguments.Body
	}

	return section, nil
}

// parseDuration parses a positive duration attribute.
func parseDuration(attr, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", attr, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", attr, value)
	}
	return d, nil
}
