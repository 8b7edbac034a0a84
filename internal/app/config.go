package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PlanPath   string // hcl file or directory of hcl files
	OutputPath string // overrides the plan's document output when set

	LogFormat     string
	LogLevel      string
	MaxParallel   int
	TelemetryPort int
	ProgressURL   string

	// LLM endpoint settings, typically sourced from the environment.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	if cfg.MaxParallel < 0 {
		return nil, errors.New("MaxParallel cannot be negative")
	}

	return &cfg, nil
}
