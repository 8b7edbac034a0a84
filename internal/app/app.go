package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/llm"
	"github.com/vk/draftgrid/internal/model"
	"github.com/vk/draftgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	plan     *model.Plan
	promReg  *prometheus.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup problems (unreadable plan, unknown agent types) are programmer or
// configuration errors, so it panics; the entrypoint recovers.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	plan, err := model.LoadPlansRecursively(ctx, cfg.PlanPath)
	if err != nil {
		// A failure to load the plan is a fatal startup error.
		panic(fmt.Errorf("failed to load plan: %w", err))
	}
	logger.Debug("Plan loaded.", "sections", len(plan.Sections))

	if len(modules) == 0 {
		modules = coreModules(newLLMClient(cfg, logger))
	}

	reg := registry.New()
	for _, mod := range modules {
		mod.Register(ctx, reg)
	}
	logger.Debug("All agent modules registered.", "count", len(modules))

	if err := reg.Validate(plan); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		plan:     plan,
		promReg:  prometheus.NewRegistry(),
	}
}

// newLLMClient builds the shared completion client, or nil when no endpoint
// is configured.
func newLLMClient(cfg *Config, logger *slog.Logger) *llm.Client {
	if cfg.LLMBaseURL == "" {
		logger.Debug("No LLM endpoint configured, llm_section agent disabled.")
		return nil
	}

	client, err := llm.NewClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		APIKey:  cfg.LLMAPIKey,
	})
	if err != nil {
		panic(fmt.Errorf("failed to configure LLM client: %w", err))
	}
	return client
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Plan returns the loaded plan. This is primarily for testing.
func (a *App) Plan() *model.Plan {
	return a.plan
}
