package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/engine"
	"github.com/vk/draftgrid/internal/export"
	"github.com/vk/draftgrid/internal/metrics"
	"github.com/vk/draftgrid/internal/progress"
	"github.com/vk/draftgrid/internal/retry"
	"github.com/vk/draftgrid/modules/socketio"
)

// Run executes the loaded plan end to end: derive stages, run every section,
// assemble and write the document.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	telemetry := a.startTelemetryServer(ctx)
	defer telemetry.close(ctx)

	if len(a.plan.Sections) == 0 {
		a.logger.Warn("Plan contains no sections, nothing to generate.")
	}

	specs, err := a.buildSpecs()
	if err != nil {
		return fmt.Errorf("failed to prepare sections: %w", err)
	}

	eng := &engine.Engine{
		MaxParallel:  a.config.MaxParallel,
		ExcerptLimit: a.plan.Document.ExcerptLimit,
	}
	run, err := eng.NewRun(specs)
	if err != nil {
		return fmt.Errorf("failed to derive stages: %w", err)
	}

	run.Collector().SetObserver(metrics.NewPromExporter(a.promReg))
	run.Tracker().RegisterCallback(progress.NewConsoleCallback(a.logger))
	if a.config.ProgressURL != "" {
		emitter, err := socketio.NewEmitter(ctx, a.config.ProgressURL, "/")
		if err != nil {
			a.logger.Warn("Progress streaming disabled", "error", err)
		} else {
			run.Tracker().RegisterCallback(emitter.Callback())
			defer emitter.Close()
		}
	}

	a.logger.Info("🚀 Starting staged execution...",
		"sections", len(specs), "stages", len(run.Stages()))
	results, summary, execErr := run.Execute(ctx)
	a.logger.Info("🏁 Execution finished.")

	outputPath := a.config.OutputPath
	if outputPath == "" {
		outputPath = a.plan.Document.Output
	}
	if err := export.WriteFile(ctx, outputPath, export.Markdown(a.plan, results)); err != nil {
		return err
	}

	a.logger.Info("📊 Run summary",
		"run_id", summary.RunID,
		"sections", summary.TotalTasks,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"retries", summary.TotalRetries,
		"duration", summary.TotalDuration,
		"success_rate", summary.SuccessRate)

	a.logger.Debug("App.Run method finished.")
	if execErr != nil {
		return fmt.Errorf("execution interrupted: %w", execErr)
	}
	return nil
}

// buildSpecs turns plan sections into engine task specs, decoding each
// section's arguments into the agent's input struct up front so a malformed
// plan fails before anything runs.
func (a *App) buildSpecs() ([]*engine.TaskSpec, error) {
	evalCtx := planEvalContext()
	specs := make([]*engine.TaskSpec, 0, len(a.plan.Sections))
	for _, s := range a.plan.Sections {
		agent, err := a.registry.Agent(s.AgentType)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Name, err)
		}

		input := agent.NewInput()
		body := s.Arguments
		if body == nil {
			body = hcl.EmptyBody()
		}
		if diags := gohcl.DecodeBody(body, evalCtx, input); diags.HasErrors() {
			return nil, fmt.Errorf("section %q: decode arguments: %s", s.Name, diags.Error())
		}

		fn := agent.Fn
		specs = append(specs, &engine.TaskSpec{
			Name:        s.Name,
			Agent:       s.AgentType,
			DependsOn:   s.DependsOn,
			MaxAttempts: s.Retry.Attempts,
			Timeout:     s.ExecutionTimeout,
			Policy: retry.Policy{
				Initial:    s.Retry.BackoffInitial,
				Max:        s.Retry.BackoffMax,
				Multiplier: retry.DefaultPolicy().Multiplier,
				Jitter:     s.Retry.BackoffJitter,
			},
			Fn: func(ctx context.Context, sectionCtx *string) (string, error) {
				return fn(ctx, input, sectionCtx)
			},
		})
	}
	return specs, nil
}

// planEvalContext exposes process environment variables to arguments
// expressions as env.<NAME>.
func planEvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}
