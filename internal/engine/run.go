package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/metrics"
	"github.com/vk/draftgrid/internal/progress"
	"github.com/vk/draftgrid/internal/retry"
)

// Engine holds the immutable execution configuration. One Engine can serve
// many runs; all per-run state lives on the Run it creates.
type Engine struct {
	// MaxParallel caps concurrently running tasks within a stage. Zero or
	// negative means unbounded.
	MaxParallel int

	// ExcerptLimit caps each dependency excerpt passed to downstream
	// tasks, in characters.
	ExcerptLimit int
}

// Run is one execution of a set of task specs. It owns the results, the
// metrics collector and the progress tracker for that execution.
type Run struct {
	ID     string
	engine *Engine
	specs  []*TaskSpec
	byName map[string]*TaskSpec
	stages []Stage

	collector *metrics.Collector
	tracker   *progress.Tracker

	mu      sync.Mutex
	results map[string]TaskResult
}

// NewRun derives the stage layout for the specs and prepares a run. It fails
// when the specs reference unknown tasks or form a cycle.
func (e *Engine) NewRun(specs []*TaskSpec) (*Run, error) {
	stages, err := PlanStages(specs)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*TaskSpec, len(specs))
	results := make(map[string]TaskResult, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
		results[s.Name] = TaskResult{Status: StatusPending}
	}

	return &Run{
		ID:        uuid.NewString(),
		engine:    e,
		specs:     specs,
		byName:    byName,
		stages:    stages,
		collector: metrics.NewCollector(),
		tracker:   progress.NewTracker(),
		results:   results,
	}, nil
}

// NewRunWithStages prepares a run using a caller-supplied stage layout
// instead of deriving one, after validating it against the specs.
func (e *Engine) NewRunWithStages(specs []*TaskSpec, stages []Stage) (*Run, error) {
	if err := ValidateStages(specs, stages); err != nil {
		return nil, err
	}

	run, err := e.NewRun(specs)
	if err != nil {
		return nil, err
	}
	run.stages = stages
	return run, nil
}

// Stages exposes the derived layout, one slice of task names per stage.
func (r *Run) Stages() []Stage {
	return r.stages
}

// Tracker gives callers a place to attach progress callbacks before Execute.
func (r *Run) Tracker() *progress.Tracker {
	return r.tracker
}

// Collector exposes the run's metrics collector, e.g. to attach an observer.
func (r *Run) Collector() *metrics.Collector {
	return r.collector
}

// Execute runs every stage in order. Within a stage tasks run concurrently,
// bounded by the engine's MaxParallel; a stage with a single task runs it on
// the calling goroutine. A failed task never aborts the run. When ctx is
// cancelled the current stage drains, every task that has not started is
// marked cancelled, and ctx's error is returned alongside the partial
// results.
func (r *Run) Execute(ctx context.Context) (map[string]TaskResult, metrics.Summary, error) {
	ctx = ctxlog.With(ctx, slog.String("run_id", r.ID))
	logger := ctxlog.FromContext(ctx)

	r.collector.Start(r.ID)
	r.tracker.Start(len(r.specs))
	logger.Info("▶️ Run starting",
		slog.Int("tasks", len(r.specs)), slog.Int("stages", len(r.stages)))

	var runErr error
	for i, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		started := time.Now()
		logger.Info("▶️ Stage starting",
			slog.Int("stage", i+1), slog.Int("of", len(r.stages)), slog.Int("tasks", len(stage)))

		if len(stage) == 1 {
			r.runTask(ctx, stage[0])
		} else {
			r.runStageConcurrently(ctx, stage)
		}

		logger.Info("✅ Stage complete",
			slog.Int("stage", i+1), slog.Duration("duration", time.Since(started)))
	}

	// A cancel that lands during the final stage never reaches the
	// per-stage check above, so pick it up here.
	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		r.cancelPending()
	}
	r.collector.End()
	logger.Info("🏁 Run finished")
	return r.Results(), r.collector.Summary(), runErr
}

func (r *Run) runStageConcurrently(ctx context.Context, stage Stage) {
	var sem chan struct{}
	if r.engine.MaxParallel > 0 {
		sem = make(chan struct{}, r.engine.MaxParallel)
	}

	var wg sync.WaitGroup
	for _, name := range stage {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			r.runTask(ctx, name)
		}(name)
	}
	wg.Wait()
}

func (r *Run) runTask(ctx context.Context, name string) {
	spec := r.byName[name]
	ctx = ctxlog.With(ctx, slog.String("task", name), slog.String("agent", spec.Agent))
	logger := ctxlog.FromContext(ctx)

	sectionCtx := r.dependencyContext(spec)

	r.update(name, func(res *TaskResult) {
		res.Status = StatusRunning
		res.Attempts = 1
		res.StartedAt = time.Now()
	})
	r.tracker.StepStart(name)
	r.collector.RecordStart(name)
	logger.Debug("Task starting", slog.Int("dependencies", len(spec.DependsOn)))

	cfg := retry.Config{
		MaxAttempts: spec.MaxAttempts,
		Timeout:     spec.Timeout,
		Policy:      spec.Policy,
		OnRetry: func(attempt int, err error) {
			r.tracker.StepRetry(name, attempt)
			r.collector.RecordRetry(name)
			r.update(name, func(res *TaskResult) {
				res.Status = StatusRetrying
				res.Attempts = attempt + 1
			})
		},
	}

	output, attempts, err := retry.Do(ctx, cfg, func(ctx context.Context) (string, error) {
		return spec.Fn(ctx, sectionCtx)
	})

	ended := time.Now()
	switch {
	case err == nil:
		r.update(name, func(res *TaskResult) {
			res.Status = StatusSucceeded
			res.Attempts = attempts
			res.Output = output
			res.EndedAt = ended
		})
		r.collector.RecordEnd(name, len(output))
		r.tracker.StepComplete(name)
		logger.Debug("Task succeeded", slog.Int("attempts", attempts), slog.Int("output_chars", len(output)))

	case errors.Is(err, context.Canceled):
		r.update(name, func(res *TaskResult) {
			res.Status = StatusCancelled
			res.Attempts = attempts
			res.Err = err
			res.EndedAt = ended
		})
		r.collector.RecordCancelled(name, "cancelled")
		r.tracker.StepCancelled(name)

	default:
		r.update(name, func(res *TaskResult) {
			res.Status = StatusFailed
			res.Attempts = attempts
			res.Err = err
			res.EndedAt = ended
		})
		r.collector.RecordFailure(name, err.Error())
		r.tracker.StepFailed(name, err.Error())
		logger.Error("❌ Task failed", slog.Int("attempts", attempts), "error", err)
	}
}

// dependencyContext snapshots the results of the task's dependencies. All of
// them are terminal by the time this runs, stage ordering guarantees it.
func (r *Run) dependencyContext(spec *TaskSpec) *string {
	if len(spec.DependsOn) == 0 {
		return nil
	}
	text, ok := BuildContext(spec.DependsOn, r.Results(), r.engine.ExcerptLimit)
	if !ok {
		return nil
	}
	return &text
}

// cancelPending marks every task that never started as cancelled so the
// final results and metrics account for the whole plan.
func (r *Run) cancelPending() {
	r.mu.Lock()
	var pending []string
	for name, res := range r.results {
		if res.Status == StatusPending {
			pending = append(pending, name)
			res.Status = StatusCancelled
			r.results[name] = res
		}
	}
	r.mu.Unlock()

	for _, name := range pending {
		r.collector.RecordCancelled(name, "cancelled before start")
		r.tracker.StepCancelled(name)
	}
}

// Results returns a copy of the per-task results.
func (r *Run) Results() map[string]TaskResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]TaskResult, len(r.results))
	for name, res := range r.results {
		out[name] = res
	}
	return out
}

func (r *Run) update(name string, fn func(*TaskResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[name]
	fn(&res)
	r.results[name] = res
}
