package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/draftgrid/internal/retry"
)

// TaskFunc performs a single generation attempt for one task. The optional
// sectionCtx carries excerpts assembled from the task's succeeded
// dependencies and is nil when the task declares none.
type TaskFunc func(ctx context.Context, sectionCtx *string) (string, error)

// TaskSpec describes one schedulable unit of work.
type TaskSpec struct {
	Name        string
	Agent       string
	DependsOn   []string
	MaxAttempts int
	Timeout     time.Duration
	Policy      retry.Policy
	Fn          TaskFunc
}

// Stage is an ordered group of task names that may run concurrently because
// none of them depends on another member of the same group.
type Stage []string

// PlanStages layers the specs into stages with Kahn's algorithm: stage N
// holds every task whose dependencies all completed in stages before N. The
// output is deterministic, tasks keep the relative order they were given in.
func PlanStages(specs []*TaskSpec) ([]Stage, error) {
	known := make(map[string]*TaskSpec, len(specs))
	for _, s := range specs {
		if _, dup := known[s.Name]; dup {
			return nil, fmt.Errorf("duplicate task %q", s.Name)
		}
		known[s.Name] = s
	}
	for _, s := range specs {
		for _, dep := range s.DependsOn {
			if _, ok := known[dep]; !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", s.Name, dep)
			}
		}
	}

	placed := make(map[string]bool, len(specs))
	var stages []Stage
	for len(placed) < len(specs) {
		var stage Stage
		for _, s := range specs {
			if placed[s.Name] {
				continue
			}
			ready := true
			for _, dep := range s.DependsOn {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, s.Name)
			}
		}
		if len(stage) == 0 {
			var stuck []string
			for _, s := range specs {
				if !placed[s.Name] {
					stuck = append(stuck, s.Name)
				}
			}
			return nil, fmt.Errorf("dependency cycle among tasks: %s", strings.Join(stuck, ", "))
		}
		for _, name := range stage {
			placed[name] = true
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// ValidateStages checks an explicit stage layout against the specs: every
// task appears exactly once, and every dependency is scheduled in a strictly
// earlier stage.
func ValidateStages(specs []*TaskSpec, stages []Stage) error {
	known := make(map[string]*TaskSpec, len(specs))
	for _, s := range specs {
		known[s.Name] = s
	}

	stageOf := make(map[string]int, len(specs))
	for i, stage := range stages {
		for _, name := range stage {
			if _, ok := known[name]; !ok {
				return fmt.Errorf("stage %d schedules unknown task %q", i, name)
			}
			if prev, seen := stageOf[name]; seen {
				return fmt.Errorf("task %q scheduled in stage %d and again in stage %d", name, prev, i)
			}
			stageOf[name] = i
		}
	}
	for _, s := range specs {
		if _, ok := stageOf[s.Name]; !ok {
			return fmt.Errorf("task %q is not scheduled in any stage", s.Name)
		}
	}
	for _, s := range specs {
		for _, dep := range s.DependsOn {
			if stageOf[dep] >= stageOf[s.Name] {
				return fmt.Errorf("task %q (stage %d) depends on %q (stage %d), which does not run earlier",
					s.Name, stageOf[s.Name], dep, stageOf[dep])
			}
		}
	}
	return nil
}
