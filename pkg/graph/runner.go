package graph

import (
	"context"
	"fmt"

	"kbuilder/pkg/model"
	"kbuilder/pkg/taskctx"
)

// ProgressCallback is called when a stage starts and when it finishes
type ProgressCallback func(stage string, status string, finished bool)

// Runner executes the stages of a graph one after another
type Runner struct {
	order    []Stage
	progress ProgressCallback
}

// NewRunner orders the stages of graph once; the order is fixed for every
// later execution
func NewRunner(graph *Graph) (*Runner, error) {
	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("failed to sort stages: %w", err)
	}
	return &Runner{order: order}, nil
}

// SetProgressCallback registers a callback notified around every stage
func (r *Runner) SetProgressCallback(callback ProgressCallback) {
	r.progress = callback
}

// Stages returns the stages in execution order
func (r *Runner) Stages() []Stage {
	return r.order
}

// StageNames returns the stage names in execution order
func (r *Runner) StageNames() []string {
	names := make([]string, len(r.order))
	for i, stage := range r.order {
		names[i] = stage.Name()
	}
	return names
}

// Execute runs every stage in order, threading the task from each stage to
// the next. Execution stops at the first failing stage, whose error is
// returned unchanged. Cancellation is only observed between stages.
func (r *Runner) Execute(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	current := task
	for _, stage := range r.order {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		r.notify(stage.Name(), "running", false)

		next, err := taskctx.Stage(tc, stage.Name(), func() (model.CompilationTask, error) {
			return stage.Run(ctx, tc, current)
		})
		if err != nil {
			r.notify(stage.Name(), "failed", true)
			return current, err
		}
		current = next

		r.notify(stage.Name(), "completed", true)
	}
	return current, nil
}

func (r *Runner) notify(stage, status string, finished bool) {
	if r.progress != nil {
		r.progress(stage, status, finished)
	}
}
