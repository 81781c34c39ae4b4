package graph

import (
	"context"

	"kbuilder/pkg/model"
	"kbuilder/pkg/taskctx"
)

// Stage represents one step of the compilation pipeline
type Stage interface {
	// Name returns a unique identifier for this stage, also used as its
	// tracing name
	Name() string

	// DependsOn returns the names of the stages that must complete before this
	// stage can run
	DependsOn() []string

	// Run executes the stage. It receives the task produced by the previous
	// stage and returns the task the next stage should see; stages that do
	// not change the task return it unchanged.
	Run(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error)
}

// StageFunc is the body of a stage created with NewStage
type StageFunc func(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error)

type funcStage struct {
	name      string
	dependsOn []string
	run       StageFunc
}

// NewStage creates a stage from a function
func NewStage(name string, dependsOn []string, run StageFunc) Stage {
	return &funcStage{
		name:      name,
		dependsOn: dependsOn,
		run:       run,
	}
}

func (s *funcStage) Name() string {
	return s.name
}

func (s *funcStage) DependsOn() []string {
	return s.dependsOn
}

func (s *funcStage) Run(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	return s.run(ctx, tc, task)
}
