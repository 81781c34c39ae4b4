// Package jvm runs the compilation pipeline of a mixed Kotlin and Java
// target: directory preparation, source jar expansion, annotation
// processing, compilation, packaging and the dependency report.
package jvm

import (
	"context"

	"kbuilder/pkg/compiler"
	"kbuilder/pkg/graph"
	"kbuilder/pkg/jdeps"
	"kbuilder/pkg/kotlin"
	"kbuilder/pkg/model"
	"kbuilder/pkg/taskctx"
)

// Options configures a TaskExecutor
type Options struct {
	// JavacOptions are passed to every Java compilation
	JavacOptions []string
	// KaptPlugin is the kapt plugin jar used when a task names none
	KaptPlugin string
	// DefaultRuleKind is recorded in jars of tasks without a rule kind
	DefaultRuleKind string
	// JDepsWorkers bounds the parallelism of dependency analysis
	JDepsWorkers int
}

// TaskExecutor runs the stages of a compilation in a fixed order
type TaskExecutor struct {
	kotlinc         compiler.Compiler
	javac           compiler.Compiler
	kapt            kotlin.KaptEncoder
	javacOptions    []string
	defaultRuleKind string
	jdeps           *jdeps.Generator
	runner          *graph.Runner
}

// NewTaskExecutor creates an executor using the given compilers
func NewTaskExecutor(kotlinc, javac compiler.Compiler, opts Options) (*TaskExecutor, error) {
	e := &TaskExecutor{
		kotlinc:         kotlinc,
		javac:           javac,
		kapt:            kotlin.KaptEncoder{DefaultPlugin: opts.KaptPlugin},
		javacOptions:    opts.JavacOptions,
		defaultRuleKind: opts.DefaultRuleKind,
		jdeps:           jdeps.NewGenerator(opts.JDepsWorkers),
	}

	g := graph.NewGraph()
	stages := []graph.Stage{
		graph.NewStage(StagePrepare, nil, e.prepareDirectories),
		graph.NewStage(StageExpand, []string{StagePrepare}, e.expandSourceJars),
		graph.NewStage(StageKapt, []string{StageExpand}, e.runAnnotationProcessors),
		graph.NewStage(StageCompile, []string{StageKapt}, e.compileClasses),
		graph.NewStage(StageJar, []string{StageCompile}, e.createJar),
		graph.NewStage(StageSourceJar, []string{StageJar}, e.produceSourceJar),
		graph.NewStage(StageJDeps, []string{StageSourceJar}, e.generateJDeps),
	}
	for _, stage := range stages {
		if err := g.AddStage(stage); err != nil {
			return nil, err
		}
	}

	runner, err := graph.NewRunner(g)
	if err != nil {
		return nil, err
	}
	e.runner = runner
	return e, nil
}

// StageNames returns the stages in execution order
func (e *TaskExecutor) StageNames() []string {
	return e.runner.StageNames()
}

// PlanHash fingerprints task together with the executor's stages
func (e *TaskExecutor) PlanHash(task model.CompilationTask) string {
	return graph.ComputePlanHash(task, e.runner.Stages())
}

// Execute runs every stage on task and returns the final task
func (e *TaskExecutor) Execute(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	tc.WhenTracing(func() {
		tc.Logger().Debug("executing task",
			"plan", e.PlanHash(task),
			"kotlin", len(task.Inputs.KotlinSources),
			"java", len(task.Inputs.JavaSources),
			"source_jars", len(task.Inputs.SourceJars))
	})
	return e.runner.Execute(ctx, tc, task)
}
