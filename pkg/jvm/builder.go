package jvm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"kbuilder/pkg/compiler"
	"kbuilder/pkg/ctxlog"
	"kbuilder/pkg/model"
	"kbuilder/pkg/taskctx"
)

// ExitInternalError is returned for every failure that is not a classified
// compiler failure
const ExitInternalError = 1

// Pipeline runs the stages of one compilation
type Pipeline interface {
	Execute(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error)
}

// Builder turns a compilation task into an exit code. It holds no state
// between invocations.
type Builder struct {
	pipeline Pipeline
	out      io.Writer
	logger   *slog.Logger
	verbose  bool
}

// NewBuilder creates a builder writing compiler output to out
func NewBuilder(pipeline Pipeline, out io.Writer, logger *slog.Logger, verbose bool) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		pipeline: pipeline,
		out:      out,
		logger:   logger,
		verbose:  verbose,
	}
}

// Execute runs task and returns 0 on success, the compiler's exit code for a
// compiler failure and ExitInternalError otherwise. A panic raised by a stage
// is reported as an internal error.
func (b *Builder) Execute(ctx context.Context, task model.CompilationTask) (code int) {
	if err := task.Validate(); err != nil {
		b.logger.Error("invalid task", "label", task.Info.Label, "error", err)
		return ExitInternalError
	}

	tc := taskctx.New(task.Info.Label, b.verbose, b.out, b.logger)
	ctx = ctxlog.WithLogger(ctx, tc.Logger())

	defer func() {
		if r := recover(); r != nil {
			tc.Logger().Error("internal error", "stage", tc.CurrentStage(), "panic", fmt.Sprint(r))
			code = ExitInternalError
		}
		tc.Finish()
	}()

	_, err := b.pipeline.Execute(ctx, tc, task)
	return exitCode(tc.Logger(), err)
}

func exitCode(logger *slog.Logger, err error) int {
	if err == nil {
		return 0
	}

	var staged *compiler.StagedError
	if errors.As(err, &staged) && staged.ExitCode != 0 {
		logger.Debug("compilation failed", "stage", staged.Stage, "exit_code", staged.ExitCode)
		return staged.ExitCode
	}

	logger.Error("build failed", "error", err)
	return ExitInternalError
}
