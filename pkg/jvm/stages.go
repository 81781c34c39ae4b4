package jvm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"kbuilder/pkg/archive"
	"kbuilder/pkg/compiler"
	"kbuilder/pkg/kotlin"
	"kbuilder/pkg/model"
	"kbuilder/pkg/taskctx"
)

// Stage names, also used as tracing names
const (
	StagePrepare   = "prepare directories"
	StageExpand    = "expand sources"
	StageKapt      = "kapt"
	StageCompile   = "compile classes"
	StageKotlinc   = "kotlinc"
	StageJavac     = "javac"
	StageJar       = "create jar"
	StageSourceJar = "produce src jar"
	StageJDeps     = "generate jdeps"
)

// SourceJarDir is the directory below the temp directory that source jars
// are expanded into
const SourceJarDir = "_srcjars"

func sourceJarDir(task model.CompilationTask) string {
	return filepath.Join(task.Directories.Temp, SourceJarDir)
}

// prepareDirectories creates the working directories of task and the parent
// directories of its outputs
func (e *TaskExecutor) prepareDirectories(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	dirs := []string{
		task.Directories.Temp,
		task.Directories.GeneratedSources,
		task.Directories.GeneratedClasses,
		task.Directories.Classes,
	}
	for _, output := range []string{task.Outputs.Jar, task.Outputs.SourceJar, task.Outputs.JDeps} {
		if output != "" {
			dirs = append(dirs, filepath.Dir(output))
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return task, fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	return task, nil
}

// expandSourceJars extracts the task's source jars and appends the sources
// found in them
func (e *TaskExecutor) expandSourceJars(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	if len(task.Inputs.SourceJars) == 0 {
		return task, nil
	}

	extractor := archive.NewSourceJarExtractor(sourceJarDir(task), kotlin.IsJVMSource)
	sources, err := extractor.Execute(task.Inputs.SourceJars)
	if err != nil {
		return task, err
	}

	kotlinSources, javaSources, _ := kotlin.PartitionSources(sources)
	tc.WhenTracing(func() {
		tc.Logger().Debug("expanded source jars",
			"jars", len(task.Inputs.SourceJars),
			"kotlin", len(kotlinSources),
			"java", len(javaSources))
	})
	return task.WithSources(kotlinSources, javaSources), nil
}

// runAnnotationProcessors runs kapt and appends the generated sources. A
// compilation error reported by kapt is left for the main compile to report.
func (e *TaskExecutor) runAnnotationProcessors(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	if !task.Info.Plugins.HasAnnotationProcessors() {
		return task, nil
	}

	pluginArgs, err := e.kapt.Encode(task, tc.Verbose())
	if err != nil {
		return task, err
	}

	args := kotlin.CommonArgs(task)
	args = append(args, pluginArgs...)
	args = append(args, task.Inputs.JavaSources...)
	args = append(args, task.Inputs.KotlinSources...)

	lines, err := tc.RunCompiler(ctx, args, false, e.kotlinc)
	if err != nil {
		var staged *compiler.StagedError
		if !errors.As(err, &staged) {
			return task, err
		}
		if compiler.Classify(staged.ExitCode).Terminal() {
			tc.PrintCompilerOutput(lines)
			return task, err
		}
		tc.DeferOutput(lines)
	}
	tc.TraceLines("kapt output", lines)

	generated, err := kotlin.FindFiles(task.Directories.GeneratedSources, nil)
	if err != nil {
		return task, err
	}
	kotlinSources, javaSources, other := kotlin.PartitionSources(generated)
	if len(other) > 0 {
		tc.Logger().Debug("ignoring generated files that are not sources", "count", len(other))
	}
	return task.WithSources(kotlinSources, javaSources), nil
}

// compileClasses runs the Kotlin compiler and then the Java compiler. A
// Kotlin compilation error is reported only after javac has run; a terminal
// Kotlin failure stops before javac.
func (e *TaskExecutor) compileClasses(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	if err := os.MkdirAll(task.Directories.Classes, 0755); err != nil {
		return task, fmt.Errorf("could not create classes directory %s: %w", task.Directories.Classes, err)
	}

	kotlinLines, kotlinErr := taskctx.Stage(tc, StageKotlinc, func() ([]string, error) {
		return tc.RunCompiler(ctx, kotlin.CompileArgs(task), false, e.kotlinc)
	})
	if kotlinErr != nil {
		var staged *compiler.StagedError
		if !errors.As(kotlinErr, &staged) {
			return task, kotlinErr
		}
		if compiler.Classify(staged.ExitCode).Terminal() {
			tc.PrintCompilerOutput(kotlinLines)
			tc.SupersedeDeferred(kotlinLines)
			return task, kotlinErr
		}
	}

	var javaErr error
	if len(task.Inputs.JavaSources) > 0 {
		javaErr = tc.Run(StageJavac, func() error {
			_, err := tc.RunCompiler(ctx, JavaArgs(task, e.javacOptions), true, e.javac)
			return err
		})
	}

	tc.PrintCompilerOutput(kotlinLines)
	tc.SupersedeDeferred(kotlinLines)

	if kotlinErr != nil {
		return task, kotlinErr
	}
	return task, javaErr
}

// createJar packages the compiled and generated classes
func (e *TaskExecutor) createJar(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	creator := archive.NewJarCreator(task.Outputs.Jar)
	if err := creator.AddDirectory(task.Directories.Classes); err != nil {
		return task, err
	}
	if err := creator.AddDirectory(task.Directories.GeneratedClasses); err != nil {
		return task, err
	}

	ruleKind := task.Info.RuleKind
	if ruleKind == "" {
		ruleKind = e.defaultRuleKind
	}
	creator.SetJarOwner(task.Info.Label, ruleKind)

	if err := creator.Execute(); err != nil {
		return task, err
	}

	tc.WhenTracing(func() {
		info, err := os.Stat(task.Outputs.Jar)
		if err != nil {
			return
		}
		tc.Logger().Debug("jar created",
			"path", task.Outputs.Jar,
			"entries", creator.Len(),
			"size", humanize.Bytes(uint64(info.Size())))
	})
	return task, nil
}

// produceSourceJar packages the task's current sources. Source jars must have
// been expanded by then; their contents are packaged, never the jars.
func (e *TaskExecutor) produceSourceJar(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	if len(task.Inputs.SourceJars) > 0 {
		if _, err := os.Stat(sourceJarDir(task)); errors.Is(err, fs.ErrNotExist) {
			panic(fmt.Sprintf("source jars of %s were not expanded into %s before packaging sources", task.Info.Label, sourceJarDir(task)))
		}
	}

	creator := archive.NewSourceJarCreator(task.Outputs.SourceJar)
	if err := creator.AddSources(task.Inputs.JavaSources...); err != nil {
		return task, err
	}
	if err := creator.AddSources(task.Inputs.KotlinSources...); err != nil {
		return task, err
	}
	if err := creator.Execute(); err != nil {
		return task, err
	}

	tc.WhenTracing(func() {
		tc.Logger().Debug("source jar created", "path", task.Outputs.SourceJar, "entries", creator.Len())
	})
	return task, nil
}

// generateJDeps writes the dependency report
func (e *TaskExecutor) generateJDeps(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	if err := e.jdeps.Execute(ctx, task); err != nil {
		return task, err
	}
	return task, nil
}
