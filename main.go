package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"kbuilder/pkg/compiler"
	"kbuilder/pkg/config"
	"kbuilder/pkg/ctxlog"
	"kbuilder/pkg/jvm"
	"kbuilder/pkg/kotlin"
	"kbuilder/pkg/model"
)

const version = "1.0.0"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version information"`
	Build   BuildCmd         `cmd:"" help:"Compile the task described by a task file"`
	Plan    PlanCmd          `cmd:"" help:"Print the stages and Kotlin arguments of a task"`
}

type BuildCmd struct {
	Task      string `short:"t" required:"" type:"existingfile" help:"Task file (.hcl, .yaml or .yml)"`
	ConfigDir string `help:"Directory to start the kbuilder.yaml lookup from (defaults to the task file directory)"`
	Verbose   bool   `help:"Trace stages, compiler arguments and timings"`
}

type PlanCmd struct {
	Task      string `short:"t" required:"" type:"existingfile" help:"Task file (.hcl, .yaml or .yml)"`
	ConfigDir string `help:"Directory to start the kbuilder.yaml lookup from (defaults to the task file directory)"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("kbuilder"),
		kong.Description("Compiles mixed Kotlin and Java targets into jars."),
		kong.Vars{"version": "kbuilder version " + version})

	switch ctx.Command() {
	case "build":
		code, err := runBuild(cli.Build)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(jvm.ExitInternalError)
		}
		os.Exit(code)
	case "plan":
		if err := runPlan(cli.Plan); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		ctx.PrintUsage(false)
	}
}

// loadConfiguration resolves the configuration for a task file
func loadConfiguration(taskFile, configDir string) (*config.Config, error) {
	if configDir == "" {
		configDir = filepath.Dir(taskFile)
	}
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return config.LoadConfiguration(absDir)
}

// newExecutor assembles the pipeline from the configured toolchain
func newExecutor(cfg *config.Config) (*jvm.TaskExecutor, error) {
	kotlinc := compiler.NewProcess(cfg.Toolchain.Kotlinc, cfg.Toolchain.KotlincArgs...)
	javac := compiler.NewProcess(cfg.Toolchain.Javac, cfg.Toolchain.JavacArgs...)

	return jvm.NewTaskExecutor(kotlinc, javac, jvm.Options{
		JavacOptions:    cfg.Toolchain.JavacOptions,
		KaptPlugin:      cfg.Toolchain.KaptPlugin,
		DefaultRuleKind: cfg.DefaultRuleKind,
		JDepsWorkers:    cfg.JDepsWorkers,
	})
}

func runBuild(cmd BuildCmd) (int, error) {
	cfg, err := loadConfiguration(cmd.Task, cmd.ConfigDir)
	if err != nil {
		return 0, err
	}
	if cmd.Verbose {
		cfg.Verbose = true
		cfg.LogLevel = "debug"
	}

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	task, err := model.LoadTask(cmd.Task)
	if err != nil {
		return 0, err
	}

	executor, err := newExecutor(cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to assemble pipeline: %w", err)
	}

	ctx := ctxlog.WithLogger(context.Background(), logger)
	builder := jvm.NewBuilder(executor, os.Stdout, logger, cfg.Verbose)
	return builder.Execute(ctx, task), nil
}

func runPlan(cmd PlanCmd) error {
	cfg, err := loadConfiguration(cmd.Task, cmd.ConfigDir)
	if err != nil {
		return err
	}

	task, err := model.LoadTask(cmd.Task)
	if err != nil {
		return err
	}

	executor, err := newExecutor(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble pipeline: %w", err)
	}

	fmt.Printf("Task: %s (%s)\n", task.Info.Label, executor.PlanHash(task))
	fmt.Println("Stages:")
	for i, name := range executor.StageNames() {
		fmt.Printf("  %d. %s\n", i+1, name)
	}

	fmt.Printf("Sources: %d Kotlin, %d Java, %d source jars\n",
		len(task.Inputs.KotlinSources), len(task.Inputs.JavaSources), len(task.Inputs.SourceJars))
	if task.Info.Plugins.HasAnnotationProcessors() {
		fmt.Printf("Annotation processors: %s\n", strings.Join(task.Info.Plugins.ProcessorIDs(), ", "))
	}
	fmt.Printf("Kotlin arguments: %s\n", strings.Join(kotlin.CommonArgs(task), " "))
	return nil
}
