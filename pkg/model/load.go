package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// hclTaskFile is the decoding target for .hcl task descriptions
type hclTaskFile struct {
	Label            string   `hcl:"label,optional"`
	RuleKind         string   `hcl:"rule_kind,optional"`
	ModuleName       string   `hcl:"module_name"`
	APIVersion       string   `hcl:"api_version,optional"`
	LanguageVersion  string   `hcl:"language_version,optional"`
	JVMTarget        string   `hcl:"jvm_target,optional"`
	PassthroughFlags string   `hcl:"passthrough_flags,optional"`
	FriendPaths      []string `hcl:"friend_paths,optional"`

	Inputs      *hclInputs      `hcl:"inputs,block"`
	Outputs     *hclOutputs     `hcl:"outputs,block"`
	Directories *hclDirectories `hcl:"directories,block"`
	Plugins     *hclPlugins     `hcl:"plugins,block"`
}

type hclInputs struct {
	KotlinSources []string `hcl:"kotlin_sources,optional"`
	JavaSources   []string `hcl:"java_sources,optional"`
	SourceJars    []string `hcl:"source_jars,optional"`
	Classpath     []string `hcl:"classpath,optional"`
}

type hclOutputs struct {
	Jar       string `hcl:"jar"`
	SourceJar string `hcl:"source_jar"`
	JDeps     string `hcl:"jdeps"`
}

type hclDirectories struct {
	Classes          string `hcl:"classes"`
	Temp             string `hcl:"temp"`
	GeneratedSources string `hcl:"generated_sources"`
	GeneratedClasses string `hcl:"generated_classes"`
}

type hclPlugins struct {
	KaptPlugin string          `hcl:"kapt_plugin,optional"`
	Processors []*hclProcessor `hcl:"processor,block"`
}

type hclProcessor struct {
	ID             string            `hcl:"id,label"`
	ProcessorClass string            `hcl:"processor_class"`
	Classpath      []string          `hcl:"classpath,optional"`
	Options        map[string]string `hcl:"options,optional"`
}

// LoadTask reads a task description from an .hcl, .yaml or .yml file
func LoadTask(path string) (CompilationTask, error) {
	var (
		task CompilationTask
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		task, err = loadHCLTask(path)
	case ".yaml", ".yml":
		task, err = loadYAMLTask(path)
	default:
		return CompilationTask{}, fmt.Errorf("unsupported task file format: %s", path)
	}
	if err != nil {
		return CompilationTask{}, err
	}

	if err := task.Validate(); err != nil {
		return CompilationTask{}, fmt.Errorf("invalid task file %s: %w", path, err)
	}
	return task, nil
}

func loadYAMLTask(path string) (CompilationTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CompilationTask{}, fmt.Errorf("failed to read task file: %w", err)
	}

	var task CompilationTask
	if err := yaml.Unmarshal(data, &task); err != nil {
		return CompilationTask{}, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}
	return task, nil
}

func loadHCLTask(path string) (CompilationTask, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return CompilationTask{}, fmt.Errorf("failed to parse task file %s: %w", path, diags)
	}

	workspace, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return CompilationTask{}, fmt.Errorf("failed to resolve task file directory: %w", err)
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"workspace": cty.StringVal(workspace),
		},
	}

	var parsed hclTaskFile
	diags = gohcl.DecodeBody(file.Body, evalCtx, &parsed)
	if diags.HasErrors() {
		return CompilationTask{}, fmt.Errorf("failed to decode task file %s: %w", path, diags)
	}

	return parsed.toTask(), nil
}

func (f *hclTaskFile) toTask() CompilationTask {
	task := CompilationTask{
		Info: Info{
			Label:            f.Label,
			RuleKind:         f.RuleKind,
			ModuleName:       f.ModuleName,
			APIVersion:       f.APIVersion,
			LanguageVersion:  f.LanguageVersion,
			JVMTarget:        f.JVMTarget,
			PassthroughFlags: f.PassthroughFlags,
			FriendPaths:      f.FriendPaths,
		},
	}
	if f.Inputs != nil {
		task.Inputs = Inputs{
			KotlinSources: f.Inputs.KotlinSources,
			JavaSources:   f.Inputs.JavaSources,
			SourceJars:    f.Inputs.SourceJars,
			Classpath:     f.Inputs.Classpath,
		}
	}
	if f.Outputs != nil {
		task.Outputs = Outputs(*f.Outputs)
	}
	if f.Directories != nil {
		task.Directories = Directories(*f.Directories)
	}
	if f.Plugins != nil {
		task.Info.Plugins.KaptPlugin = f.Plugins.KaptPlugin
		if len(f.Plugins.Processors) > 0 {
			task.Info.Plugins.AnnotationProcessors = make(map[string]AnnotationProcessor, len(f.Plugins.Processors))
			for _, p := range f.Plugins.Processors {
				task.Info.Plugins.AnnotationProcessors[p.ID] = AnnotationProcessor{
					ProcessorClass: p.ProcessorClass,
					Classpath:      p.Classpath,
					Options:        p.Options,
				}
			}
		}
	}
	return task
}
