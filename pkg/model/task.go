// Package model defines the compilation task description threaded through
// the build pipeline.
//
// A CompilationTask is a value. Stages never modify a task they received;
// they derive a new one with the With* functions, which copy every slice they
// touch so that earlier versions stay valid.
package model

import (
	"fmt"
	"slices"

	"github.com/mitchellh/hashstructure/v2"
)

// Inputs holds the source and classpath inputs of a compilation
type Inputs struct {
	KotlinSources []string `yaml:"kotlin_sources"`
	JavaSources   []string `yaml:"java_sources"`
	SourceJars    []string `yaml:"source_jars"`
	Classpath     []string `yaml:"classpath"`
}

// Outputs holds the artifact paths a compilation must produce
type Outputs struct {
	Jar       string `yaml:"jar"`
	SourceJar string `yaml:"source_jar"`
	JDeps     string `yaml:"jdeps"`
}

// Directories holds the working directories of a compilation
type Directories struct {
	Classes          string `yaml:"classes"`
	Temp             string `yaml:"temp"`
	GeneratedSources string `yaml:"generated_sources"`
	GeneratedClasses string `yaml:"generated_classes"`
}

// Info holds the identity and compiler settings of a compilation
type Info struct {
	Label            string   `yaml:"label"`
	RuleKind         string   `yaml:"rule_kind"`
	ModuleName       string   `yaml:"module_name"`
	APIVersion       string   `yaml:"api_version"`
	LanguageVersion  string   `yaml:"language_version"`
	JVMTarget        string   `yaml:"jvm_target"`
	Plugins          Plugins  `yaml:"plugins"`
	PassthroughFlags string   `yaml:"passthrough_flags"`
	FriendPaths      []string `yaml:"friend_paths"`
}

// CompilationTask describes one invocation of the builder
type CompilationTask struct {
	Inputs      Inputs      `yaml:"inputs"`
	Outputs     Outputs     `yaml:"outputs"`
	Directories Directories `yaml:"directories"`
	Info        Info        `yaml:"info"`
}

// WithSources returns a copy of the task with the given sources appended
// after the existing ones. The receiver is left untouched.
func (t CompilationTask) WithSources(kotlin, java []string) CompilationTask {
	next := t.clone()
	next.Inputs.KotlinSources = append(next.Inputs.KotlinSources, kotlin...)
	next.Inputs.JavaSources = append(next.Inputs.JavaSources, java...)
	return next
}

// WithPlugins returns a copy of the task using the given plugin configuration
func (t CompilationTask) WithPlugins(plugins Plugins) CompilationTask {
	next := t.clone()
	next.Info.Plugins = plugins.clone()
	return next
}

// Hash returns a fingerprint of the task configuration
func (t CompilationTask) Hash() string {
	h, err := hashstructure.Hash(t, hashstructure.FormatV2, nil)
	if err != nil {
		// Only unsupported field kinds make hashing fail; the task has none.
		panic(fmt.Sprintf("failed to hash compilation task: %v", err))
	}
	return fmt.Sprintf("%016x", h)
}

// Validate checks that the fields every stage relies on are present
func (t CompilationTask) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"directories.classes", t.Directories.Classes},
		{"directories.temp", t.Directories.Temp},
		{"directories.generated_sources", t.Directories.GeneratedSources},
		{"directories.generated_classes", t.Directories.GeneratedClasses},
		{"outputs.jar", t.Outputs.Jar},
		{"outputs.source_jar", t.Outputs.SourceJar},
		{"outputs.jdeps", t.Outputs.JDeps},
		{"info.module_name", t.Info.ModuleName},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("compilation task is missing %s", field.name)
		}
	}
	return nil
}

func (t CompilationTask) clone() CompilationTask {
	next := t
	next.Inputs.KotlinSources = slices.Clone(t.Inputs.KotlinSources)
	next.Inputs.JavaSources = slices.Clone(t.Inputs.JavaSources)
	next.Inputs.SourceJars = slices.Clone(t.Inputs.SourceJars)
	next.Inputs.Classpath = slices.Clone(t.Inputs.Classpath)
	next.Info.FriendPaths = slices.Clone(t.Info.FriendPaths)
	next.Info.Plugins = t.Info.Plugins.clone()
	return next
}
