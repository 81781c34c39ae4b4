package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestTask() CompilationTask {
	return CompilationTask{
		Inputs: Inputs{
			KotlinSources: []string{"a/Main.kt"},
			JavaSources:   []string{"a/Helper.java"},
			Classpath:     []string{"lib/dep.jar"},
		},
		Outputs: Outputs{Jar: "out/lib.jar", SourceJar: "out/lib-sources.jar", JDeps: "out/lib.jdeps"},
		Directories: Directories{
			Classes:          "work/classes",
			Temp:             "work/temp",
			GeneratedSources: "work/gensrc",
			GeneratedClasses: "work/genclasses",
		},
		Info: Info{
			Label:      "//a:lib",
			ModuleName: "lib",
			Plugins: Plugins{
				AnnotationProcessors: map[string]AnnotationProcessor{
					"auto": {ProcessorClass: "com.example.AutoProcessor", Classpath: []string{"auto.jar"}},
				},
			},
		},
	}
}

func TestCompilationTask_WithSourcesDoesNotMutate(t *testing.T) {
	original := newTestTask()
	// Leave spare capacity so a naive append would write into shared memory.
	original.Inputs.KotlinSources = append(make([]string, 0, 8), original.Inputs.KotlinSources...)
	before := newTestTask()

	expanded := original.WithSources([]string{"gen/Gen.kt"}, []string{"gen/Gen.java"})
	_ = original.WithSources([]string{"gen/Other.kt"}, nil)

	if diff := cmp.Diff(before.Inputs, original.Inputs); diff != "" {
		t.Errorf("Original task inputs changed (-want +got):\n%s", diff)
	}

	wantKotlin := []string{"a/Main.kt", "gen/Gen.kt"}
	if diff := cmp.Diff(wantKotlin, expanded.Inputs.KotlinSources); diff != "" {
		t.Errorf("Unexpected kotlin sources (-want +got):\n%s", diff)
	}
	wantJava := []string{"a/Helper.java", "gen/Gen.java"}
	if diff := cmp.Diff(wantJava, expanded.Inputs.JavaSources); diff != "" {
		t.Errorf("Unexpected java sources (-want +got):\n%s", diff)
	}

	expanded.Info.Plugins.AnnotationProcessors["auto"].Classpath[0] = "changed.jar"
	if original.Info.Plugins.AnnotationProcessors["auto"].Classpath[0] != "auto.jar" {
		t.Error("Derived task shares processor classpath with the original")
	}
}

func TestCompilationTask_Hash(t *testing.T) {
	a := newTestTask()
	b := newTestTask()
	if a.Hash() != b.Hash() {
		t.Error("Hash should be identical for identical tasks")
	}

	c := a.WithSources([]string{"x/X.kt"}, nil)
	if a.Hash() == c.Hash() {
		t.Error("Hash should change when sources change")
	}
}

func TestPlugins_HasAnnotationProcessors(t *testing.T) {
	var empty Plugins
	if empty.HasAnnotationProcessors() {
		t.Error("Expected no processors for zero value")
	}

	p := Plugins{AnnotationProcessors: map[string]AnnotationProcessor{"b": {}, "a": {}}}
	if !p.HasAnnotationProcessors() {
		t.Error("Expected processors to be reported")
	}
	if diff := cmp.Diff([]string{"a", "b"}, p.ProcessorIDs()); diff != "" {
		t.Errorf("Unexpected processor ids (-want +got):\n%s", diff)
	}
}

func TestCompilationTask_Validate(t *testing.T) {
	task := newTestTask()
	if err := task.Validate(); err != nil {
		t.Fatalf("Expected valid task, got: %v", err)
	}

	task.Outputs.JDeps = ""
	if err := task.Validate(); err == nil {
		t.Error("Expected error for missing jdeps output")
	}
}

func TestLoadTask_HCL(t *testing.T) {
	tempDir := t.TempDir()
	content := `
label       = "//app:lib"
rule_kind   = "kt_jvm_library"
module_name = "app"
api_version = "1.9"
jvm_target  = "17"
passthrough_flags = "-Xjsr305=strict"

inputs {
  kotlin_sources = ["${workspace}/src/Main.kt"]
  classpath      = ["${workspace}/lib/dep.jar"]
}

outputs {
  jar        = "out/app.jar"
  source_jar = "out/app-sources.jar"
  jdeps      = "out/app.jdeps"
}

directories {
  classes           = "work/classes"
  temp              = "work/temp"
  generated_sources = "work/gensrc"
  generated_classes = "work/genclasses"
}

plugins {
  kapt_plugin = "tools/kapt.jar"

  processor "auto_value" {
    processor_class = "com.google.auto.value.processor.AutoValueProcessor"
    classpath       = ["tools/auto-value.jar"]
    options         = { debug = "true" }
  }
}
`
	path := filepath.Join(tempDir, "task.hcl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write task file: %v", err)
	}

	task, err := LoadTask(path)
	if err != nil {
		t.Fatalf("LoadTask failed: %v", err)
	}

	workspace, _ := filepath.Abs(tempDir)
	if diff := cmp.Diff([]string{filepath.Join(workspace, "src", "Main.kt")}, task.Inputs.KotlinSources); diff != "" {
		t.Errorf("Unexpected kotlin sources (-want +got):\n%s", diff)
	}
	if task.Info.ModuleName != "app" || task.Info.JVMTarget != "17" {
		t.Errorf("Unexpected info: %+v", task.Info)
	}
	ap, ok := task.Info.Plugins.AnnotationProcessors["auto_value"]
	if !ok {
		t.Fatal("Expected auto_value processor")
	}
	if ap.Options["debug"] != "true" {
		t.Errorf("Expected processor option debug=true, got %v", ap.Options)
	}
	if task.Directories.GeneratedClasses != "work/genclasses" {
		t.Errorf("Unexpected generated classes dir %q", task.Directories.GeneratedClasses)
	}
}

func TestLoadTask_YAML(t *testing.T) {
	tempDir := t.TempDir()
	content := `
inputs:
  kotlin_sources: [src/Main.kt]
  java_sources: [src/Helper.java]
outputs:
  jar: out/app.jar
  source_jar: out/app-sources.jar
  jdeps: out/app.jdeps
directories:
  classes: work/classes
  temp: work/temp
  generated_sources: work/gensrc
  generated_classes: work/genclasses
info:
  label: //app:lib
  module_name: app
  friend_paths: [friends/a.jar]
`
	path := filepath.Join(tempDir, "task.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write task file: %v", err)
	}

	task, err := LoadTask(path)
	if err != nil {
		t.Fatalf("LoadTask failed: %v", err)
	}
	if diff := cmp.Diff([]string{"src/Helper.java"}, task.Inputs.JavaSources); diff != "" {
		t.Errorf("Unexpected java sources (-want +got):\n%s", diff)
	}
	if task.Info.Plugins.HasAnnotationProcessors() {
		t.Error("Expected no annotation processors")
	}
}

func TestLoadTask_Errors(t *testing.T) {
	tempDir := t.TempDir()

	if _, err := LoadTask(filepath.Join(tempDir, "task.toml")); err == nil {
		t.Error("Expected error for unsupported format")
	}

	path := filepath.Join(tempDir, "task.yaml")
	if err := os.WriteFile(path, []byte("info:\n  module_name: app\n"), 0644); err != nil {
		t.Fatalf("Failed to write task file: %v", err)
	}
	if _, err := LoadTask(path); err == nil {
		t.Error("Expected validation error for incomplete task")
	}
}
