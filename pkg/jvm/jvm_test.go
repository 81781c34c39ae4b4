package jvm

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"kbuilder/pkg/archive"
	"kbuilder/pkg/compiler"
	"kbuilder/pkg/jdeps"
	"kbuilder/pkg/kotlin"
	"kbuilder/pkg/model"
	"kbuilder/pkg/taskctx"
)

// minimalClass returns a valid class file for name extending Object
func minimalClass(name string) []byte {
	var b []byte
	utf8 := func(s string) {
		b = append(b, 1)
		b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
		b = append(b, s...)
	}
	b = binary.BigEndian.AppendUint32(b, 0xCAFEBABE)
	b = binary.BigEndian.AppendUint32(b, 52)
	b = binary.BigEndian.AppendUint16(b, 5)
	utf8(name)
	b = append(b, 7, 0, 1)
	utf8("java/lang/Object")
	b = append(b, 7, 0, 3)
	b = binary.BigEndian.AppendUint16(b, 0x0021)
	b = binary.BigEndian.AppendUint16(b, 2)
	b = binary.BigEndian.AppendUint16(b, 4)
	return append(b, 0, 0, 0, 0, 0, 0, 0, 0)
}

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func kaptOption(args []string, key string) string {
	prefix := "plugin:" + kotlin.KaptPluginID + ":" + key + "="
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			return strings.TrimPrefix(arg, prefix)
		}
	}
	return ""
}

func isKapt(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return strings.HasPrefix(arg, "-Xplugin=")
	})
}

// writeClassesFor writes one class file into the -d directory for every
// source argument with the given suffix
func writeClassesFor(args []string, suffix string) error {
	classes := argValue(args, "-d")
	for _, arg := range args {
		if !strings.HasSuffix(arg, suffix) {
			continue
		}
		content, err := os.ReadFile(arg)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(archive.SourceEntryName(arg, content), suffix)
		path := filepath.Join(classes, filepath.FromSlash(name)+".class")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, minimalClass(name), 0644); err != nil {
			return err
		}
	}
	return nil
}

// fixture is a task on disk with fake compilers recording their invocations
type fixture struct {
	t    *testing.T
	root string
	task model.CompilationTask
	out  bytes.Buffer

	kaptCalls    [][]string
	kotlincCalls [][]string
	javacCalls   [][]string

	kapt    func(args []string) compiler.Result
	kotlinc func(args []string) compiler.Result
	javac   func(args []string) compiler.Result
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	work := filepath.Join(root, "work")
	out := filepath.Join(root, "out")

	f := &fixture{
		t:    t,
		root: root,
		task: model.CompilationTask{
			Outputs: model.Outputs{
				Jar:       filepath.Join(out, "lib.jar"),
				SourceJar: filepath.Join(out, "lib-sources.jar"),
				JDeps:     filepath.Join(out, "lib.jdeps"),
			},
			Directories: model.Directories{
				Classes:          filepath.Join(work, "classes"),
				Temp:             filepath.Join(work, "temp"),
				GeneratedSources: filepath.Join(work, "generated_sources"),
				GeneratedClasses: filepath.Join(work, "generated_classes"),
			},
			Info: model.Info{
				Label:           "//app:lib",
				ModuleName:      "app_lib",
				APIVersion:      "1.9",
				LanguageVersion: "1.9",
				JVMTarget:       "17",
			},
		},
		kapt: func(args []string) compiler.Result {
			return compiler.Result{}
		},
		kotlinc: func(args []string) compiler.Result {
			if err := writeClassesFor(args, ".kt"); err != nil {
				t.Errorf("Fake kotlinc failed: %v", err)
				return compiler.Result{ExitCode: 2}
			}
			return compiler.Result{}
		},
		javac: func(args []string) compiler.Result {
			if err := writeClassesFor(args, ".java"); err != nil {
				t.Errorf("Fake javac failed: %v", err)
				return compiler.Result{ExitCode: 1}
			}
			return compiler.Result{}
		},
	}
	return f
}

func (f *fixture) writeSource(name, content string) string {
	f.t.Helper()
	path := filepath.Join(f.root, "src", filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		f.t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		f.t.Fatalf("Failed to write source: %v", err)
	}
	return path
}

func (f *fixture) executor() *TaskExecutor {
	f.t.Helper()
	kotlinc := compiler.Func(func(ctx context.Context, args []string) (compiler.Result, error) {
		if isKapt(args) {
			f.kaptCalls = append(f.kaptCalls, args)
			return f.kapt(args), nil
		}
		f.kotlincCalls = append(f.kotlincCalls, args)
		return f.kotlinc(args), nil
	})
	javac := compiler.Func(func(ctx context.Context, args []string) (compiler.Result, error) {
		f.javacCalls = append(f.javacCalls, args)
		return f.javac(args), nil
	})

	executor, err := NewTaskExecutor(kotlinc, javac, Options{
		KaptPlugin:      "/tools/kapt.jar",
		DefaultRuleKind: "kt_jvm_library",
		JDepsWorkers:    2,
	})
	if err != nil {
		f.t.Fatalf("Failed to create executor: %v", err)
	}
	return executor
}

func (f *fixture) run() int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBuilder(f.executor(), &f.out, logger, false).Execute(context.Background(), f.task)
}

func (f *fixture) newContext() *taskctx.Context {
	return taskctx.New(f.task.Info.Label, false, &f.out, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func jarEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer r.Close()

	entries := make(map[string]string)
	for _, file := range r.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", file.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		entries[file.Name] = string(data)
	}
	return entries
}

func TestExecute_SingleKotlinSource(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\n\nclass Foo\n")
	f.task = f.task.WithSources([]string{foo}, nil)

	if code := f.run(); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (output %q)", code, f.out.String())
	}

	if _, err := os.Stat(filepath.Join(f.task.Directories.Classes, "demo", "Foo.class")); err != nil {
		t.Errorf("Expected compiled class in classes directory: %v", err)
	}
	if len(f.javacCalls) != 0 {
		t.Errorf("Expected javac not to run without Java sources, got %d calls", len(f.javacCalls))
	}
	if len(f.kaptCalls) != 0 {
		t.Errorf("Expected no annotation processing, got %d calls", len(f.kaptCalls))
	}

	jar := jarEntries(t, f.task.Outputs.Jar)
	if _, ok := jar["demo/Foo.class"]; !ok {
		t.Errorf("Expected jar to contain demo/Foo.class, got %v", jar)
	}
	if !strings.Contains(jar["META-INF/MANIFEST.MF"], "Injecting-Rule-Kind: kt_jvm_library") {
		t.Errorf("Expected default rule kind in manifest, got %q", jar["META-INF/MANIFEST.MF"])
	}

	srcjar := jarEntries(t, f.task.Outputs.SourceJar)
	if srcjar["demo/Foo.kt"] != "package demo\n\nclass Foo\n" {
		t.Errorf("Expected source jar to contain demo/Foo.kt, got %v", srcjar)
	}

	report, err := jdeps.ReadReport(f.task.Outputs.JDeps)
	if err != nil {
		t.Fatalf("Expected dependency report: %v", err)
	}
	if report.RuleLabel != "//app:lib" || !report.Success {
		t.Errorf("Unexpected report %+v", report)
	}
}

func TestExecute_KotlinArguments(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	bar := f.writeSource("Bar.java", "package demo;\nclass Bar {}")
	f.task = f.task.WithSources([]string{foo}, []string{bar})

	if code := f.run(); code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if len(f.kotlincCalls) != 1 {
		t.Fatalf("Expected one kotlinc call, got %d", len(f.kotlincCalls))
	}

	args := f.kotlincCalls[0]
	if diff := cmp.Diff([]string{bar, foo}, args[len(args)-2:]); diff != "" {
		t.Errorf("Expected Java then Kotlin sources last (-want +got):\n%s", diff)
	}

	if len(f.javacCalls) != 1 {
		t.Fatalf("Expected one javac call, got %d", len(f.javacCalls))
	}
	expected := JavaArgs(f.task, nil)
	if diff := cmp.Diff(expected, f.javacCalls[0]); diff != "" {
		t.Errorf("javac arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_KotlinCompilationErrorStillRunsJavac(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	bar := f.writeSource("Bar.java", "package demo;\nclass Bar {}")
	f.task = f.task.WithSources([]string{foo}, []string{bar})

	f.kotlinc = func(args []string) compiler.Result {
		return compiler.Result{ExitCode: 1, Lines: []string{"e: Foo.kt:2:7 unresolved reference"}}
	}
	f.javac = func(args []string) compiler.Result {
		return compiler.Result{Lines: []string{"Note: Bar.java uses unchecked operations."}}
	}

	if code := f.run(); code != 1 {
		t.Errorf("Expected the Kotlin exit code 1, got %d", code)
	}
	if len(f.javacCalls) != 1 {
		t.Errorf("Expected javac to run after a Kotlin compilation error, got %d calls", len(f.javacCalls))
	}

	expected := "Note: Bar.java uses unchecked operations.\ne: Foo.kt:2:7 unresolved reference\n"
	if f.out.String() != expected {
		t.Errorf("Expected output %q, got %q", expected, f.out.String())
	}
	if _, err := os.Stat(f.task.Outputs.Jar); !os.IsNotExist(err) {
		t.Error("Expected no jar after a failed compilation")
	}
}

func TestExecute_JavacErrorReported(t *testing.T) {
	f := newFixture(t)
	bar := f.writeSource("Bar.java", "package demo;\nclass Bar {}")
	f.task = f.task.WithSources(nil, []string{bar})
	f.javac = func(args []string) compiler.Result {
		return compiler.Result{ExitCode: 1, Lines: []string{"Bar.java:2: error"}}
	}

	if code := f.run(); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if f.out.String() != "Bar.java:2: error\n" {
		t.Errorf("Expected javac output printed once, got %q", f.out.String())
	}
}

func TestExecute_KotlinInternalErrorSkipsJavac(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	bar := f.writeSource("Bar.java", "package demo;\nclass Bar {}")
	f.task = f.task.WithSources([]string{foo}, []string{bar})

	f.kotlinc = func(args []string) compiler.Result {
		return compiler.Result{ExitCode: 2, Lines: []string{"exception: internal error"}}
	}

	if code := f.run(); code != 2 {
		t.Errorf("Expected exit code 2, got %d", code)
	}
	if len(f.javacCalls) != 0 {
		t.Errorf("Expected javac never to run, got %d calls", len(f.javacCalls))
	}
	if f.out.String() != "exception: internal error\n" {
		t.Errorf("Expected Kotlin output printed once, got %q", f.out.String())
	}
}

func TestExecute_ExistingJarIsFatal(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	f.task = f.task.WithSources([]string{foo}, nil)

	if err := os.MkdirAll(filepath.Dir(f.task.Outputs.Jar), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(f.task.Outputs.Jar, []byte("stale"), 0644); err != nil {
		t.Fatalf("Failed to write jar: %v", err)
	}

	if code := f.run(); code != ExitInternalError {
		t.Errorf("Expected exit code %d, got %d", ExitInternalError, code)
	}
	if _, err := os.Stat(f.task.Outputs.SourceJar); !os.IsNotExist(err) {
		t.Error("Expected no stage to run after the jar failure")
	}
}

func TestExecute_InvalidTask(t *testing.T) {
	f := newFixture(t)
	f.task.Info.ModuleName = ""

	if code := f.run(); code != ExitInternalError {
		t.Errorf("Expected exit code %d, got %d", ExitInternalError, code)
	}
	if len(f.kotlincCalls) != 0 {
		t.Error("Expected no compiler invocation for an invalid task")
	}
}

func TestAnnotationProcessing_NoProcessors(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	f.task = f.task.WithSources([]string{foo}, nil)

	result, err := f.executor().runAnnotationProcessors(context.Background(), f.newContext(), f.task)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(f.task, result); diff != "" {
		t.Errorf("Expected task unchanged (-want +got):\n%s", diff)
	}
	if len(f.kaptCalls) != 0 {
		t.Error("Expected kapt not to run")
	}
}

func withProcessor(task model.CompilationTask) model.CompilationTask {
	return task.WithPlugins(model.Plugins{
		AnnotationProcessors: map[string]model.AnnotationProcessor{
			"dagger": {
				ProcessorClass: "dagger.internal.codegen.ComponentProcessor",
				Classpath:      []string{"/deps/dagger-compiler.jar"},
			},
		},
	})
}

func TestExecute_GeneratedSourcesAreCompiled(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	f.task = withProcessor(f.task.WithSources([]string{foo}, nil))

	f.kapt = func(args []string) compiler.Result {
		dir := kaptOption(args, "sources")
		files := map[string]string{
			"demo/GenKt.kt":     "package demo\nclass GenKt",
			"demo/GenJava.java": "package demo;\nclass GenJava {}",
			"META-INF/x.txt":    "resource",
		}
		for name, content := range files {
			path := filepath.Join(dir, filepath.FromSlash(name))
			os.MkdirAll(filepath.Dir(path), 0755)
			os.WriteFile(path, []byte(content), 0644)
		}
		return compiler.Result{}
	}

	if code := f.run(); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (output %q)", code, f.out.String())
	}
	if len(f.kaptCalls) != 1 {
		t.Fatalf("Expected one kapt call, got %d", len(f.kaptCalls))
	}

	genKt := filepath.Join(f.task.Directories.GeneratedSources, "demo", "GenKt.kt")
	genJava := filepath.Join(f.task.Directories.GeneratedSources, "demo", "GenJava.java")
	if !slices.Contains(f.kotlincCalls[0], genKt) || !slices.Contains(f.kotlincCalls[0], genJava) {
		t.Errorf("Expected generated sources passed to kotlinc, got %v", f.kotlincCalls[0])
	}
	if len(f.javacCalls) != 1 || !slices.Contains(f.javacCalls[0], genJava) {
		t.Errorf("Expected generated Java source passed to javac, got %v", f.javacCalls)
	}

	srcjar := jarEntries(t, f.task.Outputs.SourceJar)
	for _, name := range []string{"demo/Foo.kt", "demo/GenKt.kt", "demo/GenJava.java"} {
		if _, ok := srcjar[name]; !ok {
			t.Errorf("Expected source jar to contain %s, got %v", name, srcjar)
		}
	}
	if _, ok := srcjar["META-INF/x.txt"]; ok {
		t.Error("Expected non-source generated files to stay out of the source jar")
	}
}

func TestExecute_KaptCompilationErrorIsDeferred(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	f.task = withProcessor(f.task.WithSources([]string{foo}, nil))

	f.kapt = func(args []string) compiler.Result {
		return compiler.Result{ExitCode: 1, Lines: []string{"e: Foo.kt: missing symbol", "w: kapt only"}}
	}
	f.kotlinc = func(args []string) compiler.Result {
		return compiler.Result{ExitCode: 1, Lines: []string{"e: Foo.kt: missing symbol"}}
	}

	if code := f.run(); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if len(f.kotlincCalls) != 1 {
		t.Errorf("Expected the main compile to run after a non-terminal kapt failure, got %d calls", len(f.kotlincCalls))
	}

	expected := "e: Foo.kt: missing symbol\nw: kapt only\n"
	if f.out.String() != expected {
		t.Errorf("Expected every line printed once, got %q", f.out.String())
	}
}

func TestExecute_KaptInternalErrorAborts(t *testing.T) {
	f := newFixture(t)
	foo := f.writeSource("Foo.kt", "package demo\nclass Foo")
	f.task = withProcessor(f.task.WithSources([]string{foo}, nil))

	f.kapt = func(args []string) compiler.Result {
		return compiler.Result{ExitCode: 2, Lines: []string{"exception: kapt crashed"}}
	}

	if code := f.run(); code != 2 {
		t.Errorf("Expected exit code 2, got %d", code)
	}
	if len(f.kotlincCalls) != 0 {
		t.Errorf("Expected the main compile not to run, got %d calls", len(f.kotlincCalls))
	}
	if f.out.String() != "exception: kapt crashed\n" {
		t.Errorf("Expected kapt output printed immediately, got %q", f.out.String())
	}
}

func writeSourceJar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create source jar: %v", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close source jar: %v", err)
	}
}

func TestExpandSourceJars_LastWins(t *testing.T) {
	f := newFixture(t)
	first := filepath.Join(f.root, "first.srcjar")
	second := filepath.Join(f.root, "second.srcjar")
	writeSourceJar(t, first, map[string]string{"demo/Foo.kt": "package demo\nclass Foo(val first: Int)"})
	writeSourceJar(t, second, map[string]string{
		"demo/Foo.kt":   "package demo\nclass Foo(val second: Int)",
		"demo/Baz.java": "package demo;\nclass Baz {}",
	})
	f.task.Inputs.SourceJars = []string{first, second}

	result, err := f.executor().expandSourceJars(context.Background(), f.newContext(), f.task)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	foo := filepath.Join(f.task.Directories.Temp, SourceJarDir, "demo", "Foo.kt")
	if diff := cmp.Diff([]string{foo}, result.Inputs.KotlinSources); diff != "" {
		t.Errorf("Kotlin sources mismatch (-want +got):\n%s", diff)
	}
	if len(result.Inputs.JavaSources) != 1 {
		t.Errorf("Expected one Java source, got %v", result.Inputs.JavaSources)
	}

	data, err := os.ReadFile(foo)
	if err != nil {
		t.Fatalf("Failed to read expanded source: %v", err)
	}
	if !strings.Contains(string(data), "second") {
		t.Errorf("Expected the second jar's Foo.kt, got %q", string(data))
	}
	if len(f.task.Inputs.KotlinSources) != 0 {
		t.Error("Expected the original task to be unchanged")
	}
}

func TestExecute_SourceJarsEndToEnd(t *testing.T) {
	f := newFixture(t)
	srcjar := filepath.Join(f.root, "gen.srcjar")
	writeSourceJar(t, srcjar, map[string]string{"demo/Gen.kt": "package demo\nclass Gen"})
	f.task.Inputs.SourceJars = []string{srcjar}

	if code := f.run(); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (output %q)", code, f.out.String())
	}

	entries := jarEntries(t, f.task.Outputs.SourceJar)
	if _, ok := entries["demo/Gen.kt"]; !ok {
		t.Errorf("Expected the expanded source in the source jar, got %v", entries)
	}
	for name := range entries {
		if strings.HasSuffix(name, ".srcjar") {
			t.Errorf("Expected source jars never to be embedded, found %s", name)
		}
	}
	if _, ok := jarEntries(t, f.task.Outputs.Jar)["demo/Gen.class"]; !ok {
		t.Error("Expected the expanded source to be compiled")
	}
}

func TestProduceSourceJar_RequiresExpansion(t *testing.T) {
	f := newFixture(t)
	f.task.Inputs.SourceJars = []string{filepath.Join(f.root, "never-expanded.srcjar")}

	defer func() {
		if recover() == nil {
			t.Error("Expected a panic when source jars were not expanded")
		}
	}()
	f.executor().produceSourceJar(context.Background(), f.newContext(), f.task)
}

type panickingPipeline struct{}

func (panickingPipeline) Execute(ctx context.Context, tc *taskctx.Context, task model.CompilationTask) (model.CompilationTask, error) {
	return taskctx.Stage(tc, StageSourceJar, func() (model.CompilationTask, error) {
		panic("invariant violated")
	})
}

func TestBuilder_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	code := NewBuilder(panickingPipeline{}, &f.out, logger, false).Execute(context.Background(), f.task)
	if code != ExitInternalError {
		t.Errorf("Expected exit code %d, got %d", ExitInternalError, code)
	}
}

func TestStageNames(t *testing.T) {
	f := newFixture(t)
	expected := []string{
		StagePrepare,
		StageExpand,
		StageKapt,
		StageCompile,
		StageJar,
		StageSourceJar,
		StageJDeps,
	}
	if diff := cmp.Diff(expected, f.executor().StageNames()); diff != "" {
		t.Errorf("Stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareDirectories(t *testing.T) {
	f := newFixture(t)
	if _, err := f.executor().prepareDirectories(context.Background(), f.newContext(), f.task); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// A second run over existing directories is fine
	if _, err := f.executor().prepareDirectories(context.Background(), f.newContext(), f.task); err != nil {
		t.Fatalf("Expected no error on existing directories, got: %v", err)
	}

	for _, dir := range []string{
		f.task.Directories.Classes,
		f.task.Directories.Temp,
		f.task.Directories.GeneratedSources,
		f.task.Directories.GeneratedClasses,
		filepath.Dir(f.task.Outputs.Jar),
	} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist", dir)
		}
	}
}

func TestPrepareDirectories_CollidingFile(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(filepath.Dir(f.task.Directories.Temp), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(f.task.Directories.Temp, []byte("file"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := f.executor().prepareDirectories(context.Background(), f.newContext(), f.task); err == nil {
		t.Fatal("Expected error when a directory path is a file")
	}
}

func TestJavaArgs(t *testing.T) {
	task := model.CompilationTask{
		Inputs: model.Inputs{
			JavaSources: []string{"A.java", "B.java"},
			Classpath:   []string{"dep1.jar", "dep2.jar"},
		},
		Directories: model.Directories{Classes: "classes"},
	}

	sep := string(os.PathListSeparator)
	expected := []string{
		"-cp", "classes" + sep + "dep1.jar" + sep + "dep2.jar",
		"-d", "classes",
		"-proc:none",
		"-Xlint:none",
		"A.java", "B.java",
	}
	if diff := cmp.Diff(expected, JavaArgs(task, []string{"-Xlint:none"})); diff != "" {
		t.Errorf("javac arguments mismatch (-want +got):\n%s", diff)
	}
}
