package jvm

import (
	"os"
	"strings"

	"kbuilder/pkg/model"
)

// JavaArgs returns the Java compiler arguments for task. Classes produced by
// the Kotlin compiler come first on the classpath. Annotation processing has
// already run, so javac is told not to run processors again.
func JavaArgs(task model.CompilationTask, options []string) []string {
	classpath := append([]string{task.Directories.Classes}, task.Inputs.Classpath...)

	args := []string{
		"-cp", strings.Join(classpath, string(os.PathListSeparator)),
		"-d", task.Directories.Classes,
		"-proc:none",
	}
	args = append(args, options...)
	args = append(args, task.Inputs.JavaSources...)
	return args
}
