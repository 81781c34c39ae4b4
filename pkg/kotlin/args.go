// Package kotlin builds the argument lists passed to the Kotlin compiler and
// enumerates JVM sources.
package kotlin

import (
	"os"
	"strings"

	"kbuilder/pkg/model"
)

// CommonArgs returns the arguments shared by the annotation processing pass
// and the main compilation. Several flags are value pairs, so the order is
// fixed: classpath, api version, language version, jvm target, friend paths,
// module name, output directory, then the passthrough flags.
func CommonArgs(task model.CompilationTask) []string {
	pathSeparator := string(os.PathListSeparator)

	args := []string{
		"-cp", strings.Join(task.Inputs.Classpath, pathSeparator),
		"-api-version", task.Info.APIVersion,
		"-language-version", task.Info.LanguageVersion,
		"-jvm-target", task.Info.JVMTarget,
		"--friend-paths", strings.Join(task.Info.FriendPaths, pathSeparator),
		"-module-name", task.Info.ModuleName,
		"-d", task.Directories.Classes,
	}

	args = append(args, strings.Fields(task.Info.PassthroughFlags)...)
	return args
}

// CompileArgs returns the arguments of the main Kotlin compilation. Java
// sources are passed so that Kotlin code can reference Java symbols.
func CompileArgs(task model.CompilationTask) []string {
	args := CommonArgs(task)
	args = append(args, task.Inputs.JavaSources...)
	args = append(args, task.Inputs.KotlinSources...)
	return args
}
