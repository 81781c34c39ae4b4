package kotlin

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"kbuilder/pkg/model"
)

// KaptPluginID is the compiler plugin id of kapt
const KaptPluginID = "org.jetbrains.kotlin.kapt3"

// KaptEncoder encodes annotation processor configuration as kapt plugin options
type KaptEncoder struct {
	// DefaultPlugin is used when the task does not name a kapt plugin jar
	DefaultPlugin string
}

// Encode returns the plugin arguments for the task's annotation processors
func (e KaptEncoder) Encode(task model.CompilationTask, verbose bool) ([]string, error) {
	plugins := task.Info.Plugins
	if !plugins.HasAnnotationProcessors() {
		return nil, fmt.Errorf("no annotation processors configured")
	}

	pluginJar := plugins.KaptPlugin
	if pluginJar == "" {
		pluginJar = e.DefaultPlugin
	}
	if pluginJar == "" {
		return nil, fmt.Errorf("annotation processors configured but no kapt plugin jar is available")
	}

	args := []string{"-Xplugin=" + pluginJar}
	option := func(key, value string) {
		args = append(args, "-P", fmt.Sprintf("plugin:%s:%s=%s", KaptPluginID, key, value))
	}

	option("sources", task.Directories.GeneratedSources)
	option("classes", task.Directories.GeneratedClasses)
	option("stubs", filepath.Join(task.Directories.Temp, "stubs"))
	option("incrementalData", filepath.Join(task.Directories.Temp, "incrementalData"))
	option("aptMode", "stubsAndApt")
	option("correctErrorTypes", "true")
	if verbose {
		option("verbose", "true")
	}

	seen := make(map[string]bool)
	var processors []string
	for _, id := range plugins.ProcessorIDs() {
		processor := plugins.AnnotationProcessors[id]
		for _, entry := range processor.Classpath {
			if !seen[entry] {
				seen[entry] = true
				option("apclasspath", entry)
			}
		}
		if processor.ProcessorClass != "" {
			processors = append(processors, processor.ProcessorClass)
		}
	}
	if len(processors) > 0 {
		option("processors", strings.Join(processors, ","))
	}

	for _, id := range plugins.ProcessorIDs() {
		options := plugins.AnnotationProcessors[id].Options
		keys := make([]string, 0, len(options))
		for key := range options {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			option("apoption", key+":"+options[key])
		}
	}

	return args, nil
}
