package model

import (
	"maps"
	"slices"
	"sort"
)

// AnnotationProcessor configures one annotation processor run through kapt
type AnnotationProcessor struct {
	// ProcessorClass is the fully qualified processor class name
	ProcessorClass string `yaml:"processor_class"`
	// Classpath holds the jars the processor is loaded from
	Classpath []string `yaml:"classpath"`
	// Options are passed to the processor as -A style options
	Options map[string]string `yaml:"options"`
}

// Plugins holds compiler plugin configuration
type Plugins struct {
	// KaptPlugin is the path of the kapt compiler plugin jar
	KaptPlugin string `yaml:"kapt_plugin"`
	// AnnotationProcessors maps a processor id to its configuration
	AnnotationProcessors map[string]AnnotationProcessor `yaml:"annotation_processors"`
}

// HasAnnotationProcessors reports whether any processor is configured
func (p Plugins) HasAnnotationProcessors() bool {
	return len(p.AnnotationProcessors) > 0
}

// ProcessorIDs returns the configured processor ids in sorted order
func (p Plugins) ProcessorIDs() []string {
	ids := make([]string, 0, len(p.AnnotationProcessors))
	for id := range p.AnnotationProcessors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p Plugins) clone() Plugins {
	next := Plugins{KaptPlugin: p.KaptPlugin}
	if p.AnnotationProcessors == nil {
		return next
	}
	next.AnnotationProcessors = make(map[string]AnnotationProcessor, len(p.AnnotationProcessors))
	for id, ap := range p.AnnotationProcessors {
		next.AnnotationProcessors[id] = AnnotationProcessor{
			ProcessorClass: ap.ProcessorClass,
			Classpath:      slices.Clone(ap.Classpath),
			Options:        maps.Clone(ap.Options),
		}
	}
	return next
}
