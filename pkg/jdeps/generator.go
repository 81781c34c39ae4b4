// Package jdeps derives the dependency report of a compilation from the
// class files it produced.
package jdeps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"kbuilder/pkg/ctxlog"
	"kbuilder/pkg/model"
)

// KindExplicit marks a dependency that is referenced directly by the
// compiled classes
const KindExplicit = "explicit"

// Report is the dependency report written next to the jar
type Report struct {
	RuleLabel    string       `yaml:"rule_label"`
	Success      bool         `yaml:"success"`
	Dependencies []Dependency `yaml:"dependencies"`
}

// Dependency is one used classpath entry
type Dependency struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"`
}

// Generator builds dependency reports
type Generator struct {
	workers int
}

// NewGenerator creates a generator parsing classes on up to workers goroutines
func NewGenerator(workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{workers: workers}
}

// Generate lists the classpath entries that provide a class referenced by the
// compiled output, in classpath order. Classes defined by the compilation
// itself are never attributed to the classpath.
func (g *Generator) Generate(ctx context.Context, task model.CompilationTask) (Report, error) {
	var classFiles []string
	for _, dir := range []string{task.Directories.Classes, task.Directories.GeneratedClasses} {
		files, err := findClassFiles(dir)
		if err != nil {
			return Report{}, err
		}
		classFiles = append(classFiles, files...)
	}

	classes, err := g.parseAll(ctx, classFiles)
	if err != nil {
		return Report{}, err
	}

	index, err := buildIndex(ctx, task.Inputs.Classpath, g.workers)
	if err != nil {
		return Report{}, err
	}

	local := make(map[string]bool, len(classes))
	for _, class := range classes {
		local[class.Name] = true
	}

	used := make(map[int]bool)
	for _, class := range classes {
		for _, ref := range class.References {
			if local[ref] {
				continue
			}
			if i, ok := index.owner(ref); ok {
				used[i] = true
			}
		}
	}

	report := Report{
		RuleLabel:    task.Info.Label,
		Success:      true,
		Dependencies: []Dependency{},
	}
	for i, entry := range index.entries {
		if used[i] {
			report.Dependencies = append(report.Dependencies, Dependency{Path: entry, Kind: KindExplicit})
		}
	}

	ctxlog.FromContext(ctx).Debug("dependency report generated",
		"classes", len(classes),
		"classpath", len(index.entries),
		"used", len(report.Dependencies))
	return report, nil
}

// Execute generates the report for task and writes it to the task's report
// path
func (g *Generator) Execute(ctx context.Context, task model.CompilationTask) error {
	report, err := g.Generate(ctx, task)
	if err != nil {
		return err
	}
	return WriteReport(task.Outputs.JDeps, report)
}

func (g *Generator) parseAll(ctx context.Context, files []string) ([]ClassInfo, error) {
	classes := make([]ClassInfo, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, file := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read class file %s: %w", file, err)
			}
			info, err := ParseClass(data)
			if err != nil {
				return fmt.Errorf("failed to parse class file %s: %w", file, err)
			}
			classes[i] = info
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return classes, nil
}

// WriteReport encodes report as YAML at path
func WriteReport(path string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode dependency report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dependency report %s: %w", path, err)
	}
	return nil
}

// ReadReport decodes a report written by WriteReport
func ReadReport(path string) (Report, error) {
	var report Report
	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read dependency report %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to decode dependency report %s: %w", path, err)
	}
	return report, nil
}

func findClassFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(path, ".class") {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list class files in %s: %w", dir, err)
	}
	return files, nil
}
