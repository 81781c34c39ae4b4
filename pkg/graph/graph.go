// Package graph orders the stages of the compilation pipeline and runs them.
package graph

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// Graph represents a directed acyclic graph of stages
type Graph struct {
	stages []Stage
	byName map[string]Stage
}

// NewGraph creates a new empty graph
func NewGraph() *Graph {
	return &Graph{
		byName: make(map[string]Stage),
	}
}

// AddStage adds a stage to the graph
func (g *Graph) AddStage(stage Stage) error {
	if _, exists := g.byName[stage.Name()]; exists {
		return fmt.Errorf("stage %s already exists", stage.Name())
	}
	g.stages = append(g.stages, stage)
	g.byName[stage.Name()] = stage
	return nil
}

// GetStage returns a stage by its name
func (g *Graph) GetStage(name string) (Stage, error) {
	stage, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("stage %s not found", name)
	}
	return stage, nil
}

// GetStages returns all stages in insertion order
func (g *Graph) GetStages() []Stage {
	return g.stages
}

// TopologicalSort returns stages in execution order, dependencies first
func (g *Graph) TopologicalSort() ([]Stage, error) {
	for _, stage := range g.stages {
		for _, dep := range stage.DependsOn() {
			if _, ok := g.byName[dep]; !ok {
				return nil, fmt.Errorf("stage %s depends on unknown stage %s", stage.Name(), dep)
			}
		}
	}

	var edges []toposort.Edge
	for _, stage := range g.stages {
		if len(stage.DependsOn()) == 0 {
			edges = append(edges, toposort.Edge{nil, stage.Name()})
			continue
		}
		for _, dep := range stage.DependsOn() {
			edges = append(edges, toposort.Edge{dep, stage.Name()})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("cycle detected in stage graph: %w", err)
	}

	result := make([]Stage, 0, len(g.stages))
	for _, name := range sorted {
		if name == nil {
			continue
		}
		result = append(result, g.byName[name.(string)])
	}
	if len(result) != len(g.stages) {
		return nil, fmt.Errorf("cycle detected in stage graph")
	}
	return result, nil
}
