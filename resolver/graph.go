/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"

	"bennypowers.dev/potrim/schema"
	"bennypowers.dev/potrim/token"
)

// DependencyGraph represents a directed graph of token alias
// dependencies.
type DependencyGraph struct {
	dependencies map[string][]string
	dependents   map[string][]string
	nodes        map[string]bool
}

// BuildDependencyGraph builds a dependency graph from a flattened token
// table. Alias references inside composite and array values contribute
// edges like scalar values do.
func BuildDependencyGraph(tokens token.ResolvedTokens) *DependencyGraph {
	graph := &DependencyGraph{
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
		nodes:        make(map[string]bool),
	}

	for name := range tokens {
		graph.nodes[name] = true
	}

	for name, tok := range tokens {
		deps := extractDependencies(tok.Value)
		if len(deps) > 0 {
			graph.dependencies[name] = deps
			for _, dep := range deps {
				graph.dependents[dep] = append(graph.dependents[dep], name)
			}
		}
	}

	return graph
}

// extractDependencies extracts token names a value depends on, walking
// nested composite values.
func extractDependencies(value any) []string {
	var deps []string
	switch v := value.(type) {
	case string:
		deps = append(deps, token.ExtractAliases(v)...)
	case map[string]any:
		for _, child := range v {
			deps = append(deps, extractDependencies(child)...)
		}
	case []any:
		for _, elem := range v {
			deps = append(deps, extractDependencies(elem)...)
		}
	}
	return deps
}

// Dependencies returns the list of tokens that the given token depends on.
func (g *DependencyGraph) Dependencies(tokenName string) []string {
	if deps, ok := g.dependencies[tokenName]; ok {
		return deps
	}
	return []string{}
}

// Dependents returns the list of tokens that depend on the given token.
func (g *DependencyGraph) Dependents(tokenName string) []string {
	if deps, ok := g.dependents[tokenName]; ok {
		return deps
	}
	return []string{}
}

// FindCycle returns the cycle path if one exists, or nil if no cycle.
func (g *DependencyGraph) FindCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := []string{}

	for node := range g.nodes {
		if cycle := g.findCycleDFS(node, visited, recStack, path); cycle != nil {
			return cycle
		}
	}
	return nil
}

func (g *DependencyGraph) findCycleDFS(node string, visited, recStack map[string]bool, path []string) []string {
	if recStack[node] {
		cycleStart := -1
		for i, n := range path {
			if n == node {
				cycleStart = i
				break
			}
		}
		if cycleStart == -1 {
			panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
		}
		return append(path[cycleStart:], node)
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.dependencies[node] {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}

// TopologicalSort returns token names in dependency order (dependencies
// first). Returns error if the graph contains a cycle.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrCircularReference, cycle)
	}

	visited := make(map[string]bool)
	result := []string{}

	for node := range g.nodes {
		if !visited[node] {
			g.topologicalSortDFS(node, visited, &result)
		}
	}

	return result, nil
}

func (g *DependencyGraph) topologicalSortDFS(node string, visited map[string]bool, stack *[]string) {
	visited[node] = true

	for _, dep := range g.dependencies[node] {
		if !visited[dep] && g.nodes[dep] {
			g.topologicalSortDFS(dep, visited, stack)
		}
	}

	*stack = append(*stack, node)
}
