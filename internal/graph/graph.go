// Package graph maintains the workspace's forward and reverse import maps.
// The two maps are built together in one merge pass and are always mirror
// images of each other.
package graph

import (
	"sort"
	"strings"
	"sync"
)

// Graph holds file-level import adjacency. All methods are safe for
// concurrent use once built.
type Graph struct {
	mu      sync.RWMutex
	forward map[string]map[string]struct{} // file -> files it imports
	reverse map[string]map[string]struct{} // file -> files importing it
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// fileEdges is one worker's pure extraction result for a single file.
type fileEdges struct {
	file    string
	targets []string
}

// merge replaces the graph's contents with the given per-file edge lists.
// Running serially after parallel extraction keeps the mirror invariant
// without per-insert locking.
func (g *Graph) merge(all []fileEdges) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.forward = make(map[string]map[string]struct{}, len(all))
	g.reverse = make(map[string]map[string]struct{}, len(all))

	for _, fe := range all {
		if g.forward[fe.file] == nil {
			g.forward[fe.file] = make(map[string]struct{})
		}
		for _, target := range fe.targets {
			g.forward[fe.file][target] = struct{}{}
			if g.reverse[target] == nil {
				g.reverse[target] = make(map[string]struct{})
			}
			g.reverse[target][fe.file] = struct{}{}
		}
	}
}

// Add records file and its forward edges, updating both maps so the mirror
// invariant holds. Used to rehydrate a graph from a persisted snapshot;
// Build passes go through merge instead.
func (g *Graph) Add(file string, targets ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.forward[file] == nil {
		g.forward[file] = make(map[string]struct{})
	}
	for _, target := range targets {
		g.forward[file][target] = struct{}{}
		if g.reverse[target] == nil {
			g.reverse[target] = make(map[string]struct{})
		}
		g.reverse[target][file] = struct{}{}
	}
}

// Dependencies returns the files that path imports, sorted.
func (g *Graph) Dependencies(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.forward[path])
}

// Dependents returns the files that import path, sorted. An unknown path
// yields an empty list.
func (g *Graph) Dependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.reverse[path])
}

// Files returns every file that appeared in the build pass, sorted.
func (g *Graph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(toSet(g.forward))
}

// EdgeCount returns the number of forward edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, targets := range g.forward {
		n += len(targets)
	}
	return n
}

// Cycles detects import cycles with a depth-first search from every
// unvisited node, tracking an explicit recursion stack. Each cycle is
// reported once as the sub-path from the repeated node through the current
// node, with the repeated node closing the loop. Files under an excluded
// prefix are skipped both as roots and as traversal targets.
func (g *Graph) Cycles(excludePrefixes []string) [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	excluded := func(p string) bool {
		for _, prefix := range excludePrefixes {
			if strings.Contains(p, prefix) {
				return true
			}
		}
		return false
	}

	visited := make(map[string]bool)
	onStack := make(map[string]int) // node -> index in stack
	var stack []string
	var cycles [][]string

	var walk func(node string)
	walk = func(node string) {
		visited[node] = true
		onStack[node] = len(stack)
		stack = append(stack, node)

		for _, next := range sortedKeys(g.forward[node]) {
			if excluded(next) {
				continue
			}
			if idx, ok := onStack[next]; ok {
				cycle := make([]string, 0, len(stack)-idx+1)
				cycle = append(cycle, stack[idx:]...)
				cycle = append(cycle, next)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[next] {
				walk(next)
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, node)
	}

	for _, root := range sortedKeys(toSet(g.forward)) {
		if !visited[root] && !excluded(root) {
			walk(root)
		}
	}
	return cycles
}

func toSet(m map[string]map[string]struct{}) map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return set
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
