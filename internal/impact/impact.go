// Package impact holds the consumers built directly on the graph and index:
// incremental affected-set propagation, dead-export detection, and orphan
// detection.
package impact

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/trellis/internal/graph"
	"github.com/jward/trellis/internal/symbols"
)

// AffectedSet computes the closure of changed under reverse-dependency
// reachability: the changed files plus everything that transitively imports
// them. The visited set makes the walk safe on cyclic graphs.
func AffectedSet(g *graph.Graph, changed []string) map[string]struct{} {
	affected := make(map[string]struct{}, len(changed))
	queue := make([]string, 0, len(changed))
	for _, f := range changed {
		f = filepath.Clean(f)
		if _, ok := affected[f]; !ok {
			affected[f] = struct{}{}
			queue = append(queue, f)
		}
	}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependents(file) {
			if _, ok := affected[dep]; ok {
				continue
			}
			affected[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	return affected
}

// DeadSymbols reports exported definitions whose bare name (the last segment
// after any Class. qualifier) occurs in no file that depends on the defining
// file. The check is name-based: any same-named identifier in a dependent
// counts as a use.
func DeadSymbols(g *graph.Graph, ix *symbols.Index) []symbols.Definition {
	var dead []symbols.Definition
	for _, def := range ix.Exported() {
		bare := bareName(def.Name)
		used := false
		for _, dependent := range g.Dependents(def.File) {
			if ix.HasReferenceIn(bare, dependent) {
				used = true
				break
			}
		}
		if !used {
			dead = append(dead, def)
		}
	}
	return dead
}

// Orphans returns indexed files with no dependents, excluding designated
// entry-point filenames, which are always considered referenced.
func Orphans(g *graph.Graph, entryPoints []string) []string {
	entry := make(map[string]bool, len(entryPoints))
	for _, e := range entryPoints {
		entry[e] = true
	}

	var orphans []string
	for _, file := range g.Files() {
		if entry[filepath.Base(file)] {
			continue
		}
		if len(g.Dependents(file)) == 0 {
			orphans = append(orphans, file)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// bareName strips any qualifying prefix: "Foo.bar" -> "bar".
func bareName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
