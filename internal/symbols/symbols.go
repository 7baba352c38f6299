// Package symbols builds the workspace symbol index: qualified definitions
// and raw identifier reference occurrences. The index is name-based; it does
// not attempt binding resolution.
package symbols

import (
	"sort"
	"sync"
)

// Kind classifies a definition.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindVariable Kind = "variable" // function-valued variable
)

// Definition is a recorded symbol definition. Methods are qualified as
// Class.method. Names are not unique; the index keeps an ordered list per
// name, deduplicated by (file, line).
type Definition struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Exported bool   `json:"exported"`
}

// Reference is one bare identifier occurrence, not bound to a definition.
type Reference struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// Location is a (file, line) pair returned by definition lookups.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Index accumulates definitions and references across files. Safe for
// concurrent reads once built.
type Index struct {
	mu       sync.RWMutex
	defs     map[string][]Definition
	refs     map[string][]Reference
	refFiles map[string]map[string]bool // name -> set of files referencing it
	exported []Definition
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		defs:     make(map[string][]Definition),
		refs:     make(map[string][]Reference),
		refFiles: make(map[string]map[string]bool),
	}
}

// fileSymbols is one worker's pure extraction result for a single file.
type fileSymbols struct {
	defs []Definition
	refs []Reference
}

// merge replaces the index contents with the given per-file results,
// deduplicating (file, line) pairs per name. Serial, after the parallel
// extraction phase.
func (ix *Index) merge(all []fileSymbols) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.defs = make(map[string][]Definition)
	ix.refs = make(map[string][]Reference)
	ix.refFiles = make(map[string]map[string]bool)
	ix.exported = nil

	type occurrence struct {
		name string
		file string
		line int
	}
	seenDef := make(map[occurrence]bool)
	seenRef := make(map[occurrence]bool)

	for _, fs := range all {
		for _, d := range fs.defs {
			occ := occurrence{d.Name, d.File, d.Line}
			if seenDef[occ] {
				continue
			}
			seenDef[occ] = true
			ix.defs[d.Name] = append(ix.defs[d.Name], d)
			if d.Exported {
				ix.exported = append(ix.exported, d)
			}
		}
		for _, r := range fs.refs {
			occ := occurrence{r.Name, r.File, r.Line}
			if seenRef[occ] {
				continue
			}
			seenRef[occ] = true
			ix.refs[r.Name] = append(ix.refs[r.Name], r)
			if ix.refFiles[r.Name] == nil {
				ix.refFiles[r.Name] = make(map[string]bool)
			}
			ix.refFiles[r.Name][r.File] = true
		}
	}

	sort.Slice(ix.exported, func(i, j int) bool {
		if ix.exported[i].File != ix.exported[j].File {
			return ix.exported[i].File < ix.exported[j].File
		}
		return ix.exported[i].Line < ix.exported[j].Line
	})
}

// Definition returns the location of the first recorded definition for name,
// or nil when the name is unknown.
func (ix *Index) Definition(name string) *Location {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	defs := ix.defs[name]
	if len(defs) == 0 {
		return nil
	}
	return &Location{File: defs[0].File, Line: defs[0].Line}
}

// Definitions returns all recorded definitions for name, in insertion order.
func (ix *Index) Definitions(name string) []Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Definition, len(ix.defs[name]))
	copy(out, ix.defs[name])
	return out
}

// References returns every recorded occurrence of name.
func (ix *Index) References(name string) []Reference {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Reference, len(ix.refs[name]))
	copy(out, ix.refs[name])
	return out
}

// HasReferenceIn reports whether name occurs anywhere in file.
func (ix *Index) HasReferenceIn(name, file string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.refFiles[name][file]
}

// Exported returns all export-marked definitions, ordered by (file, line).
// Consumed by dead-code analysis.
func (ix *Index) Exported() []Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Definition, len(ix.exported))
	copy(out, ix.exported)
	return out
}

// AllDefinitions returns every definition record, ordered by (file, line,
// name). Used for snapshot persistence.
func (ix *Index) AllDefinitions() []Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Definition
	for _, defs := range ix.defs {
		out = append(out, defs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DefinitionCount returns the number of distinct definition records.
func (ix *Index) DefinitionCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, defs := range ix.defs {
		n += len(defs)
	}
	return n
}
