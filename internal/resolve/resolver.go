// Package resolve turns import specifiers into canonical workspace file
// paths, applying project-scoped alias substitution, extension elision, and
// directory-index fallback.
package resolve

import (
	"path/filepath"
	"strings"
	"sync"
)

// probeExtensions is the fixed probe order: source extensions first, then
// data/asset extensions.
var probeExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".d.ts",
	".json", ".css", ".scss", ".svg", ".vue",
}

// projectMarkers are the files that identify a project root, checked in
// order while walking upward.
var projectMarkers = []string{"tsconfig.json", "jsconfig.json", "package.json", ".git"}

// Resolver resolves specifiers against a known-file set. Project roots and
// alias tables are discovered once and memoized per directory/root; the
// resolver performs no other filesystem I/O.
type Resolver struct {
	mu      sync.Mutex
	roots   map[string]string            // dir -> nearest project root ("" = none)
	aliases map[string]map[string]string // project root -> specifier prefix -> target prefix
}

// NewResolver creates an empty Resolver. Alias tables load lazily on first
// resolution inside each project root.
func NewResolver() *Resolver {
	return &Resolver{
		roots:   make(map[string]string),
		aliases: make(map[string]map[string]string),
	}
}

// Resolve maps a specifier found in a file under sourceDir to a workspace
// path present in known, or "" when no probe matches. contextFile, when
// non-empty, selects the project root that scopes alias substitution;
// otherwise sourceDir does.
//
// Probe order, short-circuiting on first hit:
//  1. alias substitution against the owning project's alias table
//  2. trailing .js/.jsx elision (a .js specifier may resolve to a .ts file)
//  3. extension probes on the substituted base
//  4. the unmodified original specifier joined to sourceDir
//  5. directory-index probes (base/index.<ext>)
func (r *Resolver) Resolve(sourceDir, specifier string, known map[string]bool, contextFile string) string {
	if specifier == "" {
		return ""
	}

	ctxDir := sourceDir
	if contextFile != "" {
		ctxDir = filepath.Dir(contextFile)
	}
	root := r.ProjectRoot(ctxDir)

	base := specifier
	baseDir := sourceDir
	if root != "" {
		if sub, ok := r.substituteAlias(root, specifier); ok {
			base = sub
			if filepath.IsAbs(base) {
				baseDir = ""
			} else {
				baseDir = root
			}
		}
	}

	base = trimScriptExt(base)

	candidate := joinClean(baseDir, base)

	for _, ext := range probeExtensions {
		if p := candidate + ext; known[p] {
			return p
		}
	}

	if p := joinClean(sourceDir, specifier); known[p] {
		return p
	}

	for _, ext := range probeExtensions {
		if p := filepath.Join(candidate, "index"+ext); known[p] {
			return p
		}
	}

	return ""
}

// substituteAlias applies the first alias whose prefix matches specifier
// exactly or as a path-segment prefix. Longer prefixes win.
func (r *Resolver) substituteAlias(root, specifier string) (string, bool) {
	table := r.aliasTable(root)

	var bestPrefix, bestTarget string
	for prefix, target := range table {
		if specifier != prefix && !strings.HasPrefix(specifier, prefix+"/") {
			continue
		}
		if len(prefix) > len(bestPrefix) {
			bestPrefix, bestTarget = prefix, target
		}
	}
	if bestPrefix == "" {
		return "", false
	}
	return bestTarget + specifier[len(bestPrefix):], true
}

// ProjectRoot returns the nearest ancestor of dir containing a project
// marker, or "" when none exists. Every directory visited on the walk is
// memoized.
func (r *Resolver) ProjectRoot(dir string) string {
	dir = filepath.Clean(dir)

	r.mu.Lock()
	if root, ok := r.roots[dir]; ok {
		r.mu.Unlock()
		return root
	}
	r.mu.Unlock()

	var visited []string
	cur := dir
	root := ""
	for {
		r.mu.Lock()
		cached, ok := r.roots[cur]
		r.mu.Unlock()
		if ok {
			root = cached
			break
		}
		visited = append(visited, cur)
		if hasProjectMarker(cur) {
			root = cur
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	r.mu.Lock()
	for _, d := range visited {
		r.roots[d] = root
	}
	r.mu.Unlock()
	return root
}

// aliasTable returns the alias table for a project root, loading it on first
// use. Tables are never mutated after load within a session.
func (r *Resolver) aliasTable(root string) map[string]string {
	r.mu.Lock()
	table, ok := r.aliases[root]
	r.mu.Unlock()
	if ok {
		return table
	}

	table = loadAliasTable(root)

	r.mu.Lock()
	if existing, ok := r.aliases[root]; ok {
		table = existing
	} else {
		r.aliases[root] = table
	}
	r.mu.Unlock()
	return table
}

// trimScriptExt strips a trailing .js/.jsx suffix. Source written against
// ESM conventions imports ./x.js even when the file on disk is ./x.ts.
func trimScriptExt(s string) string {
	if t, ok := strings.CutSuffix(s, ".js"); ok {
		return t
	}
	if t, ok := strings.CutSuffix(s, ".jsx"); ok {
		return t
	}
	return s
}

func joinClean(dir, p string) string {
	if dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}
