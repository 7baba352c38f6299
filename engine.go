package trellis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/jward/trellis/internal/ast"
	"github.com/jward/trellis/internal/cache"
	"github.com/jward/trellis/internal/graph"
	"github.com/jward/trellis/internal/impact"
	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/resolve"
	"github.com/jward/trellis/internal/store"
	"github.com/jward/trellis/internal/symbols"
	"github.com/jward/trellis/internal/workspace"
)

// Engine is one analysis session over a workspace. It owns the tree cache,
// path resolver, dependency graph, and symbol index explicitly -- there is no
// shared global state between sessions.
type Engine struct {
	root string
	cfg  *Config
	log  *slog.Logger

	workers     int
	entryPoints []string

	cache    *cache.Manager
	resolver *resolve.Resolver
	graph    *graph.Graph
	index    *symbols.Index

	files []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the extraction worker pool. The default is one less
// than the number of available cores.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithConfig overrides the configuration loaded from .trellis.yml.
func WithConfig(cfg *Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLanguages restricts the scan to the named languages.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) { e.cfg.Languages = languages }
}

// WithEntryPoints extends the entry-point filename list used by orphan
// analysis.
func WithEntryPoints(names ...string) Option {
	return func(e *Engine) { e.cfg.EntryPoints = append(e.cfg.EntryPoints, names...) }
}

// WithLogger sets the engine's logger. The default is slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine for the workspace rooted at root. Configuration is
// read from .trellis.yml when present; options apply after.
func New(root string, opts ...Option) (*Engine, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("trellis: workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("trellis: workspace root %s is not a directory", root)
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}

	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}

	e := &Engine{
		root:    root,
		cfg:     cfg,
		log:     slog.Default(),
		workers: workers,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.entryPoints = e.cfg.entryPoints()
	e.cache = cache.NewManager(ast.ParseFile)
	e.resolver = resolve.NewResolver()
	e.graph = graph.New()
	e.index = symbols.NewIndex()
	return e, nil
}

// Close clears all session state: cached trees, graph, and index.
func (e *Engine) Close() error {
	e.Clear()
	return nil
}

// Clear discards all cached trees and graph/index state. Must run between
// independent analysis sessions over the same Engine.
func (e *Engine) Clear() {
	e.cache.Clear()
	e.graph = graph.New()
	e.index = symbols.NewIndex()
	e.files = nil
}

// Scan rebuilds the dependency graph and symbol index wholesale from the
// current workspace contents.
func (e *Engine) Scan(ctx context.Context) error {
	start := time.Now()

	files, err := workspace.ListFiles(e.root, workspace.Options{
		Languages:   e.cfg.Languages,
		ExcludeDirs: e.cfg.ExcludeDirs,
	})
	if err != nil {
		return fmt.Errorf("trellis: enumerate workspace: %w", err)
	}
	e.files = files

	builder := graph.NewBuilder(e.cache, e.resolver, e.workers)
	if err := builder.Build(ctx, e.graph, files); err != nil {
		return fmt.Errorf("trellis: build graph: %w", err)
	}

	indexer := symbols.NewIndexer(e.cache, e.workers)
	if err := indexer.IndexAll(ctx, e.index, files); err != nil {
		return fmt.Errorf("trellis: index symbols: %w", err)
	}

	e.log.Debug("scan complete",
		"root", e.root,
		"files", len(files),
		"edges", e.graph.EdgeCount(),
		"definitions", e.index.DefinitionCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Rescan refreshes the graph and index after the given files changed,
// returning the affected set computed from the pre-rescan graph. The mtime
// cache makes re-parsing of unchanged files free; the merge phases rebuild
// wholesale so the mirror invariant cannot drift.
func (e *Engine) Rescan(ctx context.Context, changed []string) (map[string]struct{}, error) {
	affected := impact.AffectedSet(e.graph, changed)
	if err := e.Scan(ctx); err != nil {
		return nil, err
	}
	return affected, nil
}

// Files returns the files covered by the last scan.
func (e *Engine) Files() []string {
	return e.files
}

// Graph returns the dependency graph built by the last scan.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Index returns the symbol index built by the last scan.
func (e *Engine) Index() *symbols.Index {
	return e.index
}

// Cache returns the session's tree cache.
func (e *Engine) Cache() *cache.Manager {
	return e.cache
}

// AffectedSet returns the reverse-reachability closure of changed.
func (e *Engine) AffectedSet(changed []string) map[string]struct{} {
	return impact.AffectedSet(e.graph, changed)
}

// Cycles returns all import cycles, skipping excluded library paths.
func (e *Engine) Cycles() [][]string {
	return e.graph.Cycles(e.cfg.libraryPrefixes())
}

// DeadSymbols returns exported definitions with no detected use in any
// dependent file.
func (e *Engine) DeadSymbols() []symbols.Definition {
	return impact.DeadSymbols(e.graph, e.index)
}

// Orphans returns files with no dependents, excluding entry points.
func (e *Engine) Orphans() []string {
	return impact.Orphans(e.graph, e.entryPoints)
}

// Snapshot assembles the last scan's results for persistence.
func (e *Engine) Snapshot() *store.Snapshot {
	snap := &store.Snapshot{}
	for _, f := range e.files {
		language := ""
		if l, ok := lang.ForPath(f); ok {
			language = l.Name
		}
		snap.Files = append(snap.Files, store.File{Path: f, Language: language})
	}
	for _, src := range e.graph.Files() {
		for _, dst := range e.graph.Dependencies(src) {
			snap.Edges = append(snap.Edges, store.Edge{Src: src, Dst: dst})
		}
	}
	for _, def := range e.index.AllDefinitions() {
		snap.Symbols = append(snap.Symbols, store.Symbol{
			Name:     def.Name,
			Kind:     string(def.Kind),
			File:     def.File,
			Line:     def.Line,
			Exported: def.Exported,
		})
	}
	return snap
}
