// Package cache memoizes parsed trees per absolute file path, keyed by file
// modification time. Re-parses happen only when content actually changed.
package cache

import (
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jward/trellis/internal/ast"
)

// ParseFunc converts source text into a tree. Implemented by ast.ParseFile
// in production; tests may substitute their own.
type ParseFunc func(path string, src []byte) (*ast.Tree, error)

type entry struct {
	mtime time.Time
	tree  *ast.Tree
}

// Manager is a per-session tree cache. It is safe for concurrent use.
type Manager struct {
	parse ParseFunc

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// NewManager creates a Manager that parses with the given function.
func NewManager(parse ParseFunc) *Manager {
	return &Manager{
		parse:   parse,
		entries: make(map[string]entry),
	}
}

// GetTree returns the parsed tree for path, re-parsing only when the file's
// modification time differs from the cached entry (or force is set).
//
// Missing files, unreadable files, empty files, and parse failures all return
// nil -- "no analysis available", never an error. Concurrent requests for the
// same path share a single parse.
func (m *Manager) GetTree(path string, force bool) *ast.Tree {
	info, err := os.Stat(path)
	if err != nil {
		m.evict(path)
		return nil
	}
	mtime := info.ModTime()

	if !force {
		m.mu.RLock()
		e, ok := m.entries[path]
		m.mu.RUnlock()
		if ok && e.mtime.Equal(mtime) {
			return e.tree
		}
	}

	tree, _, _ := m.group.Do(path, func() (any, error) {
		return m.load(path, mtime), nil
	})
	if tree == nil {
		return nil
	}
	return tree.(*ast.Tree)
}

// load reads and parses path, replacing any stale entry. Returns nil on any
// soft failure; the stale entry is evicted either way.
func (m *Manager) load(path string, mtime time.Time) *ast.Tree {
	src, err := os.ReadFile(path)
	if err != nil || len(src) == 0 {
		m.evict(path)
		return nil
	}

	tree, err := m.parse(path, src)
	if err != nil {
		m.evict(path)
		return nil
	}

	m.mu.Lock()
	if old, ok := m.entries[path]; ok && old.tree != tree {
		old.tree.Close()
	}
	m.entries[path] = entry{mtime: mtime, tree: tree}
	m.mu.Unlock()

	return tree
}

// evict removes the entry for path, closing its tree.
func (m *Manager) evict(path string) {
	m.mu.Lock()
	if e, ok := m.entries[path]; ok {
		e.tree.Close()
		delete(m.entries, path)
	}
	m.mu.Unlock()
}

// Len returns the number of cached entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear drops all entries. Called at session boundaries; the only global
// reset operation the cache exposes.
func (m *Manager) Clear() {
	m.mu.Lock()
	for path, e := range m.entries {
		e.tree.Close()
		delete(m.entries, path)
	}
	m.mu.Unlock()
}
