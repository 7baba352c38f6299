package cache

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/ast"
)

// countingParse wraps ast.ParseFile and counts invocations.
func countingParse(calls *atomic.Int64) ParseFunc {
	return func(path string, src []byte) (*ast.Tree, error) {
		calls.Add(1)
		return ast.ParseFile(path, src)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGetTree_ParsesAndCaches(t *testing.T) {
	var calls atomic.Int64
	m := NewManager(countingParse(&calls))

	path := filepath.Join(t.TempDir(), "a.ts")
	writeFile(t, path, "export const x = 1\n")

	first := m.GetTree(path, false)
	require.NotNil(t, first)
	second := m.GetTree(path, false)
	require.NotNil(t, second)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, m.Len())
}

func TestGetTree_Freshness(t *testing.T) {
	m := NewManager(ast.ParseFile)

	path := filepath.Join(t.TempDir(), "a.ts")
	writeFile(t, path, "export const stale = 1\n")

	tree := m.GetTree(path, false)
	require.NotNil(t, tree)
	assert.Contains(t, string(tree.Source()), "stale")

	// Rewrite with a distinct mtime so the cache must re-parse.
	writeFile(t, path, "export const fresh = 2\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	updated := m.GetTree(path, false)
	require.NotNil(t, updated)
	assert.Contains(t, string(updated.Source()), "fresh")
	assert.NotContains(t, string(updated.Source()), "stale")
}

func TestGetTree_SameMtimeHitsCache(t *testing.T) {
	var calls atomic.Int64
	m := NewManager(countingParse(&calls))

	path := filepath.Join(t.TempDir(), "a.ts")
	writeFile(t, path, "export const x = 1\n")
	mtime := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	require.NotNil(t, m.GetTree(path, false))
	require.NotNil(t, m.GetTree(path, false))
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetTree_Force(t *testing.T) {
	var calls atomic.Int64
	m := NewManager(countingParse(&calls))

	path := filepath.Join(t.TempDir(), "a.ts")
	writeFile(t, path, "export const x = 1\n")

	require.NotNil(t, m.GetTree(path, false))
	require.NotNil(t, m.GetTree(path, true))
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetTree_MissingFile(t *testing.T) {
	m := NewManager(ast.ParseFile)
	assert.Nil(t, m.GetTree(filepath.Join(t.TempDir(), "nope.ts"), false))
}

func TestGetTree_EmptyFile(t *testing.T) {
	m := NewManager(ast.ParseFile)
	path := filepath.Join(t.TempDir(), "empty.ts")
	writeFile(t, path, "")
	assert.Nil(t, m.GetTree(path, false))
	assert.Equal(t, 0, m.Len())
}

func TestGetTree_DeletedFileEvicts(t *testing.T) {
	m := NewManager(ast.ParseFile)
	path := filepath.Join(t.TempDir(), "a.ts")
	writeFile(t, path, "export const x = 1\n")

	require.NotNil(t, m.GetTree(path, false))
	require.Equal(t, 1, m.Len())

	require.NoError(t, os.Remove(path))
	assert.Nil(t, m.GetTree(path, false))
	assert.Equal(t, 0, m.Len())
}

func TestClear(t *testing.T) {
	m := NewManager(ast.ParseFile)
	dir := t.TempDir()
	for _, name := range []string{"a.ts", "b.ts"} {
		path := filepath.Join(dir, name)
		writeFile(t, path, "export const x = 1\n")
		require.NotNil(t, m.GetTree(path, false))
	}
	require.Equal(t, 2, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestGetTree_ConcurrentRequestsShareOneParse(t *testing.T) {
	var calls atomic.Int64
	m := NewManager(countingParse(&calls))

	path := filepath.Join(t.TempDir(), "a.ts")
	writeFile(t, path, "export const x = 1\n")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, m.GetTree(path, false))
		}()
	}
	wg.Wait()

	// Some goroutines may hit the cache after the first parse lands; the
	// singleflight group keeps the parse count well below the caller count.
	assert.Less(t, calls.Load(), int64(16))
}
