package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/ast"
	"github.com/jward/trellis/internal/cache"
	"github.com/jward/trellis/internal/resolve"
)

// newFixture writes the given files under a fresh project root and returns
// (root, absolute paths in input order).
func newFixture(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))

	var paths []string
	for name, content := range files {
		abs := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
		paths = append(paths, abs)
	}
	return root, paths
}

func newBuilder() *Builder {
	return NewBuilder(cache.NewManager(ast.ParseFile), resolve.NewResolver(), 4)
}

func TestBuild_StaticImports(t *testing.T) {
	root, paths := newFixture(t, map[string]string{
		"src/main.ts":       "import { add } from './util/math'\nadd(1, 2)\n",
		"src/util/math.ts":  "export function add(a: number, b: number) { return a + b }\n",
		"src/util/other.ts": "export const unused = 1\n",
	})

	g := New()
	require.NoError(t, newBuilder().Build(context.Background(), g, paths))

	main := filepath.Join(root, "src/main.ts")
	math := filepath.Join(root, "src/util/math.ts")
	assert.Equal(t, []string{math}, g.Dependencies(main))
	assert.Equal(t, []string{main}, g.Dependents(math))
	assert.Empty(t, g.Dependents(filepath.Join(root, "src/util/other.ts")))
}

func TestBuild_ReexportAndDynamicImportAndRequire(t *testing.T) {
	root, paths := newFixture(t, map[string]string{
		"src/barrel.ts": "export { add } from './math'\n",
		"src/lazy.ts":   "const mod = import('./math')\n",
		"src/legacy.js": "const math = require('./math')\n",
		"src/math.ts":   "export function add(a: number, b: number) { return a + b }\n",
	})

	g := New()
	require.NoError(t, newBuilder().Build(context.Background(), g, paths))

	math := filepath.Join(root, "src/math.ts")
	for _, name := range []string{"src/barrel.ts", "src/lazy.ts", "src/legacy.js"} {
		assert.Equal(t, []string{math}, g.Dependencies(filepath.Join(root, name)), name)
	}
	assert.Len(t, g.Dependents(math), 3)
}

func TestBuild_BareSpecifiersYieldNoEdges(t *testing.T) {
	_, paths := newFixture(t, map[string]string{
		"src/main.ts": "import { useState } from 'react'\nimport fs from 'node:fs'\n",
	})

	g := New()
	require.NoError(t, newBuilder().Build(context.Background(), g, paths))
	assert.Empty(t, g.Dependencies(paths[0]))
}

func TestBuild_UnparseableFileContributesNoEdges(t *testing.T) {
	root, paths := newFixture(t, map[string]string{
		"src/ok.ts":    "import './empty'\nimport { x } from './also-ok'\n",
		"src/empty.ts": "",
		"src/also-ok.ts": "export const x = 1\n",
	})

	g := New()
	require.NoError(t, newBuilder().Build(context.Background(), g, paths))

	ok := filepath.Join(root, "src/ok.ts")
	// The empty file still resolves as an edge target (it is a known file);
	// it simply contributes no outgoing edges of its own.
	assert.Contains(t, g.Dependencies(ok), filepath.Join(root, "src/also-ok.ts"))
	assert.Empty(t, g.Dependencies(filepath.Join(root, "src/empty.ts")))
}

func TestBuild_Idempotent(t *testing.T) {
	_, paths := newFixture(t, map[string]string{
		"src/a.ts": "import './b'\n",
		"src/b.ts": "import './c'\nexport {}\n",
		"src/c.ts": "export {}\n",
	})

	b := newBuilder()
	g := New()
	require.NoError(t, b.Build(context.Background(), g, paths))
	first := snapshotEdges(g)

	require.NoError(t, b.Build(context.Background(), g, paths))
	assert.Equal(t, first, snapshotEdges(g))
}

func TestBuild_SelfImportDropped(t *testing.T) {
	_, paths := newFixture(t, map[string]string{
		"src/a.ts": "import './a'\nexport {}\n",
	})

	g := New()
	require.NoError(t, newBuilder().Build(context.Background(), g, paths))
	assert.Empty(t, g.Dependencies(paths[0]))
}

func snapshotEdges(g *Graph) map[string][]string {
	out := make(map[string][]string)
	for _, f := range g.Files() {
		out[f] = g.Dependencies(f)
	}
	return out
}
