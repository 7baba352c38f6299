package graph

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jward/trellis/internal/cache"
	"github.com/jward/trellis/internal/resolve"
)

// Builder extracts per-file import edges in parallel and merges them into a
// Graph. Extraction is side-effect-free per file; the merge runs serially.
type Builder struct {
	cache    *cache.Manager
	resolver *resolve.Resolver
	workers  int
}

// NewBuilder creates a Builder. workers bounds the extraction pool; values
// below 1 are clamped to 1.
func NewBuilder(c *cache.Manager, r *resolve.Resolver, workers int) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{cache: c, resolver: r, workers: workers}
}

// Build clears g and rebuilds both maps from the given file set. Files that
// fail to parse contribute no edges but still appear as graph nodes.
// Extraction order across files never affects the final state: each worker
// writes only its own result slot and all aggregation targets are sets.
func (b *Builder) Build(ctx context.Context, g *Graph, files []string) error {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[filepath.Clean(f)] = true
	}

	results := make([]fileEdges, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers)
	for i, file := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fileEdges{
				file:    filepath.Clean(file),
				targets: b.extractEdges(file, known),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.merge(results)
	return nil
}

// extractEdges resolves every import specifier in file against the known
// set. Unresolvable and bare-library specifiers yield no edge; self-imports
// are dropped.
func (b *Builder) extractEdges(file string, known map[string]bool) []string {
	tree := b.cache.GetTree(file, false)
	if tree == nil {
		return nil
	}

	query, err := tree.Language.ImportQuery()
	if err != nil {
		return nil
	}

	file = filepath.Clean(file)
	dir := filepath.Dir(file)
	set := make(map[string]struct{})
	for _, m := range tree.FindAll(query) {
		node, ok := m.Capture("source")
		if !ok {
			continue
		}
		spec := unquote(node.Text())
		if spec == "" {
			continue
		}
		target := b.resolver.Resolve(dir, spec, known, file)
		if target == "" || target == file {
			continue
		}
		set[target] = struct{}{}
	}

	if len(set) == 0 {
		return nil
	}
	targets := make([]string, 0, len(set))
	for t := range set {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// unquote strips the surrounding quotes from a string-literal node's text.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}
