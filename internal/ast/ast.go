// Package ast wraps tree-sitter parse trees behind the small surface the
// engine needs: node-kind queries, named-field lookup, child enumeration,
// pattern matching with capture groups, and source-range/text extraction.
package ast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/trellis/internal/lang"
)

// Tree is an immutable parsed source file. It owns the underlying tree-sitter
// tree and must be closed when evicted from the cache.
type Tree struct {
	Language *lang.Language

	src  []byte
	tree *sitter.Tree
}

// Node is a single node in a Tree.
type Node struct {
	n    *sitter.Node
	tree *Tree
}

// Point is a zero-based source position.
type Point struct {
	Line int
	Col  int
}

// Range is a node's source extent. Lines are 1-based, columns 0-based.
type Range struct {
	Start Point
	End   Point
}

// Match is one result of a pattern query, with named captures.
type Match struct {
	captures map[string]Node
}

// Parse parses src with the given language's grammar. A fresh parser is
// created per call since tree-sitter parsers are not goroutine-safe.
func Parse(l *lang.Language, src []byte) (*Tree, error) {
	p := l.NewParser()
	defer p.Close()

	t, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Name, err)
	}
	return &Tree{Language: l, src: src, tree: t}, nil
}

// ParseFile parses src using the grammar registered for path's extension.
// Returns an error for unsupported extensions.
func ParseFile(path string, src []byte) (*Tree, error) {
	l, ok := lang.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("parse %s: unsupported extension", path)
	}
	return Parse(l, src)
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Root returns the tree's root node.
func (t *Tree) Root() Node {
	return Node{n: t.tree.RootNode(), tree: t}
}

// Source returns the source text the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.src
}

// FindAll runs a compiled query against the whole tree and returns every
// match with its named captures resolved. Predicate filters (#eq? etc.) are
// applied.
func (t *Tree) FindAll(q *sitter.Query) []Match {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, t.tree.RootNode())

	var matches []Match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, t.src)
		if len(m.Captures) == 0 {
			continue
		}
		caps := make(map[string]Node, len(m.Captures))
		for _, c := range m.Captures {
			caps[q.CaptureNameForId(c.Index)] = Node{n: c.Node, tree: t}
		}
		matches = append(matches, Match{captures: caps})
	}
	return matches
}

// Capture returns the node captured under name, or a zero Node if absent.
func (m Match) Capture(name string) (Node, bool) {
	n, ok := m.captures[name]
	return n, ok
}

// IsZero reports whether the node is absent.
func (n Node) IsZero() bool {
	return n.n == nil
}

// Kind returns the node's grammar type name.
func (n Node) Kind() string {
	return n.n.Type()
}

// Field returns the child under the given field name, or a zero Node.
func (n Node) Field(name string) Node {
	child := n.n.ChildByFieldName(name)
	if child == nil {
		return Node{}
	}
	return Node{n: child, tree: n.tree}
}

// Children returns all named children in order.
func (n Node) Children() []Node {
	count := int(n.n.NamedChildCount())
	children := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, Node{n: n.n.NamedChild(i), tree: n.tree})
	}
	return children
}

// Text returns the node's source text.
func (n Node) Text() string {
	return string(n.tree.src[n.n.StartByte():n.n.EndByte()])
}

// Range returns the node's source extent with 1-based lines.
func (n Node) Range() Range {
	start := n.n.StartPoint()
	end := n.n.EndPoint()
	return Range{
		Start: Point{Line: int(start.Row) + 1, Col: int(start.Column)},
		End:   Point{Line: int(end.Row) + 1, Col: int(end.Column)},
	}
}

// StartLine returns the node's 1-based start line.
func (n Node) StartLine() int {
	return int(n.n.StartPoint().Row) + 1
}
