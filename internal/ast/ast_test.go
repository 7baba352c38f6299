package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/lang"
)

func parseTS(t *testing.T, src string) *Tree {
	t.Helper()
	l, ok := lang.ByName("typescript")
	require.True(t, ok)
	tree, err := Parse(l, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParseFile_PicksGrammarByExtension(t *testing.T) {
	tree, err := ParseFile("/w/a.tsx", []byte("const x = <div/>\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "tsx", tree.Language.Name)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, err := ParseFile("/w/a.py", []byte("x = 1\n"))
	assert.Error(t, err)
}

func TestRootAndKind(t *testing.T) {
	tree := parseTS(t, "function foo() {}\n")
	root := tree.Root()
	assert.Equal(t, "program", root.Kind())
	children := root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "function_declaration", children[0].Kind())
}

func TestFieldAndText(t *testing.T) {
	tree := parseTS(t, "class Widget {}\n")
	decl := tree.Root().Children()[0]
	name := decl.Field("name")
	require.False(t, name.IsZero())
	assert.Equal(t, "Widget", name.Text())

	assert.True(t, decl.Field("no_such_field").IsZero())
}

func TestRangeIsOneBasedLines(t *testing.T) {
	tree := parseTS(t, "const a = 1\nconst b = 2\n")
	children := tree.Root().Children()
	require.Len(t, children, 2)

	r := children[1].Range()
	assert.Equal(t, 2, r.Start.Line)
	assert.Equal(t, 0, r.Start.Col)
	assert.Equal(t, 2, children[1].StartLine())
}

func TestFindAll_ImportSources(t *testing.T) {
	tree := parseTS(t, "import { a } from './a'\nimport b from './b'\nconst c = 1\n")
	q, err := tree.Language.ImportQuery()
	require.NoError(t, err)

	matches := tree.FindAll(q)
	var sources []string
	for _, m := range matches {
		if n, ok := m.Capture("source"); ok {
			sources = append(sources, n.Text())
		}
	}
	assert.ElementsMatch(t, []string{"'./a'", "'./b'"}, sources)
}

func TestFindAll_RequirePredicateFilters(t *testing.T) {
	l, ok := lang.ByName("javascript")
	require.True(t, ok)
	tree, err := Parse(l, []byte("const x = require('./x')\nconst y = notRequire('./y')\n"))
	require.NoError(t, err)
	defer tree.Close()

	q, err := l.ImportQuery()
	require.NoError(t, err)

	var sources []string
	for _, m := range tree.FindAll(q) {
		if n, ok := m.Capture("source"); ok {
			sources = append(sources, n.Text())
		}
	}
	assert.Equal(t, []string{"'./x'"}, sources)
}

func TestSourceRoundTrip(t *testing.T) {
	src := "const answer = 42\n"
	tree := parseTS(t, src)
	assert.Equal(t, src, string(tree.Source()))
}

func TestCloseIsIdempotent(t *testing.T) {
	l, _ := lang.ByName("typescript")
	tree, err := Parse(l, []byte("const a = 1\n"))
	require.NoError(t, err)
	tree.Close()
	tree.Close()
}
