// Package lang is the language registry: it maps file extensions to
// tree-sitter grammars and carries each language's embedded import-extraction
// query.
package lang

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	tsx "github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

//go:embed queries/*.scm
var queryFS embed.FS

// Language holds tree-sitter configuration for one supported language.
type Language struct {
	Name      string
	queryFile string

	grammarOnce sync.Once
	grammar     *sitter.Language

	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error

	newGrammar func() *sitter.Language
}

var languages = map[string]*Language{
	"typescript": {Name: "typescript", queryFile: "typescript.scm", newGrammar: ts.GetLanguage},
	"tsx":        {Name: "tsx", queryFile: "typescript.scm", newGrammar: tsx.GetLanguage},
	"javascript": {Name: "javascript", queryFile: "javascript.scm", newGrammar: javascript.GetLanguage},
}

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".ts":  "typescript",
	".mts": "typescript",
	".cts": "typescript",
	".tsx": "tsx",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
}

// ForPath returns the language for a file path based on its extension.
// Returns (nil, false) if the extension is not recognized.
func ForPath(path string) (*Language, bool) {
	name, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	return languages[name], true
}

// ByName returns the language with the given canonical name.
func ByName(name string) (*Language, bool) {
	l, ok := languages[name]
	return l, ok
}

// Names returns the canonical names of all supported languages.
func Names() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	return names
}

// Grammar returns the tree-sitter grammar, initialized lazily.
func (l *Language) Grammar() *sitter.Language {
	l.grammarOnce.Do(func() {
		l.grammar = l.newGrammar()
	})
	return l.grammar
}

// NewParser creates a fresh tree-sitter parser for this language.
// Parsers are not goroutine-safe; each caller must use its own.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.Grammar())
	return p
}

// ImportQuery returns the compiled import-extraction query for this language.
// Compiled queries are safe to share across goroutines.
func (l *Language) ImportQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile("queries/" + l.queryFile)
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.Grammar())
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query for %s: %w", l.Name, err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}
