package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "trellis.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Files: []File{
			{Path: "/w/src/api.ts", Language: "typescript"},
			{Path: "/w/src/main.ts", Language: "typescript"},
		},
		Edges: []Edge{
			{Src: "/w/src/main.ts", Dst: "/w/src/api.ts"},
			{Src: "/w/src/main.ts", Dst: "/w/assets/logo.svg"},
		},
		Symbols: []Symbol{
			{Name: "Api", Kind: "class", File: "/w/src/api.ts", Line: 1, Exported: true},
			{Name: "Api.fetch", Kind: "method", File: "/w/src/api.ts", Line: 2},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	got, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, sampleSnapshot().Files, got.Files)
	assert.ElementsMatch(t, sampleSnapshot().Edges, got.Edges)
	assert.Equal(t, sampleSnapshot().Symbols, got.Symbols)
}

func TestSaveReplacesPriorSnapshot(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	next := &Snapshot{
		Files:   []File{{Path: "/w/only.ts", Language: "typescript"}},
		Symbols: []Symbol{{Name: "only", Kind: "function", File: "/w/only.ts", Line: 1, Exported: true}},
	}
	require.NoError(t, s.Save(next))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, next.Files, got.Files)
	assert.Empty(t, got.Edges)
	assert.Equal(t, next.Symbols, got.Symbols)
}

func TestEdgeTargetOutsideFileListSurvives(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	got, err := s.Load()
	require.NoError(t, err)

	// The .svg target is kept as an edge endpoint but not reported as an
	// enumerated file.
	assert.Contains(t, got.Edges, Edge{Src: "/w/src/main.ts", Dst: "/w/assets/logo.svg"})
	for _, f := range got.Files {
		assert.NotEqual(t, "/w/assets/logo.svg", f.Path)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestSavedAtMetadata(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(&Snapshot{}))

	var savedAt string
	require.NoError(t, s.DB().QueryRow(
		"SELECT value FROM metadata WHERE key = 'saved_at'",
	).Scan(&savedAt))
	assert.NotEmpty(t, savedAt)
}

func TestLoadEmptyStore(t *testing.T) {
	s := newStore(t)
	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Files)
	assert.Empty(t, got.Edges)
	assert.Empty(t, got.Symbols)
}
