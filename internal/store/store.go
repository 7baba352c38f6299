// Package store persists scan snapshots to SQLite. The engine itself owns no
// on-disk format; the store is the persistence collaborator the CLI layers on
// top of the in-memory graph and index.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for scan snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id        INTEGER PRIMARY KEY,
  path      TEXT NOT NULL UNIQUE,
  language  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS edges (
  src_id    INTEGER NOT NULL REFERENCES files(id),
  dst_id    INTEGER NOT NULL REFERENCES files(id),
  PRIMARY KEY (src_id, dst_id)
);

CREATE TABLE IF NOT EXISTS symbols (
  id        INTEGER PRIMARY KEY,
  name      TEXT NOT NULL,
  kind      TEXT NOT NULL,
  file_id   INTEGER NOT NULL REFERENCES files(id),
  line      INTEGER NOT NULL,
  exported  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS metadata (
  key       TEXT PRIMARY KEY,
  value     TEXT
);

CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
`

// File is one enumerated source file.
type File struct {
	Path     string
	Language string
}

// Edge is one forward import edge.
type Edge struct {
	Src string
	Dst string
}

// Symbol is one recorded definition.
type Symbol struct {
	Name     string
	Kind     string
	File     string
	Line     int
	Exported bool
}

// Snapshot is a complete scan result ready for persistence.
type Snapshot struct {
	Files   []File
	Edges   []Edge
	Symbols []Symbol
}

// Save replaces the stored snapshot with snap inside a single transaction.
// Edge endpoints that are not enumerated files (data/asset targets) get a
// file row with an empty language so foreign keys hold.
func (s *Store) Save(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "symbols", "files"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("save snapshot: clear %s: %w", table, err)
		}
	}

	ids := make(map[string]int64, len(snap.Files))
	insertFile := func(path, language string) (int64, error) {
		if id, ok := ids[path]; ok {
			return id, nil
		}
		res, err := tx.Exec("INSERT INTO files (path, language) VALUES (?, ?)", path, language)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		ids[path] = id
		return id, nil
	}

	for _, f := range snap.Files {
		if _, err := insertFile(f.Path, f.Language); err != nil {
			return fmt.Errorf("save snapshot: file %q: %w", f.Path, err)
		}
	}
	for _, e := range snap.Edges {
		srcID, err := insertFile(e.Src, "")
		if err != nil {
			return fmt.Errorf("save snapshot: edge src %q: %w", e.Src, err)
		}
		dstID, err := insertFile(e.Dst, "")
		if err != nil {
			return fmt.Errorf("save snapshot: edge dst %q: %w", e.Dst, err)
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO edges (src_id, dst_id) VALUES (?, ?)", srcID, dstID,
		); err != nil {
			return fmt.Errorf("save snapshot: edge: %w", err)
		}
	}
	for _, sym := range snap.Symbols {
		fileID, err := insertFile(sym.File, "")
		if err != nil {
			return fmt.Errorf("save snapshot: symbol file %q: %w", sym.File, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO symbols (name, kind, file_id, line, exported) VALUES (?, ?, ?, ?, ?)",
			sym.Name, sym.Kind, fileID, sym.Line, sym.Exported,
		); err != nil {
			return fmt.Errorf("save snapshot: symbol %q: %w", sym.Name, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('saved_at', ?)",
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("save snapshot: metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

// Load reads the stored snapshot back.
func (s *Store) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	paths := make(map[int64]string)

	rows, err := s.db.Query("SELECT id, path, language FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("load snapshot: files: %w", err)
	}
	for rows.Next() {
		var id int64
		var f File
		if err := rows.Scan(&id, &f.Path, &f.Language); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load snapshot: scan file: %w", err)
		}
		paths[id] = f.Path
		if f.Language != "" {
			snap.Files = append(snap.Files, f)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("load snapshot: files: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query("SELECT src_id, dst_id FROM edges")
	if err != nil {
		return nil, fmt.Errorf("load snapshot: edges: %w", err)
	}
	for rows.Next() {
		var src, dst int64
		if err := rows.Scan(&src, &dst); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load snapshot: scan edge: %w", err)
		}
		snap.Edges = append(snap.Edges, Edge{Src: paths[src], Dst: paths[dst]})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("load snapshot: edges: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query("SELECT name, kind, file_id, line, exported FROM symbols ORDER BY file_id, line")
	if err != nil {
		return nil, fmt.Errorf("load snapshot: symbols: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sym Symbol
		var fileID int64
		if err := rows.Scan(&sym.Name, &sym.Kind, &fileID, &sym.Line, &sym.Exported); err != nil {
			return nil, fmt.Errorf("load snapshot: scan symbol: %w", err)
		}
		sym.File = paths[fileID]
		snap.Symbols = append(snap.Symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: symbols: %w", err)
	}
	return snap, nil
}
