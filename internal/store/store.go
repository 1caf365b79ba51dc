package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer behind ripple's symbol graph.
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

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Relationship endpoints carry no foreign keys: relationships are append-only
// parser facts and may outlive the symbols they name. Dangling edges are
// dropped when the dependency graph is built.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS projects (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL UNIQUE,
  root_path       TEXT
);

CREATE TABLE IF NOT EXISTS symbols (
  id               INTEGER PRIMARY KEY,
  project_id       INTEGER NOT NULL REFERENCES projects(id),
  name             TEXT NOT NULL,
  qualified_name   TEXT,
  kind             TEXT NOT NULL,
  file_path        TEXT,
  line             INTEGER,
  col              INTEGER,
  namespace        TEXT,
  parent_symbol_id INTEGER REFERENCES symbols(id),
  tags             TEXT,
  confidence       REAL NOT NULL DEFAULT 1.0,
  UNIQUE(project_id, qualified_name)
);

CREATE TABLE IF NOT EXISTS relationships (
  id              INTEGER PRIMARY KEY,
  project_id      INTEGER NOT NULL REFERENCES projects(id),
  from_symbol_id  INTEGER NOT NULL,
  to_symbol_id    INTEGER,
  to_name         TEXT,
  type            TEXT NOT NULL,
  confidence      REAL NOT NULL DEFAULT 1.0,
  context_line    INTEGER,
  context_column  INTEGER,
  context_snippet TEXT
);

CREATE TABLE IF NOT EXISTS call_chains (
  id              INTEGER PRIMARY KEY,
  project_id      INTEGER NOT NULL REFERENCES projects(id),
  entry_point_id  INTEGER NOT NULL,
  max_depth       INTEGER NOT NULL,
  step_count      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS call_chain_steps (
  id              INTEGER PRIMARY KEY,
  chain_id        INTEGER NOT NULL REFERENCES call_chains(id) ON DELETE CASCADE,
  step_index      INTEGER NOT NULL,
  symbol_id       INTEGER NOT NULL,
  caller_id       INTEGER,
  depth           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symbol_markers (
  id              INTEGER PRIMARY KEY,
  project_id      INTEGER NOT NULL REFERENCES projects(id),
  symbol_id       INTEGER NOT NULL,
  marker          TEXT NOT NULL,
  detail          TEXT NOT NULL DEFAULT '',
  UNIQUE(symbol_id, marker, detail)
);

CREATE INDEX IF NOT EXISTS idx_symbols_project ON symbols(project_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(project_id, name);
CREATE INDEX IF NOT EXISTS idx_relationships_project ON relationships(project_id);
CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_symbol_id);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_symbol_id);
CREATE INDEX IF NOT EXISTS idx_call_chains_project ON call_chains(project_id);
CREATE INDEX IF NOT EXISTS idx_call_chain_steps_chain ON call_chain_steps(chain_id, step_index);
CREATE INDEX IF NOT EXISTS idx_symbol_markers_project ON symbol_markers(project_id, marker);
`
