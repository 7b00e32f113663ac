package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection for the code graph.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// cacheDir returns the default directory for databases.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "codegraph")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return dir, nil
}

// Open opens or creates the default SQLite database with the given name.
func Open(name string) (*Store, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, name+".db"))
}

// OpenPath opens a SQLite database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// One connection: each sqlite3 connection gets its own :memory: database.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; all store methods called
// on txStore use the transaction. The receiver's q field is never mutated, so
// concurrent read-only callers (using s.q == s.db) are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		root_path TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		total_files INTEGER NOT NULL DEFAULT 0,
		parsed_files INTEGER NOT NULL DEFAULT 0,
		failed_files INTEGER NOT NULL DEFAULT 0,
		languages TEXT NOT NULL DEFAULT '{}',
		repo_tree TEXT NOT NULL DEFAULT '{}',
		last_error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		rel_path TEXT NOT NULL,
		language TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		parse_failed INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		UNIQUE(repo_id, rel_path)
	);

	CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		qualified_name TEXT NOT NULL,
		signature TEXT NOT NULL DEFAULT '',
		source_code TEXT NOT NULL DEFAULT '',
		parent_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
		start_line INTEGER NOT NULL DEFAULT 0,
		start_col INTEGER NOT NULL DEFAULT 0,
		end_line INTEGER NOT NULL DEFAULT 0,
		end_col INTEGER NOT NULL DEFAULT 0,
		UNIQUE(repo_id, qualified_name)
	);

	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(repo_id, name);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
	CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(repo_id, kind);

	CREATE TABLE IF NOT EXISTS refs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		source_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		target_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
		target_name TEXT NOT NULL,
		target_file_path TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		is_external INTEGER NOT NULL DEFAULT 0,
		line INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_refs_source ON refs(source_id, type);
	CREATE INDEX IF NOT EXISTS idx_refs_target ON refs(target_id, type);
	CREATE INDEX IF NOT EXISTS idx_refs_repo ON refs(repo_id, type);

	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payload TEXT NOT NULL DEFAULT '{}',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 3,
		worker_id TEXT NOT NULL DEFAULT '',
		locked_at TEXT NOT NULL DEFAULT '',
		last_error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		started_at TEXT NOT NULL DEFAULT '',
		completed_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_repo ON jobs(repo_id, type);

	CREATE TABLE IF NOT EXISTS entry_point_candidates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		detection_pattern TEXT NOT NULL,
		framework TEXT NOT NULL DEFAULT '',
		ep_type TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		confidence REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_epc_repo ON entry_point_candidates(repo_id);

	CREATE TABLE IF NOT EXISTS entry_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		candidate_id INTEGER REFERENCES entry_point_candidates(id) ON DELETE SET NULL,
		symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		ep_type TEXT NOT NULL DEFAULT '',
		framework TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		reasoning TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ep_repo ON entry_points(repo_id, ep_type);

	CREATE TABLE IF NOT EXISTS flows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
		entry_point_id INTEGER NOT NULL UNIQUE REFERENCES entry_points(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		steps TEXT NOT NULL DEFAULT '[]',
		max_depth_analyzed INTEGER NOT NULL DEFAULT 0,
		iterations_completed INTEGER NOT NULL DEFAULT 0,
		symbol_ids_analyzed TEXT NOT NULL DEFAULT '[]',
		file_paths TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// marshalJSON serializes a value to JSON, falling back to the given default.
func marshalJSON(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(b)
}

// unmarshalMap deserializes a JSON object column.
func unmarshalMap(data string) map[string]any {
	if data == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
