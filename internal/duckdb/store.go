// Package duckdb persists chain sets. Parsed chains are stored in DuckDB
// (queryable, bulk-loaded with the Appender API) and cached as gob files
// next to their source for fast reloads.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding one or more chain sets.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
//
// Chain ids are only unique within one chain file, so chains are keyed by a
// store-assigned chain_key.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chains (
			chain_key BIGINT PRIMARY KEY,
			chain_id BIGINT,
			score DOUBLE,
			from_name VARCHAR,
			from_size BIGINT,
			from_start BIGINT,
			from_end BIGINT,
			to_name VARCHAR,
			to_size BIGINT,
			to_negative BOOLEAN,
			to_start BIGINT,
			to_end BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			chain_key BIGINT,
			block_index BIGINT,
			from_start BIGINT,
			to_start BIGINT,
			size BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS source_files (
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP,
			chains BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
