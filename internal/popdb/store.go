// Package popdb provides a DuckDB-backed population allele-frequency
// store used by the frequency filter. Frequencies are bulk-loaded once
// from a TSV export and queried per allele during filtering.
package popdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding population allele
// frequencies.
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
			return nil, fmt.Errorf("create popdb directory: %w", err)
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

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS allele_frequencies (
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		af DOUBLE,
		ac BIGINT,
		an BIGINT,
		PRIMARY KEY (chrom, pos, ref, alt)
	)`)
	return err
}

// LookupAF returns the population allele frequency for the given allele.
// The second return value is false when the allele is not in the store.
func (s *Store) LookupAF(chrom string, pos int64, ref, alt string) (float64, bool, error) {
	var af float64
	err := s.db.QueryRow(
		`SELECT af FROM allele_frequencies WHERE chrom=? AND pos=? AND ref=? AND alt=?`,
		chrom, pos, ref, alt).Scan(&af)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query allele frequency: %w", err)
	}
	return af, true, nil
}

// Count returns the number of stored allele frequencies.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM allele_frequencies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count allele frequencies: %w", err)
	}
	return n, nil
}
