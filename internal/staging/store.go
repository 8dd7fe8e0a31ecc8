package staging

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store owns the staging database. It is written by a single worker at a
// time; no locking discipline beyond database/sql's own is needed.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the staging database at path and
// initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	for _, ddl := range schemaDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// batch runs fn inside one transaction. The importer commits once per entity
// type, not per row, so a crash mid-type leaves earlier types durable.
func (s *Store) batch(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Counts returns the row count of every staged entity table.
func (s *Store) Counts() (map[string]int, error) {
	counts := make(map[string]int, len(entityTables))
	for _, table := range entityTables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// EntityTables returns the staged table names in import order.
func EntityTables() []string {
	out := make([]string, len(entityTables))
	copy(out, entityTables)
	return out
}
