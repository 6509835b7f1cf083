// Package store provides SQLite persistence for deckhand.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Search is one recorded card search.
type Search struct {
	ID          int64
	Query       string
	ResultCount int
	Err         string // empty when the search succeeded
	SearchedAt  time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		result_count INTEGER NOT NULL DEFAULT 0,
		err TEXT NOT NULL DEFAULT '',
		searched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_at ON searches(searched_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordSearch appends a search to the history, returning its row id.
// Thread-safe: acquires write lock.
func (s *Store) RecordSearch(rec Search) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.SearchedAt.IsZero() {
		rec.SearchedAt = time.Now()
	}

	result, err := s.db.Exec(`
		INSERT INTO searches (query, result_count, err, searched_at)
		VALUES (?, ?, ?, ?)
	`, rec.Query, rec.ResultCount, rec.Err, rec.SearchedAt)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// RecentSearches retrieves the most recent searches, newest first.
// Thread-safe: acquires read lock.
func (s *Store) RecentSearches(limit int) ([]Search, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, query, result_count, err, searched_at
		FROM searches
		ORDER BY searched_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []Search
	for rows.Next() {
		var rec Search
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.ResultCount, &rec.Err, &rec.SearchedAt); err != nil {
			return nil, err
		}
		searches = append(searches, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return searches, nil
}

// Prune keeps only the newest n searches.
// Thread-safe: acquires write lock.
func (s *Store) Prune(keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		DELETE FROM searches
		WHERE id NOT IN (
			SELECT id FROM searches ORDER BY searched_at DESC, id DESC LIMIT ?
		)
	`, keep)
	return err
}
