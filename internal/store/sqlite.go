package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradecal/internal/schedule"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ schedule.DefaultsStore = (*SQLiteStore)(nil)

// keepRevisions is how many archived defaults documents are retained.
const keepRevisions = 10

// SQLiteStore archives defaults documents in a SQLite database. Every
// accepted document becomes a new revision; old revisions are pruned so the
// archive stays bounded.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns
// a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS defaults_documents (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			fetched_at INTEGER NOT NULL,
			data       BLOB    NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating defaults_documents table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveDefaults archives a validated defaults document as a new revision and
// prunes revisions beyond the retention limit.
func (s *SQLiteStore) SaveDefaults(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO defaults_documents (fetched_at, data) VALUES (?, ?)`,
		time.Now().UnixMilli(), data); err != nil {
		return fmt.Errorf("inserting defaults document: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM defaults_documents WHERE id NOT IN (
			SELECT id FROM defaults_documents ORDER BY id DESC LIMIT ?)`,
		keepRevisions); err != nil {
		return fmt.Errorf("pruning defaults documents: %w", err)
	}
	return nil
}

// LoadDefaults returns the most recently archived document, or (nil, nil)
// when the archive is empty.
func (s *SQLiteStore) LoadDefaults(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM defaults_documents ORDER BY id DESC LIMIT 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading defaults document: %w", err)
	}
	return data, nil
}

// ListRevisions returns archived defaults revisions, newest first, up to
// limit.
func (s *SQLiteStore) ListRevisions(ctx context.Context, limit int) ([]DefaultsRevision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fetched_at, data FROM defaults_documents ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing defaults revisions: %w", err)
	}
	defer rows.Close()

	var revs []DefaultsRevision
	for rows.Next() {
		var r DefaultsRevision
		if err := rows.Scan(&r.ID, &r.FetchedAt, &r.Data); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}
