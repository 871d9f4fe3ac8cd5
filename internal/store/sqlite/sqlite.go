package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// Store persists bookmarks in a single SQLite file.
// created_at is kept as unix microseconds so ordering is exact.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu   sync.Mutex
	last int64 // last assigned created_at
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // single writer

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	// Resume the clock after the newest stored row, seeded ones included.
	if err := db.QueryRow(`SELECT COALESCE(MAX(created_at), 0) FROM bookmarks`).Scan(&s.last); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read latest created_at: %w", err)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS seeds (
		id TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns the owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, user_id, title, url
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		var (
			b       domain.Bookmark
			created int64
		)
		if err := rows.Scan(&b.ID, &created, &b.Owner, &b.Title, &b.URL); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		b.CreatedAt = time.UnixMicro(created).UTC()
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// Insert assigns an ID and created_at and stores the row.
func (s *Store) Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = time.UnixMicro(s.nextCreated()).UTC()

	if err := insert(ctx, s.db, "INSERT", b); err != nil {
		return domain.Bookmark{}, err
	}
	return b, nil
}

// Seed stores a row as given, filling ID and created_at only when missing.
// Each ID is recorded in the seeds table and seeded at most once, so a row
// the owner deleted is not brought back. It reports whether the row was written.
func (s *Store) Seed(ctx context.Context, b domain.Bookmark) (bool, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.UnixMicro(s.nextCreated()).UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO seeds(id, applied_at) VALUES (?, ?)`, b.ID, s.now().UnixMicro())
	if err != nil {
		return false, fmt.Errorf("failed to record seed: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	if err := insert(ctx, tx, "INSERT OR IGNORE", b); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	s.advance(b.CreatedAt.UnixMicro())
	return true, nil
}

// Delete removes the row only if it belongs to owner.
func (s *Store) Delete(ctx context.Context, id, owner string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, verb string, b domain.Bookmark) error {
	_, err := db.ExecContext(ctx,
		verb+` INTO bookmarks(id, created_at, user_id, title, url) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.CreatedAt.UnixMicro(), b.Owner, b.Title, b.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return nil
}

// nextCreated returns a strictly increasing microsecond timestamp.
func (s *Store) nextCreated() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMicro()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	return ts
}

// advance moves the clock past a row stored with an explicit created_at.
func (s *Store) advance(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts > s.last {
		s.last = ts
	}
}
