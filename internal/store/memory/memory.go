package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// Store keeps bookmarks in process memory, grouped by owner.
// Used for local development and tests; nothing survives a restart.
type Store struct {
	mu      sync.RWMutex
	byOwner map[string]map[string]domain.Bookmark // owner -> ID -> Bookmark
	seeded  map[string]struct{}                   // IDs ever written by Seed
	now     func() time.Time
	last    time.Time // last assigned created_at, keeps insert order strict
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides time.Now. Tests use it to pin created_at values.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-memory store
func New(opts ...Option) *Store {
	s := &Store{
		byOwner: make(map[string]map[string]domain.Bookmark),
		seeded:  make(map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.byOwner[owner]
	out := make([]domain.Bookmark, 0, len(rows))
	for _, b := range rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return domain.NewerThan(out[i], out[j]) })
	return out, nil
}

// Insert assigns an ID and created_at and stores the row.
func (s *Store) Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bookmark{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	if !created.After(s.last) {
		created = s.last.Add(time.Microsecond)
	}
	s.last = created

	b.ID = uuid.NewString()
	b.CreatedAt = created
	s.put(b)
	return b, nil
}

// Seed stores a row as given, filling ID and created_at only when missing.
// An ID is seeded at most once: a row the owner deleted stays deleted.
// It reports whether the row was written.
func (s *Store) Seed(ctx context.Context, b domain.Bookmark) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, done := s.seeded[b.ID]; done {
		return false, nil
	}
	s.seeded[b.ID] = struct{}{}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	if b.CreatedAt.After(s.last) {
		s.last = b.CreatedAt
	}
	s.put(b)
	return true, nil
}

// Delete removes the row only if it belongs to owner.
func (s *Store) Delete(ctx context.Context, id, owner string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.byOwner[owner]
	if !ok {
		return false, nil
	}
	if _, ok := rows[id]; !ok {
		return false, nil
	}
	delete(rows, id)
	if len(rows) == 0 {
		delete(s.byOwner, owner)
	}
	return true, nil
}

// Count returns the number of stored rows across all owners.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rows := range s.byOwner {
		n += len(rows)
	}
	return n
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// put must be called with mu held.
func (s *Store) put(b domain.Bookmark) {
	rows, ok := s.byOwner[b.Owner]
	if !ok {
		rows = make(map[string]domain.Bookmark)
		s.byOwner[b.Owner] = rows
	}
	rows[b.ID] = b
}
