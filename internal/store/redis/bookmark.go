package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// List returns the owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	ids, err := s.client.ZRevRange(ctx, OwnerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a row: skip it
			continue
		}
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", ids[i], err)
		}
		if b.Owner != owner {
			continue
		}
		bookmarks = append(bookmarks, b)
	}

	// Scores have microsecond precision; settle ties the same way the other backends do.
	sort.SliceStable(bookmarks, func(i, j int) bool { return domain.NewerThan(bookmarks[i], bookmarks[j]) })
	return bookmarks, nil
}

// Insert assigns an ID and created_at and stores the row.
func (s *Store) Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	if err := s.save(ctx, b); err != nil {
		return domain.Bookmark{}, err
	}
	return b, nil
}

// Seed stores a row as given, filling ID and created_at only when missing.
// SETNX on SeedKey lets each ID be seeded once, so a row the owner deleted
// is not brought back. It reports whether the row was written.
func (s *Store) Seed(ctx context.Context, b domain.Bookmark) (bool, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	b.CreatedAt = b.CreatedAt.Truncate(time.Microsecond)

	first, err := s.client.SetNX(ctx, SeedKey(b.ID), s.now().Unix(), 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record seed: %w", err)
	}
	if !first {
		return false, nil
	}
	if err := s.save(ctx, b); err != nil {
		// Let a later run retry the row.
		s.client.Del(ctx, SeedKey(b.ID))
		return false, err
	}
	return true, nil
}

// Delete removes the row only if it belongs to owner.
func (s *Store) Delete(ctx context.Context, id, owner string) (bool, error) {
	// ZREM is the ownership check: a foreign or unknown id is not in the owner's set.
	removed, err := s.client.ZRem(ctx, OwnerKey(owner), id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove bookmark from index: %w", err)
	}
	if removed == 0 {
		return false, nil
	}

	if err := s.client.Del(ctx, BookmarkKey(id)).Err(); err != nil {
		return true, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return true, nil
}

// save writes the row and its index entry in one MULTI/EXEC.
func (s *Store) save(ctx context.Context, b domain.Bookmark) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(b.ID), data, 0)
		pipe.ZAdd(ctx, OwnerKey(b.Owner), redis.Z{
			Score:  float64(b.CreatedAt.UnixMicro()),
			Member: b.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	return nil
}
