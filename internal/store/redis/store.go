package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists bookmarks in Redis.
//
// Each row lives under BookmarkKey as JSON. OwnerKey indexes an owner's
// rows in a sorted set scored by created_at in microseconds, which is
// what List reads and what Delete uses to enforce ownership.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// Ping checks that Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
