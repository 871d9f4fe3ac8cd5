package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "smartmarks:bookmark:abc", BookmarkKey("abc"))
	assert.Equal(t, "smartmarks:owner:u1:bookmarks", OwnerKey("u1"))
	assert.Equal(t, "smartmarks:seed:abc", SeedKey("abc"))
}

// newTestStore connects to SMARTMARKS_TEST_REDIS_ADDR or skips.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("SMARTMARKS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: SMARTMARKS_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	return NewStore(client)
}

func cleanupOwner(t *testing.T, s *Store, owner string) {
	t.Cleanup(func() {
		ctx := context.Background()
		ids, _ := s.client.ZRange(ctx, OwnerKey(owner), 0, -1).Result()
		for _, id := range ids {
			s.client.Del(ctx, BookmarkKey(id))
		}
		s.client.Del(ctx, OwnerKey(owner))
	})
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := uuid.NewString()
	cleanupOwner(t, s, owner)

	first, err := s.Insert(ctx, domain.Bookmark{Owner: owner, Title: "first", URL: "https://a.test"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := s.Insert(ctx, domain.Bookmark{Owner: owner, Title: "second", URL: "https://b.test"})
	require.NoError(t, err)

	rows, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)
	assert.True(t, rows[0].CreatedAt.Equal(second.CreatedAt))

	removed, err := s.Delete(ctx, first.ID, owner)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, first.ID, owner)
	require.NoError(t, err)
	assert.False(t, removed)

	rows, err = s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
}

func TestStoreForeignDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()
	cleanupOwner(t, s, alice)
	cleanupOwner(t, s, bob)

	b, err := s.Insert(ctx, domain.Bookmark{Owner: alice, Title: "mine", URL: "https://a.test"})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, b.ID, bob)
	require.NoError(t, err)
	assert.False(t, removed)

	rows, err := s.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStoreSeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := uuid.NewString()
	cleanupOwner(t, s, owner)

	at := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	b := domain.Bookmark{ID: uuid.NewString(), Owner: owner, Title: "old", URL: "https://old.test", CreatedAt: at}
	t.Cleanup(func() { s.client.Del(context.Background(), SeedKey(b.ID)) })

	written, err := s.Seed(ctx, b)
	require.NoError(t, err)
	assert.True(t, written)

	rows, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].CreatedAt.Equal(at))
	assert.Equal(t, b.ID, rows[0].ID)

	removed, err := s.Delete(ctx, b.ID, owner)
	require.NoError(t, err)
	require.True(t, removed)

	written, err = s.Seed(ctx, b)
	require.NoError(t, err)
	assert.False(t, written)

	rows, err = s.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
