package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark row keys
	KeyPrefixBookmark = "smartmarks:bookmark:"
	// KeyPrefixOwner is the prefix for per-owner index keys
	KeyPrefixOwner = "smartmarks:owner:"
	// KeyPrefixSeed marks a bookmark ID already written by Seed
	KeyPrefixSeed = "smartmarks:seed:"
)

// BookmarkKey returns the Redis key holding a bookmark's JSON
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerKey returns the sorted set of an owner's bookmark IDs, scored by created_at
func OwnerKey(owner string) string {
	return KeyPrefixOwner + owner + ":bookmarks"
}

// SeedKey returns the marker key recording that id was seeded
func SeedKey(id string) string {
	return KeyPrefixSeed + id
}
