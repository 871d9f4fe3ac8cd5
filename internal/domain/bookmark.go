package domain

import (
	"net/url"
	"strings"
	"time"
)

// AddedLayout mirrors the short en-US rendering used on bookmark cards,
// e.g. "Oct 16, 2026, 02:37 PM".
const AddedLayout = "Jan 2, 2006, 03:04 PM"

// Bookmark is a single saved link.
//
// Rows are owned by exactly one user and never mutated after creation:
// the only lifecycle transitions are insert and delete.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (store-assigned)
	// ─────────────────────────────

	// ID is an opaque unique identifier generated by the store on insert.
	ID string `json:"id"`

	// Owner is the ID of the user who created the bookmark.
	// It scopes every read, delete and change notification.
	Owner string `json:"user_id"`

	// ─────────────────────────────
	// User-supplied content
	// ─────────────────────────────

	// Title is the display string. Never empty.
	Title string `json:"title"`

	// URL is expected, but not required, to be an absolute URL.
	URL string `json:"url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is assigned by the store and is the only sort key
	// (descending, newest first).
	CreatedAt time.Time `json:"created_at"`
}

// User is the authenticated session user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ValidateNew checks the user-supplied fields of a bookmark before insert.
// Whitespace-only values count as empty.
func ValidateNew(title, rawURL string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(rawURL) == "" {
		return ErrEmptyField
	}
	return nil
}

// DisplayDomain returns the host part of rawURL without a leading "www.".
// Values that do not parse as an absolute URL are returned unchanged.
func DisplayDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return rawURL
	}
	return strings.Replace(host, "www.", "", 1)
}

// FormatAdded renders a creation timestamp for bookmark cards.
func FormatAdded(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(AddedLayout)
}

// NewerThan reports whether a sorts before b in a newest-first listing.
// Equal timestamps fall back to the ID so the order is total.
func NewerThan(a, b Bookmark) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
