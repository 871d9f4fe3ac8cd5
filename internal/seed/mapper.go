package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

// Seeder is implemented by every store backend. Seed writes b unless its
// ID was seeded before, and reports whether it did.
type Seeder interface {
	Seed(ctx context.Context, b domain.Bookmark) (bool, error)
}

// Bookmarks converts f to domain rows. Entries without an owner, title or
// url are skipped.
//
// IDs are derived from owner and url, so loading the same file twice
// yields the same rows.
func Bookmarks(f File) []domain.Bookmark {
	out := make([]domain.Bookmark, 0)
	for _, block := range f {
		owner := strings.TrimSpace(block.Owner)
		if owner == "" {
			continue
		}
		for _, e := range block.Bookmarks {
			if domain.ValidateNew(e.Title, e.URL) != nil {
				continue
			}
			out = append(out, domain.Bookmark{
				ID:        bookmarkID(owner, e.URL),
				Owner:     owner,
				Title:     e.Title,
				URL:       e.URL,
				CreatedAt: e.CreatedAt.UTC(),
			})
		}
	}
	return out
}

// Apply loads path into s and returns the number of rows written.
// Entries seeded by an earlier run are skipped, even if the owner has
// deleted them since.
func Apply(ctx context.Context, path string, s Seeder, log logger.Logger) (int, error) {
	f, err := Load(path)
	if err != nil {
		return 0, err
	}

	rows := Bookmarks(f)
	written := 0
	for _, b := range rows {
		ok, err := s.Seed(ctx, b)
		if err != nil {
			return written, fmt.Errorf("failed to seed %q for %s: %w", b.URL, b.Owner, err)
		}
		if ok {
			written++
		}
	}

	log.Info("seed file applied",
		logger.String("path", path),
		logger.Int("bookmarks", len(rows)),
		logger.Int("written", written))
	return written, nil
}

func bookmarkID(owner, url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner+"\n"+url)).String()
}
