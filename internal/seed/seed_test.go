package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/store/memory"
	"github.com/MrSnakeDoc/smartmarks/internal/store/sqlite"
)

const sample = `---
- owner: "{{SEED_OWNER}}"
  bookmarks:
    - title: Go
      url: https://go.dev
      created_at: 2024-01-01T00:00:00Z
    - title: "   "
      url: https://skipped.example
    - title: No date
      url: https://undated.example
- owner: ""
  bookmarks:
    - title: Orphan
      url: https://orphan.example
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SEED_OWNER", "alice")

	f, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f) != 2 {
		t.Fatalf("Load() returned %d owner blocks, want 2", len(f))
	}
	if f[0].Owner != "alice" {
		t.Errorf("owner = %q, want alice", f[0].Owner)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !f[0].Bookmarks[0].CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", f[0].Bookmarks[0].CreatedAt, want)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Parse([]byte("owner: [unterminated")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestBookmarks(t *testing.T) {
	f := File{
		{Owner: "alice", Bookmarks: []Entry{
			{Title: "Go", URL: "https://go.dev"},
			{Title: "", URL: "https://empty.example"},
		}},
		{Owner: " ", Bookmarks: []Entry{{Title: "x", URL: "https://x.example"}}},
	}

	rows := Bookmarks(f)
	if len(rows) != 1 {
		t.Fatalf("Bookmarks() returned %d rows, want 1", len(rows))
	}
	if rows[0].Owner != "alice" || rows[0].Title != "Go" {
		t.Errorf("unexpected row %+v", rows[0])
	}
	if !rows[0].CreatedAt.IsZero() {
		t.Errorf("created_at should stay unset, got %v", rows[0].CreatedAt)
	}

	again := Bookmarks(f)
	if again[0].ID != rows[0].ID {
		t.Errorf("ids are not stable: %s vs %s", rows[0].ID, again[0].ID)
	}
	other := Bookmarks(File{{Owner: "bob", Bookmarks: []Entry{{Title: "Go", URL: "https://go.dev"}}}})
	if other[0].ID == rows[0].ID {
		t.Error("different owners share a bookmark id")
	}
}

func TestApplyIsRepeatable(t *testing.T) {
	t.Setenv("SEED_OWNER", "alice")
	path := writeSample(t)
	store := memory.New()
	ctx := context.Background()

	for i, want := range []int{2, 0} {
		n, err := Apply(ctx, path, store, logger.NewNop())
		if err != nil {
			t.Fatalf("Apply() run %d error = %v", i, err)
		}
		if n != want {
			t.Fatalf("Apply() run %d = %d, want %d", i, n, want)
		}
	}

	if store.Count() != 2 {
		t.Errorf("store holds %d rows, want 2", store.Count())
	}
	rows, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List() returned %d rows, want 2", len(rows))
	}
}

func TestApplyAfterRestartKeepsDeletions(t *testing.T) {
	t.Setenv("SEED_OWNER", "alice")
	path := writeSample(t)
	dbPath := filepath.Join(t.TempDir(), "marks.db")
	ctx := context.Background()

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := Apply(ctx, path, store, logger.NewNop()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	rows, err := store.List(ctx, "alice")
	if err != nil || len(rows) != 2 {
		t.Fatalf("List() = %d rows, %v; want 2 rows", len(rows), err)
	}
	deleted := rows[0].ID
	if removed, err := store.Delete(ctx, deleted, "alice"); err != nil || !removed {
		t.Fatalf("Delete() = %v, %v", removed, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store, err = sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	n, err := Apply(ctx, path, store, logger.NewNop())
	if err != nil {
		t.Fatalf("Apply() after restart error = %v", err)
	}
	if n != 0 {
		t.Errorf("Apply() after restart wrote %d rows, want 0", n)
	}

	rows, err = store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("List() after restart = %d rows, want 1", len(rows))
	}
	if rows[0].ID == deleted {
		t.Errorf("deleted bookmark %s came back", deleted)
	}
}

func TestApplyAddsNewEntriesOnly(t *testing.T) {
	t.Setenv("SEED_OWNER", "alice")
	path := writeSample(t)
	store := memory.New()
	ctx := context.Background()

	if _, err := Apply(ctx, path, store, logger.NewNop()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	extended := sample + `- owner: "{{SEED_OWNER}}"
  bookmarks:
    - title: Later
      url: https://later.example
`
	if err := os.WriteFile(path, []byte(extended), 0o644); err != nil {
		t.Fatalf("failed to rewrite seed file: %v", err)
	}

	n, err := Apply(ctx, path, store, logger.NewNop())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Apply() of extended file = %d, want 1", n)
	}
	if store.Count() != 3 {
		t.Errorf("store holds %d rows, want 3", store.Count())
	}
}
