package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// bookmarkRow maps the bookmarks table.
type bookmarkRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index:idx_bookmarks_user_created,priority:2,sort:desc"`
	UserID    string    `gorm:"not null;index:idx_bookmarks_user_created,priority:1"`
	Title     string    `gorm:"not null"`
	URL       string    `gorm:"column:url;not null"`
}

func (bookmarkRow) TableName() string { return "bookmarks" }

func (r bookmarkRow) toDomain() domain.Bookmark {
	return domain.Bookmark{
		ID:        r.ID.String(),
		Owner:     r.UserID,
		Title:     r.Title,
		URL:       r.URL,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

// seedRow records a bookmark id written by Seed.
type seedRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (seedRow) TableName() string { return "seeds" }

// Store persists bookmarks in Postgres through gorm.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the bookmarks and seeds tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&bookmarkRow{}, &seedRow{}); err != nil {
		return fmt.Errorf("failed to migrate bookmarks: %w", err)
	}
	return nil
}

// List returns the owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	var rows []bookmarkRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	out := make([]domain.Bookmark, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// Insert assigns an ID and created_at and stores the row.
func (s *Store) Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	row := bookmarkRow{
		ID:     uuid.New(),
		UserID: b.Owner,
		Title:  b.Title,
		URL:    b.URL,
	}
	// CreatedAt is filled by gorm's NowFunc.
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return row.toDomain(), nil
}

// Seed stores a row as given, filling ID and created_at only when missing.
// Each ID is recorded in the seeds table and seeded at most once, so a row
// the owner deleted is not brought back. It reports whether the row was written.
func (s *Store) Seed(ctx context.Context, b domain.Bookmark) (bool, error) {
	row := bookmarkRow{
		UserID:    b.Owner,
		Title:     b.Title,
		URL:       b.URL,
		CreatedAt: b.CreatedAt.UTC(),
	}
	if b.ID != "" {
		id, err := uuid.Parse(b.ID)
		if err != nil {
			return false, fmt.Errorf("invalid bookmark id %q: %w", b.ID, err)
		}
		row.ID = id
	} else {
		row.ID = uuid.New()
	}

	written := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seedRow{ID: row.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed bookmark: %w", err)
	}
	return written, nil
}

// Delete removes the row only if it belongs to owner.
func (s *Store) Delete(ctx context.Context, id, owner string) (bool, error) {
	rowID, err := uuid.Parse(id)
	if err != nil {
		// Not one of ours: nothing to delete.
		return false, nil
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", rowID, owner).
		Delete(&bookmarkRow{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
