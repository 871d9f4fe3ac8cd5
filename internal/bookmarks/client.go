package bookmarks

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/realtime"
)

// Store is the persistence behind a Client.
// Implementations scope every call by owner and assign id and created_at on insert.
type Store interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error)
	// Delete reports whether a row matching both id and owner was removed.
	Delete(ctx context.Context, id, owner string) (bool, error)
	Ping(ctx context.Context) error
}

// Client is the only path the UI takes to bookmarks: reads, writes and
// change notifications, all scoped to one owner per call.
type Client struct {
	store    Store
	feed     realtime.Feed
	log      logger.Logger
	validate *validator.Validate
}

type newBookmark struct {
	Owner string `validate:"required"`
	Title string `validate:"required"`
	URL   string `validate:"required"`
}

func NewClient(store Store, feed realtime.Feed, log logger.Logger) *Client {
	return &Client{
		store:    store,
		feed:     feed,
		log:      log,
		validate: validator.New(),
	}
}

// List returns the owner's bookmarks, newest first.
func (c *Client) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	if owner == "" {
		return nil, domain.ErrNoSession
	}
	rows, err := c.store.List(ctx, owner)
	if err != nil {
		return nil, domain.NewStoreError("list", err)
	}
	return rows, nil
}

// Insert stores a new bookmark and announces it on the owner's feed.
// Title and URL are stored as given; whitespace-only values are rejected.
func (c *Client) Insert(ctx context.Context, owner, title, url string) (domain.Bookmark, error) {
	if owner == "" {
		return domain.Bookmark{}, domain.ErrNoSession
	}

	in := newBookmark{
		Owner: owner,
		Title: strings.TrimSpace(title),
		URL:   strings.TrimSpace(url),
	}
	if err := c.validate.Struct(in); err != nil {
		return domain.Bookmark{}, domain.ErrEmptyField
	}

	b, err := c.store.Insert(ctx, domain.Bookmark{Owner: owner, Title: title, URL: url})
	if err != nil {
		return domain.Bookmark{}, domain.NewStoreError("insert", err)
	}

	c.publish(ctx, domain.Inserted{Bookmark: b})
	return b, nil
}

// Delete removes the bookmark if it belongs to owner. Unknown or foreign
// ids are a silent no-op.
func (c *Client) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrNoSession
	}

	removed, err := c.store.Delete(ctx, id, owner)
	if err != nil {
		return domain.NewStoreError("delete", err)
	}
	if removed {
		c.publish(ctx, domain.Deleted{Owner: owner, ID: id})
	}
	return nil
}

// Subscribe registers h for the owner's changes until the subscription is closed.
func (c *Client) Subscribe(ctx context.Context, owner string, h realtime.Handler) (*realtime.Subscription, error) {
	if owner == "" {
		return nil, domain.ErrNoSession
	}
	sub, err := c.feed.Subscribe(ctx, owner, h)
	if err != nil {
		return nil, domain.NewStoreError("subscribe", err)
	}
	return sub, nil
}

// Ping checks the backing store.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// publish never fails the write it follows: the row is stored either way,
// and listeners catch up on their next full list.
func (c *Client) publish(ctx context.Context, ev domain.Event) {
	if err := c.feed.Publish(context.WithoutCancel(ctx), ev); err != nil {
		c.log.Warn("failed to publish change",
			logger.String("owner", ev.OwnerID()),
			logger.String("type", string(ev.Type())),
			logger.Error(err))
	}
}
