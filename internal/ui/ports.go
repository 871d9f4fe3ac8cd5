package ui

import (
	"context"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/realtime"
)

// User-facing messages.
const (
	MsgAddFailed    = "Failed to add bookmark"
	MsgDeleteFailed = "Failed to delete bookmark"
	DeletePrompt    = "Are you sure you want to delete this bookmark?"
)

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(ctx context.Context, msg string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Source feeds a ListView. *bookmarks.Client satisfies it.
type Source interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Subscribe(ctx context.Context, owner string, h realtime.Handler) (*realtime.Subscription, error)
}

type Inserter interface {
	Insert(ctx context.Context, owner, title, url string) (domain.Bookmark, error)
}

type Deleter interface {
	Delete(ctx context.Context, owner, id string) error
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(ctx context.Context, msg string)

func (f AlertFunc) Alert(ctx context.Context, msg string) { f(ctx, msg) }

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }
