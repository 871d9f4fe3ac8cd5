package ui

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// ItemView presents one bookmark.
type ItemView struct {
	domain.Bookmark
	loc *time.Location
}

func NewItemView(b domain.Bookmark, loc *time.Location) ItemView {
	return ItemView{Bookmark: b, loc: loc}
}

// Domain is the display host, e.g. "github.com" for "https://www.github.com/x".
func (v ItemView) Domain() string { return domain.DisplayDomain(v.URL) }

// Added is the formatted creation time.
func (v ItemView) Added() string { return domain.FormatAdded(v.CreatedAt, v.loc) }

// RequestDelete asks for confirmation and then deletes the bookmark.
// It reports whether the user confirmed. The list itself is updated by
// the change feed, not here.
func (v ItemView) RequestDelete(ctx context.Context, owner string, c Confirmer, d Deleter, a Alerter) (bool, error) {
	if !c.Confirm(ctx, DeletePrompt) {
		return false, nil
	}
	if err := d.Delete(ctx, owner, v.ID); err != nil {
		a.Alert(ctx, MsgDeleteFailed)
		return true, err
	}
	return true, nil
}

// Items wraps a list for rendering.
func Items(bs []domain.Bookmark, loc *time.Location) []ItemView {
	out := make([]ItemView, len(bs))
	for i, b := range bs {
		out[i] = NewItemView(b, loc)
	}
	return out
}
