package ui

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

type alerterKey struct{}

// WithAlerter routes alerts raised under ctx to a.
func WithAlerter(ctx context.Context, a Alerter) context.Context {
	return context.WithValue(ctx, alerterKey{}, a)
}

// ContextAlerter delivers to the Alerter stored by WithAlerter and drops
// the message when there is none.
type ContextAlerter struct{}

func (ContextAlerter) Alert(ctx context.Context, msg string) {
	if a, ok := ctx.Value(alerterKey{}).(Alerter); ok && a != nil {
		a.Alert(ctx, msg)
	}
}

// Forms keeps one AddForm per owner, so the in-flight guard and kept
// inputs survive across requests. Forms idle for longer than the TTL are
// forgotten.
type Forms struct {
	store Inserter
	log   logger.Logger
	forms *cache.Cache
}

func NewForms(store Inserter, log logger.Logger, idle time.Duration) *Forms {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Forms{
		store: store,
		log:   log,
		forms: cache.New(idle, idle),
	}
}

// For returns owner's form, creating it on first use.
func (fs *Forms) For(owner string) *AddForm {
	f := NewAddForm(owner, fs.store, ContextAlerter{}, fs.log)
	if err := fs.forms.Add(owner, f, cache.DefaultExpiration); err == nil {
		return f
	}
	if v, ok := fs.forms.Get(owner); ok {
		f = v.(*AddForm)
	}
	fs.forms.SetDefault(owner, f)
	return f
}
