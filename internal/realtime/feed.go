package realtime

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// Handler receives change events for one owner, one at a time.
type Handler func(domain.Event)

// Feed fans bookmark changes out to subscribers of the same owner.
type Feed interface {
	Publish(ctx context.Context, ev domain.Event) error
	// Subscribe delivers the owner's events to h until the subscription is
	// closed or ctx is cancelled.
	Subscribe(ctx context.Context, owner string, h Handler) (*Subscription, error)
}

// Subscription is a live registration on a Feed.
type Subscription struct {
	owner   string
	once    sync.Once
	closeFn func()

	mu   sync.Mutex
	stop func() bool // detaches the ctx watcher
}

func newSubscription(ctx context.Context, owner string, closeFn func()) *Subscription {
	s := &Subscription{owner: owner, closeFn: closeFn}
	stop := context.AfterFunc(ctx, s.Close)

	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s
}

// Owner returns the owner the subscription is filtered on.
func (s *Subscription) Owner() string { return s.owner }

// Close stops delivery. Safe to call more than once and from any goroutine.
// A handler call already in progress is allowed to finish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.closeFn()
	})
}
