package realtime

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

// DefaultBuffer is the per-subscriber queue length of a LocalFeed.
const DefaultBuffer = 64

// LocalFeed is an in-process Feed. Events only reach subscribers of the
// same process, which is enough for a single instance.
type LocalFeed struct {
	mu     sync.RWMutex
	subs   map[string]map[*localSub]struct{} // owner -> subscribers
	buffer int
	log    logger.Logger
}

type localSub struct {
	ch   chan domain.Event
	done chan struct{}
}

func NewLocalFeed(buffer int, log logger.Logger) *LocalFeed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &LocalFeed{
		subs:   make(map[string]map[*localSub]struct{}),
		buffer: buffer,
		log:    log,
	}
}

// Publish queues ev for every subscriber of its owner without blocking.
// A subscriber whose queue is full misses the event.
func (f *LocalFeed) Publish(ctx context.Context, ev domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subs[ev.OwnerID()] {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		default:
			f.log.Warn("subscriber queue full, dropping change",
				logger.String("owner", ev.OwnerID()),
				logger.String("type", string(ev.Type())))
		}
	}
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context, owner string, h Handler) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &localSub{
		ch:   make(chan domain.Event, f.buffer),
		done: make(chan struct{}),
	}

	f.mu.Lock()
	if f.subs[owner] == nil {
		f.subs[owner] = make(map[*localSub]struct{})
	}
	f.subs[owner][sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case ev := <-sub.ch:
				select {
				case <-sub.done:
					return
				default:
					h(ev)
				}
			}
		}
	}()

	return newSubscription(ctx, owner, func() {
		f.mu.Lock()
		delete(f.subs[owner], sub)
		if len(f.subs[owner]) == 0 {
			delete(f.subs, owner)
		}
		f.mu.Unlock()
		close(sub.done)
	}), nil
}

// Subscribers returns the number of live subscriptions for owner.
func (f *LocalFeed) Subscribers(owner string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[owner])
}
