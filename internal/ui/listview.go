package ui

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/realtime"
)

// ListState is a snapshot of a ListView.
type ListState struct {
	Loading bool
	Items   []domain.Bookmark
}

// Empty reports whether the list finished loading with nothing in it.
func (s ListState) Empty() bool { return !s.Loading && len(s.Items) == 0 }

// ListView keeps one owner's bookmarks current: an initial list fetch
// patched by live change events.
//
// Every Activate starts a new generation. List results and events tagged
// with an older generation are dropped, so nothing from a previous owner
// or a closed subscription can leak into the current list.
type ListView struct {
	src    Source
	log    logger.Logger
	dedupe bool

	mu      sync.Mutex
	gen     uint64
	owner   string
	loading bool
	items   []domain.Bookmark
	pending []domain.Event // events seen before the initial list arrived
	sub     *realtime.Subscription

	changed chan struct{}
}

type ListOption func(*ListView)

// WithDedupe drops an Inserted event whose id is already listed.
func WithDedupe(on bool) ListOption {
	return func(v *ListView) { v.dedupe = on }
}

func NewListView(src Source, log logger.Logger, opts ...ListOption) *ListView {
	v := &ListView{
		src:     src,
		log:     log,
		dedupe:  true,
		changed: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Changed fires after the state changes. Bursts coalesce into one signal.
func (v *ListView) Changed() <-chan struct{} { return v.changed }

// State returns a copy of the current state.
func (v *ListView) State() ListState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ListState{
		Loading: v.loading,
		Items:   append([]domain.Bookmark(nil), v.items...),
	}
}

// Activate (re)binds the view to owner: it drops any previous
// subscription, subscribes to the owner's changes and fetches the list in
// the background. Subscribing first means no change made after Activate
// returns can be missed.
func (v *ListView) Activate(ctx context.Context, owner string) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	old := v.sub
	v.sub = nil
	v.owner = owner
	v.loading = true
	v.items = nil
	v.pending = nil
	v.mu.Unlock()

	if old != nil {
		old.Close()
	}
	v.notify()

	sub, err := v.src.Subscribe(ctx, owner, func(ev domain.Event) { v.apply(gen, ev) })
	if err != nil {
		v.log.Warn("live updates unavailable", logger.String("owner", owner), logger.Error(err))
	} else {
		v.mu.Lock()
		if v.gen == gen {
			v.sub = sub
			sub = nil
		}
		v.mu.Unlock()
		if sub != nil {
			// Deactivated while subscribing.
			sub.Close()
		}
	}

	go v.load(ctx, gen, owner)
}

// Deactivate closes the subscription. Late results of the current
// generation are ignored afterwards.
func (v *ListView) Deactivate() {
	v.mu.Lock()
	v.gen++
	sub := v.sub
	v.sub = nil
	v.owner = ""
	v.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Apply patches the current list with ev.
func (v *ListView) Apply(ev domain.Event) {
	v.mu.Lock()
	gen := v.gen
	v.mu.Unlock()
	v.apply(gen, ev)
}

func (v *ListView) load(ctx context.Context, gen uint64, owner string) {
	rows, err := v.src.List(ctx, owner)

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.log.Error("failed to load bookmarks", logger.String("owner", owner), logger.Error(err))
		rows = nil
	}
	v.items = rows
	for _, ev := range v.pending {
		v.patchLocked(ev)
	}
	v.pending = nil
	v.loading = false
	v.mu.Unlock()

	v.notify()
}

func (v *ListView) apply(gen uint64, ev domain.Event) {
	v.mu.Lock()
	if v.gen != gen || ev.OwnerID() != v.owner {
		v.mu.Unlock()
		return
	}
	if v.loading {
		v.pending = append(v.pending, ev)
		v.mu.Unlock()
		return
	}
	changed := v.patchLocked(ev)
	v.mu.Unlock()

	if changed {
		v.notify()
	}
}

// patchLocked applies one event to items and reports whether anything changed.
func (v *ListView) patchLocked(ev domain.Event) bool {
	switch e := ev.(type) {
	case domain.Inserted:
		if v.dedupe && v.indexLocked(e.Bookmark.ID) >= 0 {
			return false
		}
		v.items = append([]domain.Bookmark{e.Bookmark}, v.items...)
		return true

	case domain.Updated:
		i := v.indexLocked(e.Bookmark.ID)
		if i < 0 {
			return false
		}
		v.items[i] = e.Bookmark
		return true

	case domain.Deleted:
		i := v.indexLocked(e.ID)
		if i < 0 {
			return false
		}
		v.items = append(v.items[:i:i], v.items[i+1:]...)
		return true
	}
	return false
}

func (v *ListView) indexLocked(id string) int {
	for i, b := range v.items {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (v *ListView) notify() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}
