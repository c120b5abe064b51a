// Package nostrtest provides an in-memory relay for tests.
package nostrtest

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// MemoryRelay is a nostr.Store that keeps events in memory and applies relay
// semantics: filter matching, newest-first ordering with limit, replaceable
// and addressable replacement, and kind-5 deletion by the original author.
type MemoryRelay struct {
	mu     sync.RWMutex
	events map[string]*nostr.Event

	// RejectPublish, when set, returns a rejection reason for an event ("" accepts it).
	RejectPublish func(ev *nostr.Event) string
	// QueryHook, when set, runs before every query and can fail it.
	QueryHook func(filter nostr.Filter) error
	// PublishHook, when set, runs before every publish and can fail it.
	PublishHook func(ev *nostr.Event) error

	queries   atomic.Int64
	publishes atomic.Int64
}

// NewMemoryRelay returns an empty relay seeded with events.
func NewMemoryRelay(seed ...*nostr.Event) *MemoryRelay {
	r := &MemoryRelay{events: make(map[string]*nostr.Event)}
	for _, ev := range seed {
		r.store(ev)
	}
	return r
}

// URL implements nostr.Store.
func (r *MemoryRelay) URL() string {
	return "wss://memory.relay"
}

// Add stores events without going through publish hooks.
func (r *MemoryRelay) Add(events ...*nostr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.storeLocked(ev)
	}
}

// Query implements nostr.Store.
func (r *MemoryRelay) Query(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error) {
	r.queries.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Transport("relay timed out", err)
	}
	if r.QueryHook != nil {
		if err := r.QueryHook(filter); err != nil {
			return nil, err
		}
	}
	return r.Match(filter), nil
}

// Match returns the stored events matching filter, newest first, honoring Limit.
func (r *MemoryRelay) Match(filter nostr.Filter) []*nostr.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*nostr.Event
	for _, ev := range r.events {
		if filter.Matches(ev) {
			cp := *ev
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *nostr.Event) int {
		if a.CreatedAt != b.CreatedAt {
			if a.CreatedAt > b.CreatedAt {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// Publish implements nostr.Store.
func (r *MemoryRelay) Publish(ctx context.Context, ev *nostr.Event) error {
	r.publishes.Add(1)
	if err := ctx.Err(); err != nil {
		return domainerrors.Transport("relay timed out", err)
	}
	if r.PublishHook != nil {
		if err := r.PublishHook(ev); err != nil {
			return err
		}
	}
	if r.RejectPublish != nil {
		if reason := r.RejectPublish(ev); reason != "" {
			return domainerrors.Authorization(reason)
		}
	}
	r.store(ev)
	return nil
}

// Count returns the number of stored events matching filter.
func (r *MemoryRelay) Count(filter nostr.Filter) int {
	return len(r.Match(filter))
}

// QueryCount returns how many queries were served.
func (r *MemoryRelay) QueryCount() int {
	return int(r.queries.Load())
}

// PublishCount returns how many publishes were attempted.
func (r *MemoryRelay) PublishCount() int {
	return int(r.publishes.Load())
}

func (r *MemoryRelay) store(ev *nostr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeLocked(ev)
}

func (r *MemoryRelay) storeLocked(ev *nostr.Event) {
	cp := *ev

	switch {
	case cp.Kind == nostr.KindDeletion:
		for _, target := range cp.Tags.Values("e") {
			if existing, ok := r.events[target]; ok && existing.PubKey == cp.PubKey {
				delete(r.events, target)
			}
		}
	case nostr.IsReplaceable(cp.Kind):
		for id, existing := range r.events {
			if existing.Kind == cp.Kind && existing.PubKey == cp.PubKey {
				if existing.CreatedAt > cp.CreatedAt {
					return
				}
				delete(r.events, id)
			}
		}
	case nostr.IsAddressable(cp.Kind):
		d := cp.Tags.Value("d")
		for id, existing := range r.events {
			if existing.Kind == cp.Kind && existing.PubKey == cp.PubKey && existing.Tags.Value("d") == d {
				if existing.CreatedAt > cp.CreatedAt {
					return
				}
				delete(r.events, id)
			}
		}
	}

	r.events[cp.ID] = &cp
}
