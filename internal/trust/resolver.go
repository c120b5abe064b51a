package trust

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// RankService is the provider tag naming a rank publisher.
const RankService = "30382:rank"

// DefaultProviderTTL bounds how long a viewer's resolved provider is reused.
const DefaultProviderTTL = 5 * time.Minute

// Resolver finds which provider a viewer trusts by reading their kind-10040
// record. Viewers without one, or without a usable rank entry, get the
// default provider.
type Resolver struct {
	stores    nostr.Stores
	discovery []string
	fallback  domain.TrustProvider
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]resolved
}

type resolved struct {
	provider domain.TrustProvider
	expires  time.Time
}

// NewResolver creates a resolver. discovery lists the relays searched for
// provider records, in order.
func NewResolver(stores nostr.Stores, discovery []string, fallback domain.TrustProvider, logger *slog.Logger) *Resolver {
	return &Resolver{
		stores:    stores,
		discovery: discovery,
		fallback:  fallback,
		ttl:       DefaultProviderTTL,
		logger:    logger,
		now:       time.Now,
		entries:   make(map[string]resolved),
	}
}

// Default returns the provider used when a viewer declares none.
func (r *Resolver) Default() domain.TrustProvider {
	return r.fallback
}

// Resolve returns the viewer's rank provider. Lookup failures fall back to
// the default provider.
func (r *Resolver) Resolve(ctx context.Context, viewer string) domain.TrustProvider {
	if viewer == "" {
		return r.fallback
	}

	r.mu.Lock()
	if e, ok := r.entries[viewer]; ok && r.now().Before(e.expires) {
		r.mu.Unlock()
		return e.provider
	}
	r.mu.Unlock()

	provider := r.lookup(ctx, viewer)

	r.mu.Lock()
	r.entries[viewer] = resolved{provider: provider, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return provider
}

func (r *Resolver) lookup(ctx context.Context, viewer string) domain.TrustProvider {
	filter := nostr.Filter{
		Kinds:   []int{nostr.KindTrustedProviders},
		Authors: []string{viewer},
		Limit:   1,
	}
	for _, url := range r.discovery {
		events, err := r.stores.Store(url).Query(ctx, filter)
		if err != nil && len(events) == 0 {
			r.logger.Debug("provider lookup failed", "relay", url, "viewer", viewer, "error", err)
			continue
		}
		if len(events) == 0 {
			continue
		}
		newest := slices.MaxFunc(events, func(a, b *nostr.Event) int {
			return int(a.CreatedAt - b.CreatedAt)
		})
		if p, ok := ParseProviders(newest); ok {
			return p
		}
		break
	}
	return r.fallback
}

// ParseProviders extracts the rank provider from a kind-10040 record. Only
// secure relay URLs are accepted.
func ParseProviders(ev *nostr.Event) (domain.TrustProvider, bool) {
	if ev == nil || ev.Kind != nostr.KindTrustedProviders {
		return domain.TrustProvider{}, false
	}
	for _, tag := range ev.Tags {
		if len(tag) < 3 || tag[0] != RankService {
			continue
		}
		if !strings.HasPrefix(tag[2], "wss://") || tag[1] == "" {
			continue
		}
		return domain.TrustProvider{PubKey: tag[1], RelayURL: tag[2], Declared: true}, true
	}
	return domain.TrustProvider{}, false
}
