package trust

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// Cache keeps one trust map per provider for the life of the process.
// Concurrent requests for the same provider share a single build. Partial
// builds are returned but not kept, so the next request retries.
type Cache struct {
	builder  *Builder
	stores   nostr.Stores
	curators map[string]int
	logger   *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	maps  map[string]*Snapshot
}

// Snapshot is a cached trust map.
type Snapshot struct {
	Provider domain.TrustProvider `json:"provider"`
	Map      domain.TrustMap      `json:"-"`
	Records  int                  `json:"records"`
	Subjects int                  `json:"subjects"`
	BuiltAt  time.Time            `json:"built_at"`
	Partial  bool                 `json:"partial"`
}

// NewCache creates a cache. curators are fallback ranks for keys the
// provider has not asserted.
func NewCache(builder *Builder, stores nostr.Stores, curators map[string]int, logger *slog.Logger) *Cache {
	return &Cache{
		builder:  builder,
		stores:   stores,
		curators: curators,
		logger:   logger,
		maps:     make(map[string]*Snapshot),
	}
}

func cacheKey(p domain.TrustProvider) string {
	return p.PubKey + "@" + nostr.NormalizeURL(p.RelayURL)
}

// Get returns the provider's trust map, building it on first use.
func (c *Cache) Get(ctx context.Context, provider domain.TrustProvider) (*Snapshot, error) {
	key := cacheKey(provider)

	c.mu.RLock()
	snap, ok := c.maps[key]
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Shared by every waiter, so one caller giving up must not cancel it.
		buildCtx := context.WithoutCancel(ctx)
		res, err := c.builder.Build(buildCtx, c.stores.Store(provider.RelayURL), provider.PubKey)
		if err != nil && !domainerrors.Is(err, domainerrors.ErrPartialData) {
			return nil, err
		}

		m := res.Map.WithFallback(c.curators)
		snap := &Snapshot{
			Provider: provider,
			Map:      m,
			Records:  res.Records,
			Subjects: len(m),
			BuiltAt:  time.Now(),
			Partial:  err != nil,
		}
		if !snap.Partial {
			c.mu.Lock()
			c.maps[key] = snap
			c.mu.Unlock()
		}
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, domainerrors.Transport("trust map build abandoned", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			c.logger.Warn("trust map unavailable, using system curators only",
				"provider", provider.PubKey, "error", r.Err)
			return &Snapshot{
				Provider: provider,
				Map:      domain.TrustMap{}.WithFallback(c.curators),
				Subjects: len(c.curators),
				BuiltAt:  time.Now(),
				Partial:  true,
			}, nil
		}
		return r.Val.(*Snapshot), nil
	}
}

// Invalidate drops the cached map for provider so the next Get rebuilds it.
func (c *Cache) Invalidate(provider domain.TrustProvider) {
	c.mu.Lock()
	delete(c.maps, cacheKey(provider))
	c.mu.Unlock()
}

// Ranks returns the rank of each subject under provider, leaving unranked
// subjects out. A cached map answers directly; otherwise only the subjects'
// assertions are fetched. System curators fill the gaps either way. A
// partial-data error is returned along with the ranks that were read.
func (c *Cache) Ranks(ctx context.Context, provider domain.TrustProvider, subjects []string) (domain.TrustMap, error) {
	c.mu.RLock()
	snap, ok := c.maps[cacheKey(provider)]
	c.mu.RUnlock()

	if ok {
		out := make(domain.TrustMap, len(subjects))
		for _, subject := range subjects {
			if r := snap.Map.Rank(subject); r > 0 {
				out[subject] = r
			}
		}
		return out, nil
	}

	ranks, err := c.builder.Ranks(ctx, c.stores.Store(provider.RelayURL), provider.PubKey, subjects)
	if err != nil && !domainerrors.Is(err, domainerrors.ErrPartialData) {
		return nil, err
	}
	for _, subject := range subjects {
		if r := c.curators[subject]; r > 0 && ranks[subject] == 0 {
			ranks[subject] = r
		}
	}
	return ranks, err
}

// Snapshots returns every cached map summary.
func (c *Cache) Snapshots() []*Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Snapshot, 0, len(c.maps))
	for _, s := range c.maps {
		out = append(out, s)
	}
	return out
}
