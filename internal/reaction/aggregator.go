package reaction

import (
	"context"
	"log/slog"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// DefaultLimit caps reactions fetched per aggregation.
const DefaultLimit = 2000

// Aggregator fetches reactions for a set of catalog ids and tallies them.
type Aggregator struct {
	store     nostr.Store
	limit     int
	threshold int
	logger    *slog.Logger
}

// NewAggregator creates an Aggregator reading from store.
func NewAggregator(store nostr.Store, limit, threshold int, logger *slog.Logger) *Aggregator {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Aggregator{store: store, limit: limit, threshold: threshold, logger: logger}
}

// Threshold returns the trust rank a non-viewer must exceed to be counted.
func (a *Aggregator) Threshold() int {
	return a.threshold
}

// Request describes one aggregation.
type Request struct {
	IDs    []string
	Trust  domain.TrustMap
	Viewer string
	Since  int64 // Only reactions at or after Since; 0 means all
}

// Aggregate returns a tally for every requested id. When fetching fails the
// tallies are still complete (empty where nothing arrived) and the error says
// why, so callers can degrade to zero scores.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (map[string]domain.Tally, error) {
	records, err := a.Fetch(ctx, req.IDs, req.Since)
	tallies := Tally(req.IDs, records, Policy{
		Trust:     req.Trust,
		Threshold: a.threshold,
		Viewer:    req.Viewer,
	})
	return tallies, err
}

// Fetch runs one batched query for reactions targeting ids.
func (a *Aggregator) Fetch(ctx context.Context, ids []string, since int64) ([]domain.ReactionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	events, err := a.store.Query(ctx, nostr.Filter{
		Kinds: []int{nostr.KindReaction},
		Tags:  map[string][]string{"e": ids},
		Since: since,
		Limit: a.limit,
	})

	records := make([]domain.ReactionRecord, 0, len(events))
	for _, ev := range events {
		if r, ok := Parse(ev); ok {
			records = append(records, r)
		}
	}

	if len(events) >= a.limit {
		a.logger.Warn("reaction fetch hit limit, older reactions are not counted",
			"items", len(ids), "limit", a.limit)
	}
	if err != nil {
		a.logger.Warn("reaction fetch failed",
			"items", len(ids),
			"received", len(records),
			"partial", domainerrors.Is(err, domainerrors.ErrPartialData),
			"error", err)
	}
	return records, err
}

// ByAuthor returns the latest reaction author left on each target.
func (a *Aggregator) ByAuthor(ctx context.Context, author string, ids []string) (map[string]domain.ReactionRecord, error) {
	out := make(map[string]domain.ReactionRecord)
	if author == "" || len(ids) == 0 {
		return out, nil
	}
	events, err := a.store.Query(ctx, nostr.Filter{
		Kinds:   []int{nostr.KindReaction},
		Authors: []string{author},
		Tags:    map[string][]string{"e": ids},
		Limit:   a.limit,
	})
	var records []domain.ReactionRecord
	for _, ev := range events {
		if r, ok := Parse(ev); ok {
			records = append(records, r)
		}
	}
	for _, r := range Collapse(records) {
		out[r.TargetID] = r
	}
	return out, err
}
