// Package trust builds and caches the pubkey to rank map published by a
// reputation provider.
package trust

import (
	"context"
	"log/slog"
	"strings"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// Pagination defaults.
const (
	DefaultBatchSize  = 500
	DefaultMaxRecords = 100_000
)

// Builder pages through a provider's rank assertions.
type Builder struct {
	batchSize  int
	maxRecords int
	logger     *slog.Logger
}

// NewBuilder creates a Builder. Non-positive sizes take the defaults.
func NewBuilder(batchSize, maxRecords int, logger *slog.Logger) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Builder{batchSize: batchSize, maxRecords: maxRecords, logger: logger}
}

// BuildResult is a trust map plus how it was obtained.
type BuildResult struct {
	Map      domain.TrustMap
	Records  int // Unique assertions read
	Batches  int // Pages that carried records
	Requests int
}

// Build fetches every assertion providerKey published on store. A transport
// failure stops pagination and returns the map built so far together with a
// PartialData error; absent subjects rank 0.
func (b *Builder) Build(ctx context.Context, store nostr.Store, providerKey string) (BuildResult, error) {
	pager := nostr.NewPager(store, nostr.Filter{
		Kinds:   []int{nostr.KindTrustedAssertionPubkey},
		Authors: []string{providerKey},
	}, b.batchSize, b.maxRecords)

	latest := make(map[string]domain.TrustAssertion)
	var fetchErr error
	for !pager.Done() {
		page, err := pager.Next(ctx)
		for _, ev := range page {
			a, ok := ParseAssertion(ev)
			if !ok {
				continue
			}
			if cur, seen := latest[a.SubjectKey]; !seen || newer(a, cur) {
				latest[a.SubjectKey] = a
			}
		}
		if err != nil {
			fetchErr = err
			break
		}
	}

	res := BuildResult{
		Map:      make(domain.TrustMap, len(latest)),
		Records:  pager.Total(),
		Batches:  pager.Batches(),
		Requests: pager.Requests(),
	}
	for subject, a := range latest {
		res.Map[subject] = a.Rank
	}

	if fetchErr != nil {
		b.logger.Warn("trust map build stopped early",
			"provider", providerKey,
			"relay", store.URL(),
			"records", res.Records,
			"subjects", len(res.Map),
			"error", fetchErr)
		return res, domainerrors.PartialData("trust map incomplete", res.Records, fetchErr)
	}

	b.logger.Info("trust map built",
		"provider", providerKey,
		"relay", store.URL(),
		"records", res.Records,
		"subjects", len(res.Map),
		"batches", res.Batches)
	return res, nil
}

// Ranks looks up specific subjects without building the whole map.
func (b *Builder) Ranks(ctx context.Context, store nostr.Store, providerKey string, subjects []string) (domain.TrustMap, error) {
	out := make(domain.TrustMap, len(subjects))
	if len(subjects) == 0 {
		return out, nil
	}
	events, err := store.Query(ctx, nostr.Filter{
		Kinds:   []int{nostr.KindTrustedAssertionPubkey},
		Authors: []string{providerKey},
		Tags:    map[string][]string{"d": subjects},
		Limit:   len(subjects) * 2,
	})
	if err != nil && !domainerrors.Is(err, domainerrors.ErrPartialData) {
		return out, err
	}

	latest := make(map[string]domain.TrustAssertion)
	for _, ev := range events {
		a, ok := ParseAssertion(ev)
		if !ok {
			continue
		}
		if cur, seen := latest[a.SubjectKey]; !seen || newer(a, cur) {
			latest[a.SubjectKey] = a
		}
	}
	for subject, a := range latest {
		out[subject] = a.Rank
	}
	return out, err
}

// ParseAssertion reads a kind-30382 record. The subject is the "d" tag; a
// missing or unparsable rank counts as 0.
func ParseAssertion(ev *nostr.Event) (domain.TrustAssertion, bool) {
	if ev == nil || ev.Kind != nostr.KindTrustedAssertionPubkey {
		return domain.TrustAssertion{}, false
	}
	subject := strings.TrimSpace(ev.Tags.Value("d"))
	if subject == "" {
		return domain.TrustAssertion{}, false
	}
	return domain.TrustAssertion{
		ID:         ev.ID,
		SubjectKey: subject,
		Rank:       leadingInt(ev.Tags.Value("rank")),
		CreatedAt:  ev.CreatedAt,
	}, true
}

func newer(a, b domain.TrustAssertion) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID > b.ID
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<30 {
			break
		}
	}
	if neg {
		return -n
	}
	return n
}
