package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
	"github.com/trustwaveapp/trustwave-server/internal/store"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

const (
	testSongsList     = "9998:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb:songs"
	testMusiciansList = "9998:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb:musicians"
)

// testNow anchors every record timestamp in the service tests.
var testNow = time.Unix(1_760_000_000, 0)

func at(offset time.Duration) int64 {
	return testNow.Add(offset).Unix()
}

// staticTrust serves one fixed trust map for every provider.
type staticTrust struct {
	m   domain.TrustMap
	err error
}

func (s *staticTrust) Get(_ context.Context, p domain.TrustProvider) (*trust.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &trust.Snapshot{Provider: p, Map: s.m, Subjects: len(s.m), BuiltAt: testNow}, nil
}

type staticResolver struct{}

func (staticResolver) Resolve(context.Context, string) domain.TrustProvider {
	return domain.TrustProvider{PubKey: "provider", RelayURL: "wss://memory.relay"}
}

// testEnv wires the catalog services over an in-memory relay and stores.
type testEnv struct {
	relay   *nostrtest.MemoryRelay
	hidden  *store.Store
	jobs    *sqlite.Store
	trust   *staticTrust
	catalog *CatalogService
	// curator is trusted above the threshold; stranger is not ranked.
	curator  *nostr.KeySigner
	stranger *nostr.KeySigner
	server   *nostr.KeySigner
	cfg      config.CatalogConfig
	logger   *slog.Logger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hidden, err := store.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hidden.Close() })

	jobs, err := sqlite.Open(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jobs.Close() })

	env := &testEnv{
		relay:    nostrtest.NewMemoryRelay(),
		hidden:   hidden,
		jobs:     jobs,
		curator:  nostrtest.NewSigner(t),
		stranger: nostrtest.NewSigner(t),
		server:   nostrtest.NewSigner(t),
		logger:   logger,
		cfg: config.CatalogConfig{
			SongsListTag:     testSongsList,
			MusiciansListTag: testMusiciansList,
			FetchLimit:       500,
			ReactionLimit:    2000,
			CacheTTL:         time.Minute,
			TrendingWindow:   7 * 24 * time.Hour,
		},
	}
	env.trust = &staticTrust{m: domain.TrustMap{env.curator.PublicKey(): 100}}

	aggregator := reaction.NewAggregator(env.relay, env.cfg.ReactionLimit, domain.DefaultTrustThreshold, logger)
	env.catalog = NewCatalogService(env.relay, env.trust, staticResolver{}, aggregator, hidden, nil, env.server, env.cfg, logger)
	env.catalog.now = func() time.Time { return testNow }
	return env
}

func (e *testEnv) aggregator() *reaction.Aggregator {
	return e.catalog.reactions
}

// song seeds a music track on the songs list.
func (e *testEnv) song(t *testing.T, guid, title string, createdAt int64) *nostr.Event {
	t.Helper()
	ev := nostrtest.Song(t, e.curator, testSongsList, guid, title, "Nova", 200, createdAt)
	e.relay.Add(ev)
	return ev
}

func (e *testEnv) react(t *testing.T, signer nostr.Signer, target *nostr.Event, content string, createdAt int64) *nostr.Event {
	t.Helper()
	ev := nostrtest.Reaction(t, signer, target, content, createdAt)
	e.relay.Add(ev)
	return ev
}

func entryIDs(entries []domain.ScoredEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func findEntry(entries []domain.ScoredEntry, id string) (domain.ScoredEntry, bool) {
	i := slices.IndexFunc(entries, func(e domain.ScoredEntry) bool { return e.ID == id })
	if i < 0 {
		return domain.ScoredEntry{}, false
	}
	return entries[i], true
}

// failKinds makes the relay fail every query for one of kinds.
func failKinds(err error, kinds ...int) func(nostr.Filter) error {
	return func(f nostr.Filter) error {
		for _, k := range kinds {
			if slices.Contains(f.Kinds, k) {
				return err
			}
		}
		return nil
	}
}

var errRelayDown = domainerrors.Transport("relay unreachable", io.ErrUnexpectedEOF)
