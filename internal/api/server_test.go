package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
	"github.com/trustwaveapp/trustwave-server/internal/podcastindex"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
	"github.com/trustwaveapp/trustwave-server/internal/reconcile"
	"github.com/trustwaveapp/trustwave-server/internal/search"
	"github.com/trustwaveapp/trustwave-server/internal/service"
	"github.com/trustwaveapp/trustwave-server/internal/store"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

const (
	testSongsList     = "9998:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb:songs"
	testMusiciansList = "9998:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb:musicians"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with the fixtures behind it.
type testServer struct {
	*Server
	api      humatest.TestAPI
	relay    *nostrtest.MemoryRelay
	hidden   *store.Store
	jobs     *sqlite.Store
	index    *search.SearchIndex
	feeds    *stubFeedIndex
	provider *nostr.KeySigner
	curator  *nostr.KeySigner
	stranger *nostr.KeySigner
	signer   *nostr.KeySigner
}

// setupTestServer wires every service over an in-memory relay and stores.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hidden, err := store.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hidden.Close() })

	jobs, err := sqlite.Open(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jobs.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	ts := &testServer{
		relay:    nostrtest.NewMemoryRelay(),
		hidden:   hidden,
		jobs:     jobs,
		index:    index,
		feeds:    newStubFeedIndex(),
		provider: nostrtest.NewSigner(t),
		curator:  nostrtest.NewSigner(t),
		stranger: nostrtest.NewSigner(t),
		signer:   nostrtest.NewSigner(t),
	}

	cfg := config.CatalogConfig{
		SongsListTag:     testSongsList,
		MusiciansListTag: testMusiciansList,
		FetchLimit:       500,
		ReactionLimit:    2000,
		CacheTTL:         time.Minute,
		TrendingWindow:   7 * 24 * time.Hour,
	}

	stores := nostr.StaticStores{S: ts.relay}
	fallback := domain.TrustProvider{PubKey: ts.provider.PublicKey(), RelayURL: ts.relay.URL()}
	trustCache := trust.NewCache(trust.NewBuilder(0, 0, logger), stores, map[string]int{ts.curator.PublicKey(): 100}, logger)
	resolver := trust.NewResolver(stores, []string{ts.relay.URL()}, fallback, logger)
	aggregator := reaction.NewAggregator(ts.relay, cfg.ReactionLimit, domain.DefaultTrustThreshold, logger)

	catalog := service.NewCatalogService(ts.relay, trustCache, resolver, aggregator, hidden, index, ts.signer, cfg, logger)
	imports := service.NewImportService(ts.relay, ts.feeds, reconcile.NewGuard(ts.relay, logger), hidden, catalog, cfg,
		service.ImportServiceOptions{Jobs: jobs, Signer: ts.signer, EpisodesPerFeed: 50}, logger)

	services := &Services{
		Catalog:  catalog,
		Votes:    service.NewVoteService(ts.relay, catalog, logger),
		Curation: service.NewCurationService(ts.relay, hidden, catalog, ts.signer, logger),
		Import:   imports,
		Janitor:  service.NewJanitorService(ts.relay, aggregator, jobs, ts.signer, testSongsList, config.JanitorConfig{}, logger),
		Trust:    trustCache,
		Resolver: resolver,
		Hidden:   hidden,
		Jobs:     jobs,
		Index:    index,
	}

	ts.Server = NewServer(services, config.ServerConfig{}, logger)
	t.Cleanup(ts.Server.Close)
	ts.api = humatest.Wrap(t, ts.Server.api)
	return ts
}

// ago returns a record timestamp d before now.
func ago(d time.Duration) int64 {
	return time.Now().Add(-d).Unix()
}

func (ts *testServer) song(t *testing.T, guid, title string, createdAt int64) *nostr.Event {
	t.Helper()
	ev := nostrtest.Song(t, ts.curator, testSongsList, guid, title, "Nova", 200, createdAt)
	ts.relay.Add(ev)
	return ev
}

func (ts *testServer) react(t *testing.T, signer nostr.Signer, target *nostr.Event, content string) {
	t.Helper()
	ts.relay.Add(nostrtest.Reaction(t, signer, target, content, ago(time.Minute)))
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

func entryIDs(entries []domain.ScoredEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// stubFeedIndex serves a fixed set of feeds.
type stubFeedIndex struct {
	feeds    []podcastindex.Feed
	episodes map[string][]podcastindex.Episode
}

func newStubFeedIndex() *stubFeedIndex {
	return &stubFeedIndex{
		feeds: []podcastindex.Feed{
			{ID: 41, PodcastGUID: "feed-a", Title: "Nova", URL: "https://feeds.example/a.xml"},
			{ID: 42, PodcastGUID: "feed-b", Title: "Orbit LP", Author: "Orbit", URL: "https://feeds.example/b.xml"},
		},
		episodes: map[string][]podcastindex.Episode{
			"42": {{GUID: "b-1", Title: "Low Tide", EnclosureURL: "https://media.example/b-1.mp3", Duration: 240, FeedID: 42}},
		},
	}
}

func (f *stubFeedIndex) Search(_ context.Context, _ string, limit int) ([]podcastindex.Feed, error) {
	return f.feeds[:min(limit, len(f.feeds))], nil
}

func (f *stubFeedIndex) Feed(_ context.Context, feedID string) (*podcastindex.Feed, error) {
	for i := range f.feeds {
		if strconv.FormatInt(f.feeds[i].ID, 10) == feedID {
			feed := f.feeds[i]
			return &feed, nil
		}
	}
	return nil, podcastindex.ErrNotFound
}

func (f *stubFeedIndex) FeedByGUID(_ context.Context, guid string) (*podcastindex.Feed, error) {
	for i := range f.feeds {
		if f.feeds[i].PodcastGUID == guid {
			feed := f.feeds[i]
			return &feed, nil
		}
	}
	return nil, podcastindex.ErrNotFound
}

func (f *stubFeedIndex) Episodes(_ context.Context, feedID string, limit int) ([]podcastindex.Episode, error) {
	eps, ok := f.episodes[feedID]
	if !ok {
		return nil, podcastindex.ErrNotFound
	}
	return eps[:min(limit, len(eps))], nil
}
