package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trustwaveapp/trustwave-server/internal/catalog"
	"github.com/trustwaveapp/trustwave-server/internal/classify"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/id"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
	"github.com/trustwaveapp/trustwave-server/internal/search"
	"github.com/trustwaveapp/trustwave-server/internal/syncutil"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
	"github.com/trustwaveapp/trustwave-server/internal/validation"
)

// countSampleLimit is the relay-side cap for list counts.
const countSampleLimit = 1000

// HiddenSet is the local suppression set consulted before scoring.
type HiddenSet interface {
	IsHidden(id string) bool
	HiddenIDs(ctx context.Context, listTag string) (map[string]struct{}, error)
}

// TrustSource supplies the trust map of a provider.
type TrustSource interface {
	Get(ctx context.Context, provider domain.TrustProvider) (*trust.Snapshot, error)
}

// ProviderResolver finds the trust provider a viewer declared.
type ProviderResolver interface {
	Resolve(ctx context.Context, viewer string) domain.TrustProvider
}

// MaterializeRequest selects one ranked view of a list.
type MaterializeRequest struct {
	ListTag         string
	Viewer          string
	IncludeNonMusic bool
	// Since limits both entries and reactions to records at or after it; 0 means all.
	Since int64
}

// Catalog is one materialized, ranked list.
type Catalog struct {
	ListTag  string               `json:"list_tag"`
	Entries  []domain.ScoredEntry `json:"entries"`
	Provider domain.TrustProvider `json:"provider"`
	// Skipped counts records that did not parse as songs or artists.
	Skipped int `json:"skipped"`
	// Hidden counts records dropped by the local suppression set.
	Hidden int `json:"hidden"`
	// Partial is set when the list or trust fetch returned a reduced result.
	Partial bool `json:"partial"`
	// ReactionsDegraded is set when reactions could not be fetched in full.
	ReactionsDegraded bool      `json:"reactions_degraded"`
	BuiltAt           time.Time `json:"built_at"`
}

type viewKey struct {
	list     string
	viewer   string
	nonMusic bool
	since    int64
}

// view is the cached state behind a Catalog. Votes derive a new view from
// the parsed entries and raw reactions instead of editing Entries in place.
type view struct {
	catalog   *Catalog
	entries   []domain.CatalogEntry
	reactions []domain.ReactionRecord
	policy    reaction.Policy
	expires   time.Time
}

// CatalogService materializes ranked catalog views.
type CatalogService struct {
	store     nostr.Store
	trust     TrustSource
	resolver  ProviderResolver
	reactions *reaction.Aggregator
	hidden    HiddenSet
	index     *search.SearchIndex
	signer    nostr.Signer
	cfg       config.CatalogConfig
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
	views     *syncutil.SyncMap[viewKey, *view]
	indexMu   sync.Mutex
	indexedAt time.Time
}

// NewCatalogService creates a new catalog service. index and signer may be nil:
// without an index search is unavailable, without a signer lists must arrive
// signed by the client.
func NewCatalogService(
	store nostr.Store,
	trustSource TrustSource,
	resolver ProviderResolver,
	reactions *reaction.Aggregator,
	hidden HiddenSet,
	index *search.SearchIndex,
	signer nostr.Signer,
	cfg config.CatalogConfig,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		store:     store,
		trust:     trustSource,
		resolver:  resolver,
		reactions: reactions,
		hidden:    hidden,
		index:     index,
		signer:    signer,
		cfg:       cfg,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
		views:     syncutil.NewSyncMap[viewKey, *view](),
	}
}

// Materialize returns the ranked view of a list. Views are cached per
// (list, viewer) for the configured TTL; partial views are never cached.
func (s *CatalogService) Materialize(ctx context.Context, req MaterializeRequest) (*Catalog, error) {
	if req.ListTag == "" {
		return nil, domainerrors.Validation("list tag is required")
	}
	key := viewKey{list: req.ListTag, viewer: req.Viewer, nonMusic: req.IncludeNonMusic, since: req.Since}
	if v, ok := s.views.Load(key); ok && s.now().Before(v.expires) {
		return v.catalog, nil
	}

	v, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	if !v.catalog.Partial && !v.catalog.ReactionsDegraded && s.cfg.CacheTTL > 0 {
		v.expires = s.now().Add(s.cfg.CacheTTL)
		s.views.Store(key, v)
	}
	return v.catalog, nil
}

func (s *CatalogService) build(ctx context.Context, req MaterializeRequest) (*view, error) {
	start := s.now()

	var (
		events   []*nostr.Event
		listErr  error
		snapshot *trust.Snapshot
		provider domain.TrustProvider
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		provider = s.resolver.Resolve(gctx, req.Viewer)
		snap, err := s.trust.Get(gctx, provider)
		if err != nil {
			s.logger.Warn("trust map unavailable, only the viewer's reactions count",
				"provider", provider.PubKey, "error", err)
			return nil
		}
		snapshot = snap
		return nil
	})
	g.Go(func() error {
		events, listErr = s.store.Query(gctx, nostr.Filter{
			Kinds: nostr.ListItemKinds,
			Tags:  map[string][]string{"z": {req.ListTag}},
			Since: req.Since,
			Limit: s.cfg.FetchLimit,
		})
		if listErr != nil && !domainerrors.Is(listErr, domainerrors.ErrPartialData) {
			return listErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat := &Catalog{ListTag: req.ListTag, Provider: provider}
	if listErr != nil {
		cat.Partial = true
		s.logger.Warn("list fetch returned partial data",
			"list", req.ListTag, "received", len(events), "error", listErr)
	}
	if len(events) >= s.cfg.FetchLimit && s.cfg.FetchLimit > 0 {
		s.logger.Warn("list fetch hit limit, catalog is truncated",
			"list", req.ListTag, "limit", s.cfg.FetchLimit)
	}

	policy := reaction.Policy{Threshold: s.reactions.Threshold(), Viewer: req.Viewer, Trust: domain.TrustMap{}}
	if snapshot != nil {
		policy.Trust = snapshot.Map
		cat.Partial = cat.Partial || snapshot.Partial
	}

	hidden, err := s.hidden.HiddenIDs(ctx, "")
	if err != nil {
		s.logger.Warn("hidden set unavailable, showing every entry", "error", err)
		hidden = nil
	}
	visible := events[:0:0]
	for _, ev := range events {
		if _, ok := hidden[ev.ID]; ok {
			cat.Hidden++
			continue
		}
		visible = append(visible, ev)
	}

	entries, skipped := catalog.ParseEntries(visible)
	cat.Skipped = len(skipped)
	if len(skipped) > 0 {
		s.logger.Debug("skipped unparseable list items", "list", req.ListTag, "count", len(skipped))
	}
	// Relays return records in no particular order.
	slices.SortFunc(entries, func(a, b domain.CatalogEntry) int { return cmp.Compare(a.ID, b.ID) })

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	records, err := s.reactions.Fetch(ctx, ids, req.Since)
	if err != nil {
		cat.ReactionsDegraded = true
		if !domainerrors.Is(err, domainerrors.ErrPartialData) {
			records = nil
		}
	}

	v := &view{catalog: cat, entries: entries, reactions: records, policy: policy}
	v.catalog.Entries = v.rank(ids, req.IncludeNonMusic)
	cat.BuiltAt = s.now()

	s.logger.Debug("materialized list",
		"list", req.ListTag,
		"viewer", req.Viewer,
		"records", len(events),
		"entries", len(cat.Entries),
		"duration_ms", s.now().Sub(start).Milliseconds())
	return v, nil
}

// rank scores the view's entries against its reactions.
func (v *view) rank(ids []string, includeNonMusic bool) []domain.ScoredEntry {
	tallies := reaction.Tally(ids, v.reactions, v.policy)
	ranked := catalog.Rank(catalog.Score(v.entries, tallies))
	if !includeNonMusic {
		ranked = classify.FilterMusic(ranked)
	}
	return ranked
}

func (v *view) ids() []string {
	ids := make([]string, len(v.entries))
	for i := range v.entries {
		ids[i] = v.entries[i].ID
	}
	return ids
}

func (v *view) has(id string) bool {
	return slices.ContainsFunc(v.entries, func(e domain.CatalogEntry) bool { return e.ID == id })
}

// withReaction returns a copy of v with r applied.
func (v *view) withReaction(r domain.ReactionRecord, includeNonMusic bool) *view {
	next := &view{
		entries:   v.entries,
		reactions: append(slices.Clip(v.reactions), r),
		policy:    v.policy,
		expires:   v.expires,
	}
	cat := *v.catalog
	next.catalog = &cat
	next.catalog.Entries = next.rank(next.ids(), includeNonMusic)
	return next
}

func (v *view) hasReaction(id string) bool {
	return slices.ContainsFunc(v.reactions, func(r domain.ReactionRecord) bool { return r.ID == id })
}

// withoutReaction returns a copy of v with the reaction id removed.
func (v *view) withoutReaction(id string, includeNonMusic bool) *view {
	kept := slices.DeleteFunc(slices.Clone(v.reactions), func(r domain.ReactionRecord) bool { return r.ID == id })
	next := &view{
		entries:   v.entries,
		reactions: kept,
		policy:    v.policy,
		expires:   v.expires,
	}
	cat := *v.catalog
	next.catalog = &cat
	next.catalog.Entries = next.rank(next.ids(), includeNonMusic)
	return next
}

// Songs returns the ranked songs list.
func (s *CatalogService) Songs(ctx context.Context, viewer string, includeNonMusic bool) (*Catalog, error) {
	return s.Materialize(ctx, MaterializeRequest{
		ListTag:         s.cfg.SongsListTag,
		Viewer:          viewer,
		IncludeNonMusic: includeNonMusic,
	})
}

// ArtistsResult is the grouped musicians list.
type ArtistsResult struct {
	Groups  []domain.ArtistGroup `json:"groups"`
	Partial bool                 `json:"partial"`
}

// Artists returns the musicians list grouped by normalized name.
func (s *CatalogService) Artists(ctx context.Context, viewer string) (*ArtistsResult, error) {
	cat, err := s.musicians(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return &ArtistsResult{
		Groups:  catalog.GroupArtists(cat.Entries),
		Partial: cat.Partial || cat.ReactionsDegraded,
	}, nil
}

func (s *CatalogService) musicians(ctx context.Context, viewer string) (*Catalog, error) {
	return s.Materialize(ctx, MaterializeRequest{ListTag: s.cfg.MusiciansListTag, Viewer: viewer})
}

// ArtistProvenance lists the records merged into one artist group.
type ArtistProvenance struct {
	Name    string               `json:"name"`
	Entries []domain.ScoredEntry `json:"entries"`
	FeedIDs []string             `json:"feed_ids"`
}

// ArtistEntries returns every musicians-list record behind name.
func (s *CatalogService) ArtistEntries(ctx context.Context, name, viewer string) (*ArtistProvenance, error) {
	cat, err := s.musicians(ctx, viewer)
	if err != nil {
		return nil, err
	}
	entries := catalog.ArtistEntries(cat.Entries, name)
	if len(entries) == 0 {
		return nil, domainerrors.NotFoundf("artist %q not found", name)
	}
	return &ArtistProvenance{
		Name:    name,
		Entries: entries,
		FeedIDs: catalog.ArtistFeedIDs(cat.Entries, name),
	}, nil
}

// SongsByArtist returns the songs published under any of an artist's feeds.
// Songs tagged with one of the artist's feed GUIDs are fetched directly and
// merged with ranked songs whose feed id matches.
func (s *CatalogService) SongsByArtist(ctx context.Context, name, viewer string) ([]domain.ScoredEntry, error) {
	prov, err := s.ArtistEntries(ctx, name, viewer)
	if err != nil {
		return nil, err
	}
	var guids []string
	for _, e := range prov.Entries {
		if g := e.FeedGUID(); g != "" && !slices.Contains(guids, g) {
			guids = append(guids, g)
		}
		if e.Artist != nil && e.Artist.GUID != "" && !slices.Contains(guids, e.Artist.GUID) {
			guids = append(guids, e.Artist.GUID)
		}
	}

	songs, err := s.Songs(ctx, viewer, false)
	if err != nil {
		return nil, err
	}
	matched := catalog.SongsByFeed(songs.Entries, prov.FeedIDs, guids)
	if len(guids) == 0 {
		return matched, nil
	}

	// Songs beyond the ranked sample are still found through the g tag.
	events, err := s.store.Query(ctx, nostr.Filter{
		Kinds: nostr.ListItemKinds,
		Tags:  map[string][]string{"z": {s.cfg.SongsListTag}, "g": guids},
		Limit: s.cfg.FetchLimit,
	})
	if err != nil && !domainerrors.Is(err, domainerrors.ErrPartialData) {
		s.logger.Warn("songs by feed guid lookup failed", "artist", name, "error", err)
		return matched, nil
	}

	seen := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		seen[m.ID] = struct{}{}
	}
	extra, _ := catalog.ParseEntries(events)
	var fresh []domain.CatalogEntry
	for _, e := range extra {
		if _, ok := seen[e.ID]; ok || s.hidden.IsHidden(e.ID) {
			continue
		}
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return matched, nil
	}

	ids := make([]string, len(fresh))
	for i := range fresh {
		ids[i] = fresh[i].ID
	}
	tallies, err := s.reactions.Aggregate(ctx, reaction.Request{IDs: ids, Trust: s.viewerTrust(ctx, viewer), Viewer: viewer})
	if err != nil {
		s.logger.Warn("reactions degraded for feed guid songs", "artist", name, "error", err)
	}
	merged := append(matched, classify.FilterMusic(catalog.Score(fresh, tallies))...)
	return catalog.Rank(merged), nil
}

func (s *CatalogService) viewerTrust(ctx context.Context, viewer string) domain.TrustMap {
	snap, err := s.trust.Get(ctx, s.resolver.Resolve(ctx, viewer))
	if err != nil {
		return domain.TrustMap{}
	}
	return snap.Map
}

// Trending returns songs added within the trending window, scored only by
// reactions from the same window.
func (s *CatalogService) Trending(ctx context.Context, viewer string) (*Catalog, error) {
	window := s.cfg.TrendingWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	// Truncated so repeated requests within a minute share a cached view.
	since := s.now().Add(-window).Truncate(time.Minute).Unix()
	return s.Materialize(ctx, MaterializeRequest{
		ListTag: s.cfg.SongsListTag,
		Viewer:  viewer,
		Since:   since,
	})
}

// ListCounts returns the number of visible entries on each list, marking
// counts whose sample reached the relay-side cap.
func (s *CatalogService) ListCounts(ctx context.Context, listTags []string) ([]domain.ListCount, error) {
	if len(listTags) == 0 {
		listTags = []string{s.cfg.SongsListTag, s.cfg.MusiciansListTag}
	}
	out := make([]domain.ListCount, len(listTags))
	hidden, err := s.hidden.HiddenIDs(ctx, "")
	if err != nil {
		s.logger.Warn("hidden set unavailable, counting every entry", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, tag := range listTags {
		g.Go(func() error {
			events, err := s.store.Query(gctx, nostr.Filter{
				Kinds: nostr.ListItemKinds,
				Tags:  map[string][]string{"z": {tag}},
				Limit: countSampleLimit,
			})
			if err != nil {
				if !domainerrors.Is(err, domainerrors.ErrPartialData) {
					return err
				}
				s.logger.Warn("list count is partial", "list", tag, "received", len(events))
			}
			visible := 0
			for _, ev := range events {
				if _, ok := hidden[ev.ID]; !ok {
					visible++
				}
			}
			out[i] = domain.ListCount{
				ListTag: tag,
				Count:   visible,
				Capped:  len(events) >= countSampleLimit,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GenreLists returns the list headers declaring parent as their parent list.
func (s *CatalogService) GenreLists(ctx context.Context, parent string) ([]domain.ListHeader, error) {
	if parent == "" {
		parent = s.cfg.SongsListTag
	}
	events, err := s.store.Query(ctx, nostr.Filter{
		Kinds: catalog.HeaderKinds,
		Tags:  map[string][]string{"parent": {parent}},
		Limit: 100,
	})
	if err != nil && !domainerrors.Is(err, domainerrors.ErrPartialData) {
		return nil, err
	}

	headers := make([]domain.ListHeader, 0, len(events))
	for _, ev := range events {
		h, perr := catalog.ParseListHeader(ev)
		if perr != nil {
			continue
		}
		headers = append(headers, h)
	}
	slices.SortFunc(headers, func(a, b domain.ListHeader) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return headers, nil
}

// CreateListRequest contains fields for creating a genre sub-list. Event, when
// set, is a header the client already signed and the other fields are ignored.
type CreateListRequest struct {
	NameSingular string       `json:"name_singular" validate:"required_without=Event,max=100"`
	NamePlural   string       `json:"name_plural" validate:"required_without=Event,max=100"`
	Description  string       `json:"description" validate:"max=2000"`
	Parent       string       `json:"parent" validate:"omitempty,atag"`
	Genres       []string     `json:"genres" validate:"max=10,dive,min=1,max=50"`
	Event        *nostr.Event `json:"event,omitempty"`
}

// CreateList publishes a list header.
func (s *CatalogService) CreateList(ctx context.Context, req CreateListRequest) (*domain.ListHeader, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ev := req.Event
	if ev == nil {
		if s.signer == nil {
			return nil, domainerrors.Validation("a signed list header is required")
		}
		parent := req.Parent
		if parent == "" {
			parent = s.cfg.SongsListTag
		}
		ev = catalog.NewListHeaderEvent(domain.ListHeader{
			Identifier:   id.ListIdentifier(),
			NameSingular: strings.TrimSpace(req.NameSingular),
			NamePlural:   strings.TrimSpace(req.NamePlural),
			Description:  req.Description,
			Parent:       parent,
			Genres:       req.Genres,
		})
		if err := s.signer.Sign(ev); err != nil {
			return nil, domainerrors.Internal("sign list header").WithCause(err)
		}
	} else if err := nostr.Verify(ev); err != nil {
		return nil, domainerrors.Validation("list header signature invalid").WithCause(err)
	}

	header, err := catalog.ParseListHeader(ev)
	if err != nil {
		return nil, err
	}
	if err := s.store.Publish(ctx, ev); err != nil {
		return nil, err
	}

	s.logger.Info("list created", "a_tag", header.ATag, "parent", header.Parent)
	return &header, nil
}

// Search runs a free-text query against the catalog index, rebuilding the
// index from the materialized lists when it is older than the cache TTL.
func (s *CatalogService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search index unavailable")
	}
	if err := s.refreshIndex(ctx); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, params)
}

// RebuildIndex rebuilds the search index from the current lists.
func (s *CatalogService) RebuildIndex(ctx context.Context) (int, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.rebuildIndexLocked(ctx)
}

func (s *CatalogService) refreshIndex(ctx context.Context) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if !s.indexedAt.IsZero() && s.now().Sub(s.indexedAt) < s.cfg.CacheTTL {
		return nil
	}
	_, err := s.rebuildIndexLocked(ctx)
	return err
}

func (s *CatalogService) rebuildIndexLocked(ctx context.Context) (int, error) {
	songs, err := s.Songs(ctx, "", false)
	if err != nil {
		return 0, err
	}
	artists, err := s.Artists(ctx, "")
	if err != nil {
		return 0, err
	}

	docs := make([]*search.SearchDocument, 0, len(songs.Entries)+len(artists.Groups))
	for i := range songs.Entries {
		docs = append(docs, search.NewDocument(&songs.Entries[i]))
	}
	for i := range artists.Groups {
		doc := search.NewDocument(&artists.Groups[i].Primary)
		doc.Score = artists.Groups[i].Score()
		docs = append(docs, doc)
	}
	if err := s.index.Replace(docs); err != nil {
		return 0, err
	}
	s.indexedAt = s.now()
	return len(docs), nil
}

// Invalidate drops every cached view so the next request rematerializes.
func (s *CatalogService) Invalidate() {
	s.views.Clear()
	s.indexMu.Lock()
	s.indexedAt = time.Time{}
	s.indexMu.Unlock()
}

// CachedViews returns the number of cached materializations.
func (s *CatalogService) CachedViews() int {
	return s.views.Len()
}

// applyReaction derives a new view for every cached view containing the
// target. It returns the previous views so a failed publish can restore them.
func (s *CatalogService) applyReaction(r domain.ReactionRecord) map[viewKey]viewSwap {
	swaps := make(map[viewKey]viewSwap)
	var keys []viewKey
	s.views.Range(func(k viewKey, v *view) bool {
		if v.has(r.TargetID) && (k.since == 0 || r.CreatedAt >= k.since) {
			keys = append(keys, k)
		}
		return true
	})
	for _, k := range keys {
		prev, ok := s.views.Load(k)
		if !ok {
			continue
		}
		next := prev.withReaction(r, k.nonMusic)
		if s.views.CompareAndSwap(k, func(cur *view) bool { return cur == prev }, next) {
			swaps[k] = viewSwap{prev: prev, next: next}
		}
	}
	return swaps
}

type viewSwap struct {
	prev *view
	next *view
}

// rollback takes r back out of every view applyReaction touched. A view
// still holding the optimistic copy is restored to its predecessor; one that
// later votes derived from it is re-tallied without r.
func (s *CatalogService) rollback(r domain.ReactionRecord, swaps map[viewKey]viewSwap) int {
	restored := 0
	for k, sw := range swaps {
		if s.undoReaction(k, sw, r.ID) {
			restored++
		}
	}
	return restored
}

func (s *CatalogService) undoReaction(k viewKey, sw viewSwap, reactionID string) bool {
	for {
		cur, ok := s.views.Load(k)
		if !ok {
			return false
		}
		var next *view
		switch {
		case cur == sw.next:
			next = sw.prev
		case cur.hasReaction(reactionID):
			next = cur.withoutReaction(reactionID, k.nonMusic)
		default:
			// Rematerialized from the relay, which never stored r.
			return false
		}
		if s.views.CompareAndSwap(k, func(v *view) bool { return v == cur }, next) {
			return true
		}
	}
}

// cachedEntry returns the entry id as the viewer currently sees it, if cached.
func (s *CatalogService) cachedEntry(viewer, entryID string) (*domain.ScoredEntry, bool) {
	var found *domain.ScoredEntry
	s.views.Range(func(k viewKey, v *view) bool {
		if k.viewer != viewer || k.since != 0 {
			return true
		}
		for i := range v.catalog.Entries {
			if v.catalog.Entries[i].ID == entryID {
				e := v.catalog.Entries[i].Clone()
				found = &e
				return false
			}
		}
		return true
	})
	return found, found != nil
}
