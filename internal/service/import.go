package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/trustwaveapp/trustwave-server/internal/catalog"
	"github.com/trustwaveapp/trustwave-server/internal/classify"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/podcastindex"
	"github.com/trustwaveapp/trustwave-server/internal/reconcile"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
	"github.com/trustwaveapp/trustwave-server/internal/validation"
)

const discoverLimit = 20

// FeedIndex is the external catalog index used for discovery and import.
type FeedIndex interface {
	Search(ctx context.Context, q string, limit int) ([]podcastindex.Feed, error)
	Feed(ctx context.Context, feedID string) (*podcastindex.Feed, error)
	FeedByGUID(ctx context.Context, guid string) (*podcastindex.Feed, error)
	Episodes(ctx context.Context, feedID string, limit int) ([]podcastindex.Episode, error)
}

// BlurHasher computes artwork placeholders. An empty result means none.
type BlurHasher interface {
	TryBlurHash(ctx context.Context, imageURL string) string
}

// ImportService discovers external feeds and imports them onto the lists
// without creating duplicates.
type ImportService struct {
	relay     nostr.Store
	index     FeedIndex
	guard     *reconcile.Guard
	jobs      *sqlite.Store
	hasher    BlurHasher
	hidden    HiddenSet
	catalog   *CatalogService
	signer    nostr.Signer
	cfg       config.CatalogConfig
	episodes  int
	validator *validation.Validator
	logger    *slog.Logger
}

// ImportServiceOptions holds the optional collaborators of ImportService.
type ImportServiceOptions struct {
	// Jobs records every guarded add. Nil disables the import log.
	Jobs *sqlite.Store
	// Hasher adds blurhash placeholders to server-built records. Nil disables them.
	Hasher BlurHasher
	// Signer signs server-built records. Nil means only client-signed records are accepted.
	Signer          nostr.Signer
	EpisodesPerFeed int
}

// NewImportService creates a new import service.
func NewImportService(
	relay nostr.Store,
	index FeedIndex,
	guard *reconcile.Guard,
	hidden HiddenSet,
	catalog *CatalogService,
	cfg config.CatalogConfig,
	opts ImportServiceOptions,
	logger *slog.Logger,
) *ImportService {
	episodes := opts.EpisodesPerFeed
	if episodes <= 0 {
		episodes = 100
	}
	return &ImportService{
		relay:     relay,
		index:     index,
		guard:     guard,
		jobs:      opts.Jobs,
		hasher:    opts.Hasher,
		hidden:    hidden,
		catalog:   catalog,
		signer:    opts.Signer,
		cfg:       cfg,
		episodes:  episodes,
		validator: validation.New(),
		logger:    logger,
	}
}

// DiscoverResult splits external search hits by whether the musicians list
// already has them.
type DiscoverResult struct {
	Query        string                               `json:"query"`
	Present      []reconcile.Match[podcastindex.Feed] `json:"present"`
	Importable   []podcastindex.Feed                  `json:"importable"`
	Unidentified int                                  `json:"unidentified"`
}

// feedStableID is the cross-source id of a feed: its podcast GUID.
func feedStableID(f podcastindex.Feed) string {
	return f.PodcastGUID
}

// Discover searches the external index for q and reconciles the hits with
// the musicians list by feed GUID.
func (s *ImportService) Discover(ctx context.Context, q string) (*DiscoverResult, error) {
	q = strings.TrimSpace(q)
	res := &DiscoverResult{Query: q}
	if q == "" {
		return res, nil
	}

	feeds, err := s.index.Search(ctx, q, discoverLimit)
	if err != nil {
		return nil, indexError(err)
	}
	if len(feeds) == 0 {
		return res, nil
	}

	var guids []string
	for _, f := range feeds {
		if id := feedStableID(f); id != "" {
			guids = append(guids, id)
		}
	}

	var local map[string]domain.CatalogEntry
	if len(guids) > 0 {
		events, err := s.relay.Query(ctx, nostr.Filter{
			Kinds: nostr.ListItemKinds,
			Tags:  map[string][]string{"z": {s.cfg.MusiciansListTag}, "t": guids},
		})
		if err != nil {
			if !domainerrors.Is(err, domainerrors.ErrPartialData) {
				return nil, err
			}
			s.logger.Warn("musician lookup returned partial data", "query", q, "received", len(events))
		}
		entries, _ := catalog.ParseEntries(events)
		visible := entries[:0]
		for _, e := range entries {
			if !s.hidden.IsHidden(e.ID) {
				visible = append(visible, e)
			}
		}
		local = reconcile.Index(visible)
	}

	r := reconcile.Reconcile(feeds, feedStableID, local)
	res.Present = r.Present
	res.Importable = r.Importable
	res.Unidentified = r.Unidentified

	s.logger.Debug("hybrid search",
		"query", q,
		"hits", len(feeds),
		"present", len(r.Present),
		"importable", len(r.Importable))
	return res, nil
}

// ImportResult reports what a guarded import did.
type ImportResult struct {
	Outcome reconcile.Outcome   `json:"outcome"`
	Entry   domain.CatalogEntry `json:"entry"`
}

// ImportArtistRequest contains fields for importing a musician by feed id or
// feed GUID. Event, when set, is a list item the client already signed.
type ImportArtistRequest struct {
	FeedID      string       `json:"feed_id" validate:"required_without_all=Event FeedGUID,omitempty,numeric"`
	FeedGUID    string       `json:"feed_guid" validate:"omitempty,max=500"`
	Description string       `json:"description" validate:"max=2000"`
	Event       *nostr.Event `json:"event,omitempty"`
}

// ImportArtist adds a musician to the musicians list unless it is already there.
func (s *ImportService) ImportArtist(ctx context.Context, req ImportArtistRequest) (*ImportResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Event != nil {
		return s.addSigned(ctx, req.Event, s.cfg.MusiciansListTag, domain.EntryKindArtist)
	}

	var (
		feed *podcastindex.Feed
		err  error
	)
	if req.FeedID != "" {
		feed, err = s.index.Feed(ctx, req.FeedID)
	} else {
		feed, err = s.index.FeedByGUID(ctx, req.FeedGUID)
	}
	if err != nil {
		return nil, indexError(err)
	}
	if feedStableID(*feed) == "" {
		return nil, domainerrors.Validationf("feed %d has no podcast guid", feed.ID)
	}

	artist := artistFromFeed(feed)
	if s.hasher != nil {
		artist.ArtworkBlurHash = s.hasher.TryBlurHash(ctx, artist.Artwork)
	}
	description := req.Description
	if description == "" {
		description = podcastindex.Markdown(feed.Description)
	}
	return s.addBuilt(ctx, catalog.NewArtistEvent(s.cfg.MusiciansListTag, artist, description), artist.GUID, artist.FeedID)
}

// ImportSongRequest contains fields for importing a song. Event, when set,
// is a list item the client already signed.
type ImportSongRequest struct {
	FeedID      string       `json:"feed_id" validate:"required_without=Event,omitempty,numeric"`
	EpisodeGUID string       `json:"episode_guid" validate:"required_without=Event"`
	ListTag     string       `json:"list_tag" validate:"omitempty,atag"`
	Description string       `json:"description" validate:"max=2000"`
	Event       *nostr.Event `json:"event,omitempty"`
}

// ImportSong adds a song to the songs list (or a genre sub-list) unless it is
// already there. Server-built songs must pass the music classifier.
func (s *ImportService) ImportSong(ctx context.Context, req ImportSongRequest) (*ImportResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	listTag := req.ListTag
	if listTag == "" {
		listTag = s.cfg.SongsListTag
	}
	if req.Event != nil {
		return s.addSigned(ctx, req.Event, listTag, domain.EntryKindSong)
	}

	feed, err := s.index.Feed(ctx, req.FeedID)
	if err != nil {
		return nil, indexError(err)
	}
	episodes, err := s.index.Episodes(ctx, req.FeedID, s.episodes)
	if err != nil {
		return nil, indexError(err)
	}
	var episode *podcastindex.Episode
	for i := range episodes {
		if episodes[i].GUID == req.EpisodeGUID {
			episode = &episodes[i]
			break
		}
	}
	if episode == nil {
		return nil, domainerrors.NotFoundf("episode %q not found in feed %s", req.EpisodeGUID, req.FeedID)
	}

	song := songFromEpisode(feed, episode)
	if verdict := classify.Check(&domain.CatalogEntry{Kind: domain.EntryKindSong, Medium: "music", Song: &song}); !verdict.Music {
		return nil, domainerrors.Validation("episode does not look like music").WithDetails(map[string]any{"reasons": verdict.Reasons})
	}
	return s.importSong(ctx, listTag, song, req.Description)
}

func (s *ImportService) importSong(ctx context.Context, listTag string, song domain.Song, description string) (*ImportResult, error) {
	if s.hasher != nil {
		song.ArtworkBlurHash = s.hasher.TryBlurHash(ctx, song.Artwork)
	}
	return s.addBuilt(ctx, catalog.NewSongEvent(listTag, song, description), song.GUID, song.FeedID)
}

// addBuilt signs a server-built record and adds it through the guard.
func (s *ImportService) addBuilt(ctx context.Context, ev *nostr.Event, stableID, feedID string) (*ImportResult, error) {
	if s.signer == nil {
		return nil, domainerrors.Validation("a signed list item is required")
	}
	if err := s.signer.Sign(ev); err != nil {
		return nil, domainerrors.Internal("sign list item").WithCause(err)
	}
	return s.add(ctx, ev, ev.Tags.Value("z"), stableID, feedID)
}

// addSigned checks a client-signed record and adds it through the guard.
func (s *ImportService) addSigned(ctx context.Context, ev *nostr.Event, listTag string, kind domain.EntryKind) (*ImportResult, error) {
	entry, err := catalog.ParseEntry(ev)
	if err != nil {
		return nil, domainerrors.Validation("list item is not a song or artist").WithCause(err)
	}
	if entry.Kind != kind {
		return nil, domainerrors.Validationf("list item is a %s, expected a %s", entry.Kind, kind)
	}
	if entry.ListTag != listTag {
		return nil, domainerrors.Validationf("list item targets %q, expected %q", entry.ListTag, listTag)
	}
	if err := nostr.Verify(ev); err != nil {
		return nil, domainerrors.Validation("list item signature invalid").WithCause(err)
	}
	return s.add(ctx, ev, listTag, entry.StableID(), entry.FeedID())
}

func (s *ImportService) add(ctx context.Context, ev *nostr.Event, listTag, stableID, feedID string) (*ImportResult, error) {
	res, err := s.guard.AddOnce(ctx, listTag, ev)
	if err != nil {
		return nil, err
	}
	if res.Outcome == reconcile.Added {
		s.catalog.Invalidate()
	}

	if s.jobs != nil {
		if err := s.jobs.RecordImport(ctx, sqlite.ImportRecord{
			ListTag:  listTag,
			StableID: stableID,
			RecordID: res.Entry.ID,
			Kind:     string(res.Entry.Kind),
			FeedID:   feedID,
			Outcome:  string(res.Outcome),
		}); err != nil {
			s.logger.Warn("failed to record import", "stable_id", stableID, "error", err)
		}
	}

	return &ImportResult{Outcome: res.Outcome, Entry: res.Entry}, nil
}

func artistFromFeed(f *podcastindex.Feed) domain.Artist {
	return domain.Artist{
		GUID:     f.PodcastGUID,
		Name:     feedArtist(f),
		FeedURL:  f.URL,
		FeedID:   strconv.FormatInt(f.ID, 10),
		FeedGUID: f.PodcastGUID,
		Artwork:  f.ArtworkURL(),
	}
}

func songFromEpisode(f *podcastindex.Feed, e *podcastindex.Episode) domain.Song {
	artwork := e.Image
	if artwork == "" {
		artwork = f.ArtworkURL()
	}
	return domain.Song{
		GUID:            e.GUID,
		Title:           strings.TrimSpace(e.Title),
		Artist:          feedArtist(f),
		MediaURL:        e.EnclosureURL,
		Artwork:         artwork,
		DurationSeconds: e.Duration,
		FeedID:          strconv.FormatInt(f.ID, 10),
		FeedGUID:        f.PodcastGUID,
	}
}

func feedArtist(f *podcastindex.Feed) string {
	if a := strings.TrimSpace(f.Author); a != "" {
		return a
	}
	return strings.TrimSpace(f.Title)
}

// indexError maps external index failures onto domain errors.
func indexError(err error) error {
	switch {
	case domainerrors.As(err, new(*domainerrors.Error)):
		return err
	case domainerrors.Is(err, podcastindex.ErrNotFound):
		return domainerrors.NotFound("feed not found").WithCause(err)
	case domainerrors.Is(err, podcastindex.ErrBadRequest):
		return domainerrors.Validation("external index rejected the request").WithCause(err)
	default:
		return domainerrors.Transport("external index unavailable", err)
	}
}
