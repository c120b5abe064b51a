package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/trustwaveapp/trustwave-server/internal/catalog"
	"github.com/trustwaveapp/trustwave-server/internal/classify"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/podcastindex"
	"github.com/trustwaveapp/trustwave-server/internal/reconcile"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
)

// SongImportJob names the background song importer in the run log.
const SongImportJob = "import-songs"

// SongImporter walks the musicians list and imports the music tracks of
// every artist feed onto the songs list. Progress is checkpointed per artist.
type SongImporter struct {
	relay     nostr.Store
	index     FeedIndex
	imports   *ImportService
	jobs      *sqlite.Store
	musicians string
	songs     string
	episodes  int
	logger    *slog.Logger
}

// NewSongImporter creates a new background song importer.
func NewSongImporter(relay nostr.Store, index FeedIndex, imports *ImportService, jobs *sqlite.Store, logger *slog.Logger) *SongImporter {
	return &SongImporter{
		relay:     relay,
		index:     index,
		imports:   imports,
		jobs:      jobs,
		musicians: imports.cfg.MusiciansListTag,
		songs:     imports.cfg.SongsListTag,
		episodes:  imports.episodes,
		logger:    logger,
	}
}

// SongImportOptions tunes one run.
type SongImportOptions struct {
	// Resume skips artists up to the saved checkpoint.
	Resume bool
	// Limit caps how many artists are processed; 0 means all.
	Limit  int
	DryRun bool
}

// SongImportReport summarizes a run.
type SongImportReport struct {
	RunID        string `json:"run_id"`
	Artists      int    `json:"artists"`
	Episodes     int    `json:"episodes"`
	NotMusic     int    `json:"not_music"`
	Added        int    `json:"added"`
	Already      int    `json:"already_added"`
	Failed       int    `json:"failed"`
	ResumedAfter string `json:"resumed_after,omitempty"`
}

// Run imports songs for every artist on the musicians list.
func (s *SongImporter) Run(ctx context.Context, opts SongImportOptions) (report *SongImportReport, err error) {
	if !opts.DryRun && s.imports.signer == nil {
		return nil, domainerrors.Validation("import secret key is required unless running dry")
	}

	run, err := s.jobs.StartRun(ctx, SongImportJob, opts.DryRun)
	if err != nil {
		return nil, err
	}
	report = &SongImportReport{RunID: run.ID}
	defer func() {
		stats := sqlite.RunStats{Scanned: report.Episodes, Flagged: report.NotMusic, Published: report.Added}
		if ferr := s.jobs.FinishRun(context.WithoutCancel(ctx), run.ID, stats, err); ferr != nil {
			s.logger.Error("failed to finish song import run", "run", run.ID, "error", ferr)
		}
	}()

	artists, err := s.artists(ctx)
	if err != nil {
		return report, err
	}

	if opts.Resume {
		cp, ok, err := s.jobs.GetCheckpoint(ctx, SongImportJob)
		if err != nil {
			return report, err
		}
		if ok {
			report.ResumedAfter = cp.Cursor
			artists = slices.DeleteFunc(artists, func(a domain.CatalogEntry) bool { return a.ID <= cp.Cursor })
		}
	}
	if opts.Limit > 0 && len(artists) > opts.Limit {
		artists = artists[:opts.Limit]
	}

	s.logger.Info("song import started",
		"run", run.ID,
		"artists", len(artists),
		"resumed_after", report.ResumedAfter,
		"dry_run", opts.DryRun)

	for _, artist := range artists {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.importArtist(ctx, artist, opts.DryRun, report); err != nil {
			return report, err
		}
		report.Artists++
		if !opts.DryRun {
			if err := s.jobs.SetCheckpoint(ctx, SongImportJob, artist.ID); err != nil {
				s.logger.Warn("failed to save import checkpoint", "artist", artist.ID, "error", err)
			}
		}
	}

	if !opts.DryRun && opts.Limit == 0 {
		if err := s.jobs.ClearCheckpoint(ctx, SongImportJob); err != nil {
			s.logger.Warn("failed to clear import checkpoint", "error", err)
		}
	}

	s.logger.Info("song import finished",
		"run", run.ID,
		"artists", report.Artists,
		"episodes", report.Episodes,
		"added", report.Added,
		"already_added", report.Already,
		"not_music", report.NotMusic,
		"failed", report.Failed)
	return report, nil
}

// artists returns the musicians-list entries that carry a feed id, in record
// id order so checkpoints are stable across runs.
func (s *SongImporter) artists(ctx context.Context) ([]domain.CatalogEntry, error) {
	pager := nostr.NewPager(s.relay, nostr.Filter{
		Kinds: nostr.ListItemKinds,
		Tags:  map[string][]string{"z": {s.musicians}},
	}, janitorPageSize, 0)

	var out []domain.CatalogEntry
	for !pager.Done() {
		events, err := pager.Next(ctx)
		entries, _ := catalog.ParseEntries(events)
		for _, e := range entries {
			if e.Artist != nil && e.Artist.FeedID != "" {
				out = append(out, e)
			}
		}
		if err != nil {
			if !domainerrors.Is(err, domainerrors.ErrPartialData) {
				return nil, err
			}
			s.logger.Warn("musicians scan ended early on partial data", "artists", len(out), "error", err)
		}
	}
	slices.SortFunc(out, func(a, b domain.CatalogEntry) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *SongImporter) importArtist(ctx context.Context, artist domain.CatalogEntry, dryRun bool, report *SongImportReport) error {
	a := artist.Artist
	episodes, err := s.index.Episodes(ctx, a.FeedID, s.episodes)
	if err != nil {
		if domainerrors.Is(err, podcastindex.ErrNotFound) {
			s.logger.Debug("artist feed has no episodes", "artist", a.Name, "feed", a.FeedID)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.Failed++
		s.logger.Warn("episode fetch failed", "artist", a.Name, "feed", a.FeedID, "error", err)
		return nil
	}

	for i := range episodes {
		ep := &episodes[i]
		if ep.GUID == "" || ep.EnclosureURL == "" {
			continue
		}
		report.Episodes++

		song := songFromArtist(a, ep)
		if !classify.IsMusic(&song) {
			report.NotMusic++
			continue
		}

		if s.jobs != nil {
			done, err := s.jobs.Imported(ctx, s.songs, song.GUID)
			if err == nil && done {
				report.Already++
				continue
			}
		}
		if dryRun {
			continue
		}

		res, err := s.imports.importSong(ctx, s.songs, song, "")
		switch {
		case err != nil:
			report.Failed++
			s.logger.Warn("song import failed", "artist", a.Name, "guid", song.GUID, "error", err)
		case res.Outcome == reconcile.Added:
			report.Added++
		default:
			report.Already++
		}
	}
	return nil
}

func songFromArtist(a *domain.Artist, e *podcastindex.Episode) domain.Song {
	artwork := e.ArtworkURL()
	if artwork == "" {
		artwork = a.Artwork
	}
	return domain.Song{
		GUID:            e.GUID,
		Title:           strings.TrimSpace(e.Title),
		Artist:          a.Name,
		MediaURL:        e.EnclosureURL,
		Artwork:         artwork,
		DurationSeconds: e.Duration,
		FeedID:          a.FeedID,
		FeedGUID:        cmp.Or(a.FeedGUID, a.GUID),
	}
}
