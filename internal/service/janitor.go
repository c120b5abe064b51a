package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/trustwaveapp/trustwave-server/internal/catalog"
	"github.com/trustwaveapp/trustwave-server/internal/classify"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
)

// JanitorJob names the janitor in the run log.
const JanitorJob = "janitor"

const janitorPageSize = 500

// JanitorService down-votes songs-list entries that fail the music checks,
// using a trusted identity so the downvotes count in every tally.
type JanitorService struct {
	relay     nostr.Store
	reactions *reaction.Aggregator
	jobs      *sqlite.Store
	signer    nostr.Signer
	listTag   string
	cfg       config.JanitorConfig
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewJanitorService creates a new janitor. signer may be nil for dry runs.
func NewJanitorService(
	relay nostr.Store,
	reactions *reaction.Aggregator,
	jobs *sqlite.Store,
	signer nostr.Signer,
	songsListTag string,
	cfg config.JanitorConfig,
	logger *slog.Logger,
) *JanitorService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &JanitorService{
		relay:     relay,
		reactions: reactions,
		jobs:      jobs,
		signer:    signer,
		listTag:   songsListTag,
		cfg:       cfg,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// JanitorOptions tunes one run.
type JanitorOptions struct {
	DryRun bool
	// Limit caps how many songs are scanned; 0 scans the whole list.
	Limit int
}

// JanitorReport summarizes a run.
type JanitorReport struct {
	RunID     string           `json:"run_id"`
	DryRun    bool             `json:"dry_run"`
	Scanned   int              `json:"scanned"`
	Flagged   int              `json:"flagged"`
	Skipped   int              `json:"skipped"`
	Published int              `json:"published"`
	Failed    int              `json:"failed"`
	Verdicts  []sqlite.Verdict `json:"verdicts"`
}

type flaggedSong struct {
	entry   domain.CatalogEntry
	reasons []string
}

// Run scans the songs list and down-votes every song that fails the checks
// and that the janitor has not already down-voted.
func (s *JanitorService) Run(ctx context.Context, opts JanitorOptions) (report *JanitorReport, err error) {
	dryRun := opts.DryRun || s.cfg.DryRun
	if !dryRun && s.signer == nil {
		return nil, domainerrors.Validation("janitor secret key is required unless running dry")
	}

	run, err := s.jobs.StartRun(ctx, JanitorJob, dryRun)
	if err != nil {
		return nil, err
	}
	report = &JanitorReport{RunID: run.ID, DryRun: dryRun}
	defer func() {
		stats := sqlite.RunStats{Scanned: report.Scanned, Flagged: report.Flagged, Published: report.Published}
		if ferr := s.jobs.FinishRun(context.WithoutCancel(ctx), run.ID, stats, err); ferr != nil {
			s.logger.Error("failed to finish janitor run", "run", run.ID, "error", ferr)
		}
	}()

	s.logger.Info("janitor run started", "run", run.ID, "dry_run", dryRun, "list", s.listTag)

	flagged, err := s.scan(ctx, opts.Limit, report)
	if err != nil {
		return report, err
	}
	report.Flagged = len(flagged)

	pending, err := s.withoutDownvoted(ctx, flagged, report)
	if err != nil {
		return report, err
	}

	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		if start > 0 && !dryRun {
			if err := s.sleep(ctx, s.cfg.BatchDelay); err != nil {
				return report, err
			}
		}
		end := min(start+s.cfg.BatchSize, len(pending))
		verdicts := s.process(ctx, pending[start:end], dryRun, report)
		if err := s.jobs.RecordVerdicts(ctx, run.ID, verdicts); err != nil {
			return report, err
		}
		report.Verdicts = append(report.Verdicts, verdicts...)
		if !dryRun {
			if err := s.jobs.SetCheckpoint(ctx, JanitorJob, pending[end-1].entry.ID); err != nil {
				s.logger.Warn("failed to save janitor checkpoint", "error", err)
			}
		}
		s.logger.Info("janitor batch done",
			"run", run.ID,
			"batch", start/s.cfg.BatchSize+1,
			"songs", len(verdicts),
			"published", report.Published,
			"failed", report.Failed)
	}

	s.logger.Info("janitor run finished",
		"run", run.ID,
		"scanned", report.Scanned,
		"flagged", report.Flagged,
		"skipped", report.Skipped,
		"published", report.Published,
		"failed", report.Failed)
	return report, nil
}

// scan pages through the songs list and collects the songs that fail.
func (s *JanitorService) scan(ctx context.Context, limit int, report *JanitorReport) ([]flaggedSong, error) {
	pager := nostr.NewPager(s.relay, nostr.Filter{
		Kinds: nostr.ListItemKinds,
		Tags:  map[string][]string{"z": {s.listTag}},
	}, janitorPageSize, limit)

	var flagged []flaggedSong
	for !pager.Done() {
		events, err := pager.Next(ctx)
		entries, _ := catalog.ParseEntries(events)
		for _, e := range entries {
			if e.Song == nil {
				continue
			}
			report.Scanned++
			if v := classify.Check(&e); !v.Music {
				flagged = append(flagged, flaggedSong{entry: e, reasons: v.Reasons})
				s.logger.Debug("song fails music checks", "id", e.ID, "title", e.Song.Title, "reasons", v.Reasons)
			}
		}
		if err != nil {
			if !domainerrors.Is(err, domainerrors.ErrPartialData) {
				return nil, err
			}
			s.logger.Warn("songs scan ended early on partial data", "scanned", report.Scanned, "error", err)
		}
	}
	return flagged, nil
}

// withoutDownvoted drops songs the janitor identity already down-voted, per
// the local run log and per the relay.
func (s *JanitorService) withoutDownvoted(ctx context.Context, flagged []flaggedSong, report *JanitorReport) ([]flaggedSong, error) {
	done, err := s.jobs.Downvoted(ctx)
	if err != nil {
		return nil, err
	}

	if s.signer != nil && len(flagged) > 0 {
		ids := make([]string, len(flagged))
		for i, f := range flagged {
			ids[i] = f.entry.ID
		}
		prior, err := s.reactions.ByAuthor(ctx, s.signer.PublicKey(), ids)
		if err != nil {
			s.logger.Warn("could not read prior janitor reactions", "error", err)
		}
		for id, r := range prior {
			if r.Vote() == domain.VoteDown {
				done[id] = struct{}{}
			}
		}
	}

	pending := flagged[:0:0]
	for _, f := range flagged {
		if _, ok := done[f.entry.ID]; ok {
			report.Skipped++
			continue
		}
		pending = append(pending, f)
	}
	return pending, nil
}

func (s *JanitorService) process(ctx context.Context, batch []flaggedSong, dryRun bool, report *JanitorReport) []sqlite.Verdict {
	verdicts := make([]sqlite.Verdict, 0, len(batch))
	for _, f := range batch {
		v := sqlite.Verdict{RecordID: f.entry.ID, Title: f.entry.Song.Title, Reasons: f.reasons}
		if dryRun {
			v.Action = sqlite.ActionDryRun
			verdicts = append(verdicts, v)
			continue
		}

		ev := reaction.NewEvent(reaction.TargetOf(&f.entry), domain.VoteDown, "")
		err := s.signer.Sign(ev)
		if err == nil {
			err = s.relay.Publish(ctx, ev)
		}
		if err != nil {
			v.Action = sqlite.ActionFailed
			report.Failed++
			s.logger.Warn("janitor downvote failed", "id", f.entry.ID, "title", f.entry.Song.Title, "error", err)
		} else {
			v.Action = sqlite.ActionDownvoted
			report.Published++
			s.logger.Info("janitor downvoted song",
				"id", f.entry.ID,
				"title", f.entry.Song.Title,
				"reasons", f.reasons)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// LastRun returns the most recent janitor run.
func (s *JanitorService) LastRun(ctx context.Context) (*sqlite.Run, error) {
	return s.jobs.LastRun(ctx, JanitorJob)
}

// RunVerdicts returns the verdicts recorded by one run.
func (s *JanitorService) RunVerdicts(ctx context.Context, runID string) ([]sqlite.Verdict, error) {
	return s.jobs.RunVerdicts(ctx, runID)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
