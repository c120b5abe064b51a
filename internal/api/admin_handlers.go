package api

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTrustSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/trust",
		Summary:     "Get trust summary",
		Description: "Resolves the viewer's rank provider and summarizes its trust map",
		Tags:        []string{"Trust"},
	}, s.handleGetTrustSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshTrust",
		Method:      http.MethodPost,
		Path:        "/api/v1/trust/refresh",
		Summary:     "Refresh trust map",
		Description: "Drops the cached trust map of the viewer's provider and rebuilds it",
		Tags:        []string{"Trust"},
	}, s.handleRefreshTrust)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTrustRanks",
		Method:      http.MethodGet,
		Path:        "/api/v1/trust/ranks",
		Summary:     "Get trust ranks",
		Description: "Returns the ranks the viewer's provider assigns to the given pubkeys, such as the voters behind a tally",
		Tags:        []string{"Trust"},
	}, s.handleGetTrustRanks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTrustMaps",
		Method:      http.MethodGet,
		Path:        "/api/v1/trust/maps",
		Summary:     "List cached trust maps",
		Description: "Summarizes every trust map held in the session cache",
		Tags:        []string{"Trust"},
	}, s.handleListTrustMaps)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLatestJanitorRun",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/janitor/runs/latest",
		Summary:     "Get latest janitor run",
		Description: "Returns the counters of the most recent janitor run",
		Tags:        []string{"Admin"},
	}, s.handleGetLatestJanitorRun)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildSearchIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/search/rebuild",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the catalog search index from the current lists",
		Tags:        []string{"Admin"},
	}, s.handleRebuildSearchIndex)
}

// === DTOs ===

// TrustSummaryResponse summarizes one provider's trust map.
type TrustSummaryResponse struct {
	Provider domain.TrustProvider `json:"provider" doc:"Resolved rank provider"`
	Records  int                  `json:"records" doc:"Assertion records read"`
	Subjects int                  `json:"subjects" doc:"Pubkeys with a rank, including system curators"`
	BuiltAt  time.Time            `json:"built_at" doc:"When the map was built"`
	Partial  bool                 `json:"partial" doc:"True when the map was built from a reduced result set"`
}

// TrustSummaryOutput wraps the trust summary for Huma.
type TrustSummaryOutput struct {
	Warning string `header:"Warning"`
	Body    TrustSummaryResponse
}

// TrustRanksInput contains parameters for a rank lookup.
type TrustRanksInput struct {
	Viewer   string   `query:"viewer" pattern:"^[0-9a-f]{64}$" doc:"Viewer pubkey; omitted means the default provider"`
	Subjects []string `query:"subject" required:"true" minItems:"1" maxItems:"200" doc:"Pubkeys to rank"`
}

// TrustRanksResponse maps the requested pubkeys to their ranks.
type TrustRanksResponse struct {
	Provider domain.TrustProvider `json:"provider" doc:"Resolved rank provider"`
	Ranks    domain.TrustMap      `json:"ranks" doc:"Rank per pubkey; unranked pubkeys are omitted"`
	Partial  bool                 `json:"partial" doc:"True when the lookup returned a reduced result set"`
}

// TrustRanksOutput wraps the rank lookup for Huma.
type TrustRanksOutput struct {
	Warning string `header:"Warning"`
	Body    TrustRanksResponse
}

// TrustMapsResponse lists cached trust maps.
type TrustMapsResponse struct {
	Maps []TrustSummaryResponse `json:"maps" doc:"Cached maps ordered by provider pubkey"`
}

// TrustMapsOutput wraps the cached map list for Huma.
type TrustMapsOutput struct {
	Body TrustMapsResponse
}

// JanitorRunResponse describes one janitor run.
type JanitorRunResponse struct {
	ID         string                   `json:"id" doc:"Run ID"`
	DryRun     bool                     `json:"dry_run" doc:"True when nothing was published"`
	Status     string                   `json:"status" doc:"running, completed or failed"`
	StartedAt  time.Time                `json:"started_at" doc:"Start time"`
	FinishedAt *time.Time               `json:"finished_at,omitempty" doc:"Finish time"`
	Scanned    int                      `json:"scanned" doc:"Songs scanned"`
	Flagged    int                      `json:"flagged" doc:"Songs that failed the music checks"`
	Published  int                      `json:"published" doc:"Downvotes published"`
	Error      string                   `json:"error,omitempty" doc:"Failure message"`
	Verdicts   []JanitorVerdictResponse `json:"verdicts" doc:"Songs the run acted on, in record id order"`
}

// JanitorVerdictResponse describes what a run did with one song.
type JanitorVerdictResponse struct {
	RecordID string   `json:"record_id" doc:"Song record id"`
	Title    string   `json:"title" doc:"Song title"`
	Reasons  []string `json:"reasons" doc:"Checks the song failed"`
	Action   string   `json:"action" doc:"downvoted, dry_run, skipped or failed"`
}

// JanitorRunOutput wraps the janitor run for Huma.
type JanitorRunOutput struct {
	Body JanitorRunResponse
}

// RebuildIndexResponse reports the rebuilt index size.
type RebuildIndexResponse struct {
	Documents int `json:"documents" doc:"Documents indexed"`
}

// RebuildIndexOutput wraps the rebuild response for Huma.
type RebuildIndexOutput struct {
	Body RebuildIndexResponse
}

// === Handlers ===

func (s *Server) handleGetTrustSummary(ctx context.Context, input *ViewerInput) (*TrustSummaryOutput, error) {
	if s.services.Trust == nil || s.services.Resolver == nil {
		return nil, unavailable("trust cache")
	}
	snap, err := s.services.Trust.Get(ctx, s.services.Resolver.Resolve(ctx, input.Viewer))
	if err != nil {
		return nil, err
	}
	return trustSummary(snap), nil
}

func (s *Server) handleRefreshTrust(ctx context.Context, input *ViewerInput) (*TrustSummaryOutput, error) {
	if s.services.Trust == nil || s.services.Resolver == nil {
		return nil, unavailable("trust cache")
	}
	provider := s.services.Resolver.Resolve(ctx, input.Viewer)
	s.services.Trust.Invalidate(provider)
	snap, err := s.services.Trust.Get(ctx, provider)
	if err != nil {
		return nil, err
	}
	s.services.Catalog.Invalidate()
	s.logger.Info("trust map refreshed", "provider", provider.PubKey, "subjects", snap.Subjects)
	return trustSummary(snap), nil
}

func (s *Server) handleGetTrustRanks(ctx context.Context, input *TrustRanksInput) (*TrustRanksOutput, error) {
	if s.services.Trust == nil || s.services.Resolver == nil {
		return nil, unavailable("trust cache")
	}
	provider := s.services.Resolver.Resolve(ctx, input.Viewer)
	ranks, err := s.services.Trust.Ranks(ctx, provider, input.Subjects)
	partial := domainerrors.Is(err, domainerrors.ErrPartialData)
	if err != nil && !partial {
		return nil, err
	}
	return &TrustRanksOutput{
		Warning: warning(partial),
		Body:    TrustRanksResponse{Provider: provider, Ranks: ranks, Partial: partial},
	}, nil
}

func (s *Server) handleListTrustMaps(_ context.Context, _ *struct{}) (*TrustMapsOutput, error) {
	if s.services.Trust == nil {
		return nil, unavailable("trust cache")
	}
	snaps := s.services.Trust.Snapshots()
	slices.SortFunc(snaps, func(a, b *trust.Snapshot) int {
		return cmp.Compare(a.Provider.PubKey, b.Provider.PubKey)
	})
	maps := make([]TrustSummaryResponse, len(snaps))
	for i, snap := range snaps {
		maps[i] = trustSummary(snap).Body
	}
	return &TrustMapsOutput{Body: TrustMapsResponse{Maps: maps}}, nil
}

func trustSummary(snap *trust.Snapshot) *TrustSummaryOutput {
	return &TrustSummaryOutput{
		Warning: warning(snap.Partial),
		Body: TrustSummaryResponse{
			Provider: snap.Provider,
			Records:  snap.Records,
			Subjects: snap.Subjects,
			BuiltAt:  snap.BuiltAt,
			Partial:  snap.Partial,
		},
	}
}

func (s *Server) handleGetLatestJanitorRun(ctx context.Context, _ *struct{}) (*JanitorRunOutput, error) {
	if s.services.Janitor == nil {
		return nil, unavailable("janitor")
	}
	run, err := s.services.Janitor.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	verdicts, err := s.services.Janitor.RunVerdicts(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	out := make([]JanitorVerdictResponse, len(verdicts))
	for i, v := range verdicts {
		out[i] = JanitorVerdictResponse{RecordID: v.RecordID, Title: v.Title, Reasons: v.Reasons, Action: v.Action}
	}
	return &JanitorRunOutput{Body: JanitorRunResponse{
		ID:         run.ID,
		DryRun:     run.DryRun,
		Status:     run.Status,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Scanned:    run.Scanned,
		Flagged:    run.Flagged,
		Published:  run.Published,
		Error:      run.Error,
		Verdicts:   out,
	}}, nil
}

func (s *Server) handleRebuildSearchIndex(ctx context.Context, _ *struct{}) (*RebuildIndexOutput, error) {
	n, err := s.services.Catalog.RebuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	return &RebuildIndexOutput{Body: RebuildIndexResponse{Documents: n}}, nil
}
