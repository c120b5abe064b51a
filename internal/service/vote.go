package service

import (
	"context"
	"log/slog"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
)

// VoteService publishes client-signed reactions and keeps cached catalog
// views in step with them.
type VoteService struct {
	store   nostr.Store
	catalog *CatalogService
	logger  *slog.Logger
}

// NewVoteService creates a new vote service.
func NewVoteService(store nostr.Store, catalog *CatalogService, logger *slog.Logger) *VoteService {
	return &VoteService{store: store, catalog: catalog, logger: logger}
}

// VoteResult reports a published reaction.
type VoteResult struct {
	Reaction domain.ReactionRecord `json:"reaction"`
	// Entry is the target as the voter now sees it, when the voter has a cached view.
	Entry *domain.ScoredEntry `json:"entry,omitempty"`
	// Views counts the cached views updated ahead of the relay acknowledgment.
	Views int `json:"views"`
}

// Cast validates ev, applies it to every cached view holding its target, and
// publishes it. A failed publish rolls the views back and returns the
// relay's error unchanged.
func (s *VoteService) Cast(ctx context.Context, ev *nostr.Event) (*VoteResult, error) {
	rec, err := reaction.Validate(ev)
	if err != nil {
		return nil, err
	}

	swaps := s.catalog.applyReaction(rec)

	if err := s.store.Publish(ctx, ev); err != nil {
		restored := s.catalog.rollback(rec, swaps)
		s.logger.Warn("reaction publish failed, optimistic update rolled back",
			"reaction", rec.ID,
			"target", rec.TargetID,
			"views", len(swaps),
			"restored", restored,
			"error", err)
		return nil, err
	}

	s.logger.Info("reaction published",
		"reaction", rec.ID,
		"target", rec.TargetID,
		"vote", rec.Vote(),
		"views", len(swaps))

	res := &VoteResult{Reaction: rec, Views: len(swaps)}
	if e, ok := s.catalog.cachedEntry(rec.AuthorKey, rec.TargetID); ok {
		res.Entry = e
	}
	return res, nil
}
