package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/store"
	"github.com/trustwaveapp/trustwave-server/internal/validation"
)

const defaultDeletionReason = "Deleting outdated entry"

// CurationService removes catalog entries and manages the local hidden set.
type CurationService struct {
	relay     nostr.Store
	store     *store.Store
	catalog   *CatalogService
	signer    nostr.Signer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCurationService creates a new curation service. signer may be nil, in
// which case removals must carry a client-signed deletion.
func NewCurationService(relay nostr.Store, store *store.Store, catalog *CatalogService, signer nostr.Signer, logger *slog.Logger) *CurationService {
	return &CurationService{
		relay:     relay,
		store:     store,
		catalog:   catalog,
		signer:    signer,
		validator: validation.New(),
		logger:    logger,
	}
}

// RemoveRequest contains fields for removing an entry. Event, when set, is a
// deletion the client already signed.
type RemoveRequest struct {
	ID      string       `json:"id" validate:"required,hexkey"`
	ListTag string       `json:"list_tag" validate:"omitempty,atag"`
	Reason  string       `json:"reason" validate:"max=500"`
	Event   *nostr.Event `json:"event,omitempty"`
}

// RemoveResult tells the caller how the removal took effect.
type RemoveResult struct {
	ID      string                `json:"id"`
	Outcome domain.RemovalOutcome `json:"outcome"`
	// Reason carries the relay's rejection when the entry was hidden locally.
	Reason string `json:"reason,omitempty"`
}

// Remove publishes a deletion for the entry. When the relay refuses it the
// entry is hidden locally instead; transport failures are returned as is.
func (s *CurationService) Remove(ctx context.Context, req RemoveRequest) (*RemoveResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ev, err := s.deletionEvent(req)
	if err != nil {
		return nil, err
	}

	err = s.relay.Publish(ctx, ev)
	switch {
	case err == nil:
		s.catalog.Invalidate()
		s.logger.Info("entry removed from network", "id", req.ID, "deletion", ev.ID)
		return &RemoveResult{ID: req.ID, Outcome: domain.RemovedFromNetwork}, nil

	case domainerrors.Is(err, domainerrors.ErrAuthorization):
		var rejected *domainerrors.Error
		reason := err.Error()
		if domainerrors.As(err, &rejected) {
			reason = rejected.Message
		}
		if err := s.hide(ctx, domain.HiddenItem{
			ID:       req.ID,
			ListTag:  req.ListTag,
			Reason:   reason,
			HiddenBy: ev.PubKey,
		}); err != nil {
			return nil, err
		}
		s.logger.Warn("deletion rejected by relay, entry hidden locally", "id", req.ID, "reason", reason)
		return &RemoveResult{ID: req.ID, Outcome: domain.HiddenLocally, Reason: reason}, nil

	default:
		return nil, err
	}
}

func (s *CurationService) deletionEvent(req RemoveRequest) (*nostr.Event, error) {
	if req.Event != nil {
		ev := req.Event
		if ev.Kind != nostr.KindDeletion {
			return nil, domainerrors.Validationf("deletion must be kind %d, got %d", nostr.KindDeletion, ev.Kind)
		}
		if !slices.Contains(ev.Tags.Values("e"), req.ID) {
			return nil, domainerrors.Validation("deletion does not reference the entry")
		}
		if err := nostr.Verify(ev); err != nil {
			return nil, domainerrors.Validation("deletion signature invalid").WithCause(err)
		}
		return ev, nil
	}

	if s.signer == nil {
		return nil, domainerrors.Validation("a signed deletion is required")
	}
	reason := req.Reason
	if reason == "" {
		reason = defaultDeletionReason
	}
	ev := &nostr.Event{
		Kind:    nostr.KindDeletion,
		Content: reason,
		Tags:    nostr.Tags{{"e", req.ID}},
	}
	if err := s.signer.Sign(ev); err != nil {
		return nil, domainerrors.Internal("sign deletion").WithCause(err)
	}
	return ev, nil
}

// HideRequest contains fields for hiding an entry.
type HideRequest struct {
	ID      string `json:"id" validate:"required,hexkey"`
	ListTag string `json:"list_tag" validate:"omitempty,atag"`
	Reason  string `json:"reason" validate:"max=500"`
}

// Hide adds an entry to the local hidden set.
func (s *CurationService) Hide(ctx context.Context, req HideRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	return s.hide(ctx, domain.HiddenItem{ID: req.ID, ListTag: req.ListTag, Reason: req.Reason})
}

func (s *CurationService) hide(ctx context.Context, item domain.HiddenItem) error {
	if err := s.store.Hide(ctx, item); err != nil {
		return err
	}
	s.catalog.Invalidate()
	return nil
}

// Unhide removes an entry from the local hidden set.
func (s *CurationService) Unhide(ctx context.Context, id string) error {
	if err := s.store.Unhide(ctx, id); err != nil {
		return err
	}
	s.catalog.Invalidate()
	return nil
}

// IsHidden reports whether an entry is hidden locally.
func (s *CurationService) IsHidden(id string) bool {
	return s.store.IsHidden(id)
}

// ListHidden returns one page of hidden entries.
func (s *CurationService) ListHidden(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[domain.HiddenItem], error) {
	return s.store.ListHidden(ctx, params)
}

// ClearHidden empties the hidden set and returns how many entries it held.
func (s *CurationService) ClearHidden(ctx context.Context) (int, error) {
	n, err := s.store.ClearHidden(ctx)
	if err != nil {
		return 0, err
	}
	s.catalog.Invalidate()
	s.logger.Info("hidden set cleared", "count", n)
	return n, nil
}
