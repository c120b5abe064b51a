package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/service"
	"github.com/trustwaveapp/trustwave-server/internal/store"
)

func (s *Server) registerCurationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "removeEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/entries/{id}",
		Summary:     "Remove entry",
		Description: "Publishes a deletion for the entry. When the relay refuses it the entry is hidden on this server instead.",
		Tags:        []string{"Curation"},
	}, s.handleRemoveEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "listHidden",
		Method:      http.MethodGet,
		Path:        "/api/v1/hidden",
		Summary:     "List hidden entries",
		Description: "Returns entries hidden on this server",
		Tags:        []string{"Curation"},
	}, s.handleListHidden)

	huma.Register(s.api, huma.Operation{
		OperationID:   "hideEntry",
		Method:        http.MethodPost,
		Path:          "/api/v1/hidden",
		Summary:       "Hide entry",
		Description:   "Hides an entry from every view on this server",
		Tags:          []string{"Curation"},
		DefaultStatus: http.StatusCreated,
	}, s.handleHideEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "unhideEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/hidden/{id}",
		Summary:     "Unhide entry",
		Description: "Removes an entry from the hidden set",
		Tags:        []string{"Curation"},
	}, s.handleUnhideEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearHidden",
		Method:      http.MethodDelete,
		Path:        "/api/v1/hidden",
		Summary:     "Clear hidden entries",
		Description: "Empties the hidden set",
		Tags:        []string{"Curation"},
	}, s.handleClearHidden)
}

// === DTOs ===

// RemoveEntryInput contains parameters for removing an entry.
type RemoveEntryInput struct {
	ID      string       `path:"id" pattern:"^[0-9a-f]{64}$" doc:"Record id"`
	ListTag string       `query:"list" doc:"List the entry belongs to, recorded when it is hidden"`
	Reason  string       `query:"reason" maxLength:"500" doc:"Deletion reason"`
	Body    *nostr.Event `required:"false" doc:"Deletion already signed by the client"`
}

// RemoveEntryOutput wraps the removal result for Huma.
type RemoveEntryOutput struct {
	Body *service.RemoveResult
}

// ListHiddenInput contains pagination parameters.
type ListHiddenInput struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Page size"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page"`
}

// HiddenListResponse contains one page of hidden entries.
type HiddenListResponse struct {
	Items      []domain.HiddenItem `json:"items" doc:"Hidden entries"`
	NextCursor string              `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool                `json:"has_more" doc:"True when more pages exist"`
}

// HiddenListOutput wraps the hidden list response for Huma.
type HiddenListOutput struct {
	Body HiddenListResponse
}

// HideEntryRequest is the request body for hiding an entry.
type HideEntryRequest struct {
	ID      string `json:"id" pattern:"^[0-9a-f]{64}$" doc:"Record id"`
	ListTag string `json:"list_tag,omitempty" doc:"List the entry belongs to"`
	Reason  string `json:"reason,omitempty" maxLength:"500" doc:"Why the entry is hidden"`
}

// HideEntryInput wraps the hide request for Huma.
type HideEntryInput struct {
	Body HideEntryRequest
}

// UnhideEntryInput names the entry to unhide.
type UnhideEntryInput struct {
	ID string `path:"id" pattern:"^[0-9a-f]{64}$" doc:"Record id"`
}

// ClearHiddenResponse reports how many entries were unhidden.
type ClearHiddenResponse struct {
	Cleared int `json:"cleared" doc:"Entries removed from the hidden set"`
}

// ClearHiddenOutput wraps the clear response for Huma.
type ClearHiddenOutput struct {
	Body ClearHiddenResponse
}

// === Handlers ===

func (s *Server) handleRemoveEntry(ctx context.Context, input *RemoveEntryInput) (*RemoveEntryOutput, error) {
	res, err := s.services.Curation.Remove(ctx, service.RemoveRequest{
		ID:      input.ID,
		ListTag: input.ListTag,
		Reason:  input.Reason,
		Event:   input.Body,
	})
	if err != nil {
		return nil, err
	}
	return &RemoveEntryOutput{Body: res}, nil
}

func (s *Server) handleListHidden(ctx context.Context, input *ListHiddenInput) (*HiddenListOutput, error) {
	page, err := s.services.Curation.ListHidden(ctx, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	items := page.Items
	if items == nil {
		items = []domain.HiddenItem{}
	}
	return &HiddenListOutput{Body: HiddenListResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}}, nil
}

func (s *Server) handleHideEntry(ctx context.Context, input *HideEntryInput) (*MessageOutput, error) {
	err := s.services.Curation.Hide(ctx, service.HideRequest{
		ID:      input.Body.ID,
		ListTag: input.Body.ListTag,
		Reason:  input.Body.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Entry hidden"}}, nil
}

func (s *Server) handleUnhideEntry(ctx context.Context, input *UnhideEntryInput) (*MessageOutput, error) {
	if err := s.services.Curation.Unhide(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Entry unhidden"}}, nil
}

func (s *Server) handleClearHidden(ctx context.Context, _ *struct{}) (*ClearHiddenOutput, error) {
	n, err := s.services.Curation.ClearHidden(ctx)
	if err != nil {
		return nil, err
	}
	return &ClearHiddenOutput{Body: ClearHiddenResponse{Cleared: n}}, nil
}
