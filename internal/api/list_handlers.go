package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getListCounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/counts",
		Summary:     "Get list counts",
		Description: "Returns the number of visible entries on each list",
		Tags:        []string{"Lists"},
	}, s.handleGetListCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenreLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{parent}/genres",
		Summary:     "List genre sub-lists",
		Description: "Returns the list headers that declare parent as their parent list",
		Tags:        []string{"Lists"},
	}, s.handleListGenreLists)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists",
		Summary:       "Create list",
		Description:   "Publishes a list header, either signed by the client or built and signed by the server",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateList)
}

// === DTOs ===

// ListCountsInput selects the lists to count.
type ListCountsInput struct {
	Lists []string `query:"list" doc:"List a-tags; omitted means the songs and musicians lists"`
}

// ListCountResponse is the entry count of one list.
type ListCountResponse struct {
	ListTag string `json:"list_tag" doc:"List a-tag"`
	Count   int    `json:"count" doc:"Visible entries"`
	Capped  bool   `json:"capped" doc:"True when the relay sample limit was reached"`
	Display string `json:"display" doc:"Count for display, N+ when capped"`
}

// ListCountsResponse contains the counts of the requested lists.
type ListCountsResponse struct {
	Counts []ListCountResponse `json:"counts" doc:"One count per list"`
}

// ListCountsOutput wraps the list counts response for Huma.
type ListCountsOutput struct {
	Body ListCountsResponse
}

// GenreListsInput names the parent list.
type GenreListsInput struct {
	Parent string `path:"parent" doc:"Parent list a-tag"`
}

// GenreListsResponse contains genre sub-list headers.
type GenreListsResponse struct {
	Parent string              `json:"parent" doc:"Parent list a-tag"`
	Lists  []domain.ListHeader `json:"lists" doc:"Sub-list headers, newest first"`
}

// GenreListsOutput wraps the genre lists response for Huma.
type GenreListsOutput struct {
	Body GenreListsResponse
}

// CreateListRequest is the request body for creating a list.
type CreateListRequest struct {
	NameSingular string       `json:"name_singular,omitempty" maxLength:"100" doc:"Singular item name, e.g. Synthwave song"`
	NamePlural   string       `json:"name_plural,omitempty" maxLength:"100" doc:"Plural item name"`
	Description  string       `json:"description,omitempty" maxLength:"2000" doc:"List description"`
	Parent       string       `json:"parent,omitempty" doc:"Parent list a-tag; defaults to the songs list"`
	Genres       []string     `json:"genres,omitempty" maxItems:"10" doc:"Genre tags"`
	Event        *nostr.Event `json:"event,omitempty" doc:"List header already signed by the client"`
}

// CreateListInput wraps the create list request for Huma.
type CreateListInput struct {
	Body CreateListRequest
}

// ListHeaderOutput wraps a published list header for Huma.
type ListHeaderOutput struct {
	Body *domain.ListHeader
}

// === Handlers ===

func (s *Server) handleGetListCounts(ctx context.Context, input *ListCountsInput) (*ListCountsOutput, error) {
	counts, err := s.services.Catalog.ListCounts(ctx, input.Lists)
	if err != nil {
		return nil, err
	}

	resp := ListCountsResponse{Counts: make([]ListCountResponse, 0, len(counts))}
	for _, c := range counts {
		resp.Counts = append(resp.Counts, ListCountResponse{
			ListTag: c.ListTag,
			Count:   c.Count,
			Capped:  c.Capped,
			Display: c.Label(),
		})
	}
	return &ListCountsOutput{Body: resp}, nil
}

func (s *Server) handleListGenreLists(ctx context.Context, input *GenreListsInput) (*GenreListsOutput, error) {
	headers, err := s.services.Catalog.GenreLists(ctx, input.Parent)
	if err != nil {
		return nil, err
	}
	return &GenreListsOutput{Body: GenreListsResponse{Parent: input.Parent, Lists: headers}}, nil
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListHeaderOutput, error) {
	header, err := s.services.Catalog.CreateList(ctx, service.CreateListRequest{
		NameSingular: input.Body.NameSingular,
		NamePlural:   input.Body.NamePlural,
		Description:  input.Body.Description,
		Parent:       input.Body.Parent,
		Genres:       input.Body.Genres,
		Event:        input.Body.Event,
	})
	if err != nil {
		return nil, err
	}
	return &ListHeaderOutput{Body: header}, nil
}
