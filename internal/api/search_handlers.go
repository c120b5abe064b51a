package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/podcastindex"
	"github.com/trustwaveapp/trustwave-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Full-text search over song titles, artists and artist names",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "discoverArtists",
		Method:      http.MethodGet,
		Path:        "/api/v1/discover",
		Summary:     "Discover artists",
		Description: "Searches the external index and splits hits into artists already listed and artists that can be imported",
		Tags:        []string{"Search"},
	}, s.handleDiscover)
}

// === DTOs ===

// SearchInput contains catalog search parameters.
type SearchInput struct {
	Query  string   `query:"q" maxLength:"200" doc:"Free-text query"`
	Types  []string `query:"type" enum:"song,artist" doc:"Restrict to entry types"`
	List   string   `query:"list" doc:"Restrict to one list a-tag"`
	Limit  int      `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Page size"`
	Offset int      `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

// DiscoverInput contains hybrid search parameters.
type DiscoverInput struct {
	Query string `query:"q" maxLength:"200" doc:"Artist search terms"`
}

// DiscoverMatch is an external feed already on the musicians list.
type DiscoverMatch struct {
	Feed  podcastindex.Feed   `json:"feed" doc:"External index feed"`
	Entry domain.CatalogEntry `json:"entry" doc:"Musicians-list record for the feed"`
}

// DiscoverResponse contains the reconciled hybrid search hits.
type DiscoverResponse struct {
	Query        string              `json:"query" doc:"Trimmed query"`
	Present      []DiscoverMatch     `json:"present" doc:"Feeds already listed"`
	Importable   []podcastindex.Feed `json:"importable" doc:"Feeds that can be imported"`
	Unidentified int                 `json:"unidentified" doc:"Hits without a feed GUID, excluded from both groups"`
}

// DiscoverOutput wraps the discover response for Huma.
type DiscoverOutput struct {
	Body DiscoverResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.SearchParams{
		Query:   input.Query,
		ListTag: input.List,
		Limit:   input.Limit,
		Offset:  input.Offset,
	}
	for _, t := range input.Types {
		params.Types = append(params.Types, search.DocType(t))
	}

	res, err := s.services.Catalog.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}

func (s *Server) handleDiscover(ctx context.Context, input *DiscoverInput) (*DiscoverOutput, error) {
	if s.services.Import == nil {
		return nil, unavailable("external index")
	}

	res, err := s.services.Import.Discover(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	resp := DiscoverResponse{
		Query:        res.Query,
		Present:      make([]DiscoverMatch, 0, len(res.Present)),
		Importable:   res.Importable,
		Unidentified: res.Unidentified,
	}
	for _, m := range res.Present {
		resp.Present = append(resp.Present, DiscoverMatch{Feed: m.Candidate, Entry: m.Entry})
	}
	if resp.Importable == nil {
		resp.Importable = []podcastindex.Feed{}
	}
	return &DiscoverOutput{Body: resp}, nil
}
