package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSongs",
		Method:      http.MethodGet,
		Path:        "/api/v1/songs",
		Summary:     "List songs",
		Description: "Returns the songs list ranked by trusted reactions",
		Tags:        []string{"Catalog"},
	}, s.handleListSongs)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArtists",
		Method:      http.MethodGet,
		Path:        "/api/v1/artists",
		Summary:     "List artists",
		Description: "Returns the musicians list grouped by normalized name",
		Tags:        []string{"Catalog"},
	}, s.handleListArtists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getArtistEntries",
		Method:      http.MethodGet,
		Path:        "/api/v1/artists/{name}/entries",
		Summary:     "Get artist entries",
		Description: "Returns every musicians-list record merged into the artist and their feed ids",
		Tags:        []string{"Catalog"},
	}, s.handleGetArtistEntries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getArtistSongs",
		Method:      http.MethodGet,
		Path:        "/api/v1/artists/{name}/songs",
		Summary:     "Get artist songs",
		Description: "Returns the ranked songs published under any of the artist's feeds",
		Tags:        []string{"Catalog"},
	}, s.handleGetArtistSongs)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTrending",
		Method:      http.MethodGet,
		Path:        "/api/v1/trending",
		Summary:     "List trending songs",
		Description: "Returns songs added within the trending window, scored by reactions from the same window",
		Tags:        []string{"Catalog"},
	}, s.handleListTrending)
}

// === DTOs ===

// ViewerInput selects whose trust provider and reactions shape the view.
type ViewerInput struct {
	Viewer string `query:"viewer" pattern:"^[0-9a-f]{64}$" doc:"Viewer pubkey; omitted means the default provider"`
}

// ListSongsInput contains parameters for listing songs.
type ListSongsInput struct {
	ViewerInput
	IncludeNonMusic bool `query:"includeNonMusic" doc:"Keep entries the classifier rejects"`
}

// CatalogOutput wraps a materialized list for Huma.
type CatalogOutput struct {
	Warning string `header:"Warning"`
	Body    *service.Catalog
}

// ArtistsOutput wraps the grouped artists for Huma.
type ArtistsOutput struct {
	Warning string `header:"Warning"`
	Body    *service.ArtistsResult
}

// ArtistInput names an artist group.
type ArtistInput struct {
	ViewerInput
	Name string `path:"name" minLength:"1" maxLength:"200" doc:"Artist name, matched case-insensitively"`
}

// ArtistEntriesOutput wraps an artist's provenance for Huma.
type ArtistEntriesOutput struct {
	Body *service.ArtistProvenance
}

// ArtistSongsResponse contains the songs of one artist.
type ArtistSongsResponse struct {
	Name  string               `json:"name" doc:"Artist name as requested"`
	Songs []domain.ScoredEntry `json:"songs" doc:"Ranked songs"`
}

// ArtistSongsOutput wraps the artist songs response for Huma.
type ArtistSongsOutput struct {
	Body ArtistSongsResponse
}

// === Handlers ===

func (s *Server) handleListSongs(ctx context.Context, input *ListSongsInput) (*CatalogOutput, error) {
	cat, err := s.services.Catalog.Songs(ctx, input.Viewer, input.IncludeNonMusic)
	if err != nil {
		return nil, err
	}
	return &CatalogOutput{Warning: warning(cat.Partial || cat.ReactionsDegraded), Body: cat}, nil
}

func (s *Server) handleListArtists(ctx context.Context, input *ViewerInput) (*ArtistsOutput, error) {
	res, err := s.services.Catalog.Artists(ctx, input.Viewer)
	if err != nil {
		return nil, err
	}
	return &ArtistsOutput{Warning: warning(res.Partial), Body: res}, nil
}

func (s *Server) handleGetArtistEntries(ctx context.Context, input *ArtistInput) (*ArtistEntriesOutput, error) {
	prov, err := s.services.Catalog.ArtistEntries(ctx, input.Name, input.Viewer)
	if err != nil {
		return nil, err
	}
	return &ArtistEntriesOutput{Body: prov}, nil
}

func (s *Server) handleGetArtistSongs(ctx context.Context, input *ArtistInput) (*ArtistSongsOutput, error) {
	songs, err := s.services.Catalog.SongsByArtist(ctx, input.Name, input.Viewer)
	if err != nil {
		return nil, err
	}
	if songs == nil {
		songs = []domain.ScoredEntry{}
	}
	return &ArtistSongsOutput{Body: ArtistSongsResponse{Name: input.Name, Songs: songs}}, nil
}

func (s *Server) handleListTrending(ctx context.Context, input *ViewerInput) (*CatalogOutput, error) {
	cat, err := s.services.Catalog.Trending(ctx, input.Viewer)
	if err != nil {
		return nil, err
	}
	return &CatalogOutput{Warning: warning(cat.Partial || cat.ReactionsDegraded), Body: cat}, nil
}
