package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importArtist",
		Method:      http.MethodPost,
		Path:        "/api/v1/import/artist",
		Summary:     "Import artist",
		Description: "Adds an external feed to the musicians list unless a record for it already exists",
		Tags:        []string{"Import"},
	}, s.handleImportArtist)

	huma.Register(s.api, huma.Operation{
		OperationID: "importSong",
		Method:      http.MethodPost,
		Path:        "/api/v1/import/song",
		Summary:     "Import song",
		Description: "Adds an external episode to the songs list unless a record for it already exists",
		Tags:        []string{"Import"},
	}, s.handleImportSong)
}

// === DTOs ===

// ImportArtistRequest is the request body for importing an artist.
type ImportArtistRequest struct {
	FeedID      string       `json:"feed_id,omitempty" pattern:"^[0-9]+$" doc:"External index feed id"`
	FeedGUID    string       `json:"feed_guid,omitempty" maxLength:"500" doc:"Podcast GUID, used when no feed id is given"`
	Description string       `json:"description,omitempty" maxLength:"2000" doc:"Curator annotation; defaults to the feed description"`
	Event       *nostr.Event `json:"event,omitempty" doc:"List item already signed by the client"`
}

// ImportArtistInput wraps the import artist request for Huma.
type ImportArtistInput struct {
	Body ImportArtistRequest
}

// ImportSongRequest is the request body for importing a song.
type ImportSongRequest struct {
	FeedID      string       `json:"feed_id,omitempty" pattern:"^[0-9]+$" doc:"External index feed id"`
	EpisodeGUID string       `json:"episode_guid,omitempty" maxLength:"500" doc:"Episode GUID within the feed"`
	ListTag     string       `json:"list_tag,omitempty" doc:"Target list a-tag; defaults to the songs list"`
	Description string       `json:"description,omitempty" maxLength:"2000" doc:"Curator annotation"`
	Event       *nostr.Event `json:"event,omitempty" doc:"List item already signed by the client"`
}

// ImportSongInput wraps the import song request for Huma.
type ImportSongInput struct {
	Body ImportSongRequest
}

// ImportOutput wraps the import result for Huma.
type ImportOutput struct {
	Body *service.ImportResult
}

// === Handlers ===

func (s *Server) handleImportArtist(ctx context.Context, input *ImportArtistInput) (*ImportOutput, error) {
	if s.services.Import == nil {
		return nil, unavailable("external index")
	}
	res, err := s.services.Import.ImportArtist(ctx, service.ImportArtistRequest{
		FeedID:      input.Body.FeedID,
		FeedGUID:    input.Body.FeedGUID,
		Description: input.Body.Description,
		Event:       input.Body.Event,
	})
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: res}, nil
}

func (s *Server) handleImportSong(ctx context.Context, input *ImportSongInput) (*ImportOutput, error) {
	if s.services.Import == nil {
		return nil, unavailable("external index")
	}
	res, err := s.services.Import.ImportSong(ctx, service.ImportSongRequest{
		FeedID:      input.Body.FeedID,
		EpisodeGUID: input.Body.EpisodeGUID,
		ListTag:     input.Body.ListTag,
		Description: input.Body.Description,
		Event:       input.Body.Event,
	})
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: res}, nil
}
