package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func (s *Server) registerVoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "castReaction",
		Method:      http.MethodPost,
		Path:        "/api/v1/reactions",
		Summary:     "Cast reaction",
		Description: "Relays a client-signed up or down vote. Cached views reflect it immediately and are rolled back if the relay refuses it.",
		Tags:        []string{"Reactions"},
	}, s.handleCastReaction)
}

// CastReactionInput wraps a signed reaction for Huma.
type CastReactionInput struct {
	Body nostr.Event
}

// CastReactionOutput wraps the vote result for Huma.
type CastReactionOutput struct {
	Body *service.VoteResult
}

func (s *Server) handleCastReaction(ctx context.Context, input *CastReactionInput) (*CastReactionOutput, error) {
	res, err := s.services.Votes.Cast(ctx, &input.Body)
	if err != nil {
		return nil, err
	}
	return &CastReactionOutput{Body: res}, nil
}
