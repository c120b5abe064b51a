package api

import (
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
)

// warning returns the Warning header value for a partial result.
func warning(partial bool) string {
	if partial {
		return partialWarning
	}
	return ""
}

// unavailable reports a component this server was started without.
func unavailable(component string) error {
	return domainerrors.Internal(component + " is not configured on this server")
}

// MessageResponse contains a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}
