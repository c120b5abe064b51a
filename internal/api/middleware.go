package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/trustwaveapp/trustwave-server/internal/http/response"
)

// EnvelopeVersion is the response envelope format version.
const EnvelopeVersion = response.Version

// APIEnvelope wraps every successful response body.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// APIErrorEnvelope wraps domain errors so clients get the machine code and details.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in
// the shared envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)
	if code < 400 {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	if err, ok := v.(error); ok {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Error:   apiErr.Message,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}
	return APIEnvelope{Version: EnvelopeVersion, Data: v}, nil
}
