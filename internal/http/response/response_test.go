package response

import (
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()

	TooManyRequests(w, "slow down", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	result := decode(t, w)
	assert.False(t, result.Success)
	assert.Equal(t, "slow down", result.Error)
}

func TestHandleError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", domainerrors.NotFound("entry not found"), http.StatusNotFound, "entry not found"},
		{"relay rejection", domainerrors.Authorization("blocked: spam"), http.StatusForbidden, "blocked: spam"},
		{"transport", domainerrors.Transport("relay unreachable", io.EOF), http.StatusBadGateway, "relay unreachable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, logger)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decode(t, w).Error)
		})
	}
}
