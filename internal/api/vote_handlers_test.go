package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func TestCastReaction_UpdatesCachedView(t *testing.T) {
	ts := setupTestServer(t)
	s1 := ts.song(t, "g1", "Night Drive", ago(time.Hour))

	viewer := "/api/v1/songs?viewer=" + ts.curator.PublicKey()
	warm := ts.api.Get(viewer)
	require.Equal(t, http.StatusOK, warm.Code, warm.Body.String())

	resp := ts.api.Post("/api/v1/reactions", nostrtest.Reaction(t, ts.curator, s1, "+", ago(0)))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[service.VoteResult](t, resp.Body.Bytes())
	assert.Equal(t, 1, env.Data.Views)
	require.NotNil(t, env.Data.Entry)
	assert.Equal(t, 1, env.Data.Entry.Score)

	after := ts.api.Get(viewer)
	cat := decode[service.Catalog](t, after.Body.Bytes())
	require.Len(t, cat.Data.Entries, 1)
	assert.Equal(t, 1, cat.Data.Entries[0].Score)
}

func TestCastReaction_RelayRejectionIsForbidden(t *testing.T) {
	ts := setupTestServer(t)
	s1 := ts.song(t, "g1", "Night Drive", ago(time.Hour))
	ts.relay.RejectPublish = func(*nostr.Event) string { return "blocked: rate limited" }

	resp := ts.api.Post("/api/v1/reactions", nostrtest.Reaction(t, ts.curator, s1, "+", ago(0)))

	assert.Equal(t, http.StatusForbidden, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, string(domainerrors.CodeAuthorization), env.Code)
	assert.Equal(t, "blocked: rate limited", env.Message)
	assert.Zero(t, ts.relay.Count(nostr.Filter{Kinds: []int{nostr.KindReaction}}))
}

func TestCastReaction_RejectsTamperedEvent(t *testing.T) {
	ts := setupTestServer(t)
	s1 := ts.song(t, "g1", "Night Drive", ago(time.Hour))
	ev := nostrtest.Reaction(t, ts.curator, s1, "+", ago(0))
	ev.Content = "-"

	resp := ts.api.Post("/api/v1/reactions", ev)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, ts.relay.PublishCount())
}
