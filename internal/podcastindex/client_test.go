package podcastindex

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, Options{RequestsPerSecond: 100}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestClient_Search(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"status":"true","count":2,"feeds":[
			{"id":42,"podcastGuid":"guid-a","title":"Nova","artwork":"https://img/a.jpg","image":"https://img/a-small.jpg"},
			{"id":43,"podcastGuid":"guid-b","title":"Nova Live","image":"https://img/b.jpg"}
		]}`))
	})

	feeds, err := client.Search(context.Background(), "nova", 0)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, int64(42), feeds[0].ID)
	assert.Equal(t, "https://img/a.jpg", feeds[0].ArtworkURL())
	assert.Equal(t, "https://img/b.jpg", feeds[1].ArtworkURL())
	assert.Contains(t, gotQuery, "medium=music")
	assert.Contains(t, gotQuery, "max=20")
	assert.Contains(t, gotQuery, "q=nova")
}

func TestClient_SearchBlankQuery(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("blank search must not reach the index")
	})

	feeds, err := client.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "bad request", status: http.StatusBadRequest, wantErr: ErrBadRequest},
		{name: "server error", status: http.StatusBadGateway, wantErr: ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.Search(context.Background(), "nova", 5)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var piErr *Error
			require.True(t, errors.As(err, &piErr))
			assert.Equal(t, "search", piErr.Op)
			assert.Equal(t, "nova", piErr.Arg)
		})
	}
}

func TestClient_Episodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/episodes/byfeedid", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Equal(t, "music", r.URL.Query().Get("medium"))
		assert.Equal(t, "50", r.URL.Query().Get("max"))
		w.Write([]byte(`{"status":"true","items":[
			{"id":1,"guid":"ep-1","title":"First Light","enclosureUrl":"https://cdn/1.mp3","duration":215,"feedId":42,"feedImage":"https://img/feed.jpg"}
		]}`))
	})

	eps, err := client.Episodes(context.Background(), "42", 50)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "ep-1", eps[0].GUID)
	assert.Equal(t, 215, eps[0].Duration)
	assert.Equal(t, "https://img/feed.jpg", eps[0].ArtworkURL())
}

func TestClient_EpisodesRequiresFeed(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	_, err := client.Episodes(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestClient_Feed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "42":
			w.Write([]byte(`{"status":"true","feed":{"id":42,"podcastGuid":"guid-a","title":"Nova","url":"https://feeds/nova.xml"}}`))
		default:
			w.Write([]byte(`{"status":"true","feed":[]}`))
		}
	})

	feed, err := client.Feed(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "guid-a", feed.PodcastGUID)
	assert.Equal(t, "https://feeds/nova.xml", feed.URL)

	_, err = client.Feed(context.Background(), "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_FeedByGUID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"feeds":[{"id":7,"podcastGuid":"other"},{"id":8,"podcastGuid":"guid-a"}]}`))
	})

	feed, err := client.FeedByGUID(context.Background(), "guid-a")
	require.NoError(t, err)
	assert.Equal(t, int64(8), feed.ID)

	_, err = client.FeedByGUID(context.Background(), "guid-z")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", Options{}, slog.Default())
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", Markdown("  plain text "))
	assert.Equal(t, "", Markdown(""))
	assert.Equal(t, "**Nova** plays synth", Markdown("<p><strong>Nova</strong> plays synth</p>"))
}
