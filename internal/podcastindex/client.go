// Package podcastindex is a rate-limited client for the Podcast Index music
// catalog, reached through the TrustWave proxy that signs requests upstream.
package podcastindex

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trustwaveapp/trustwave-server/internal/ratelimit"
)

const (
	defaultRPS     = 1.0
	defaultBurst   = 3
	defaultTimeout = 30 * time.Second

	// DefaultSearchMax matches the result count the catalog search asks for.
	DefaultSearchMax = 20
	// DefaultEpisodesMax is how many tracks are pulled per feed.
	DefaultEpisodesMax = 100
	maxResults         = 1000
)

// Options configures a Client. Zero values take defaults.
type Options struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
}

// Client is a rate-limited Podcast Index client.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	userAgent string
	logger    *slog.Logger
}

// New creates a client for the proxy at baseURL.
func New(baseURL string, opts Options, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse podcast index url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("podcast index url must be http(s), got %q", baseURL)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "TrustWave/1.0"
	}

	return &Client{
		base:      base,
		http:      &http.Client{Timeout: timeout},
		limiter:   ratelimit.New(rps, defaultBurst),
		userAgent: ua,
		logger:    logger,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Search finds music feeds matching q.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]Feed, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("q", q)
	query.Set("medium", "music")
	query.Set("max", strconv.Itoa(clamp(limit, DefaultSearchMax)))

	body, err := c.doRequest(ctx, "/search", query)
	if err != nil {
		return nil, wrapError("search", q, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", q, fmt.Errorf("decode response: %w", err))
	}
	return resp.Feeds, nil
}

// FeedByGUID searches for the feed whose podcast GUID is exactly guid.
func (c *Client) FeedByGUID(ctx context.Context, guid string) (*Feed, error) {
	feeds, err := c.Search(ctx, guid, 1)
	if err != nil {
		return nil, err
	}
	for i := range feeds {
		if feeds[i].PodcastGUID == guid {
			return &feeds[i], nil
		}
	}
	return nil, wrapError("feedByGuid", guid, ErrNotFound)
}

// Episodes lists the music tracks of a feed.
func (c *Client) Episodes(ctx context.Context, feedID string, limit int) ([]Episode, error) {
	if feedID == "" {
		return nil, wrapError("episodes", feedID, ErrBadRequest)
	}

	query := url.Values{}
	query.Set("id", feedID)
	query.Set("max", strconv.Itoa(clamp(limit, DefaultEpisodesMax)))
	query.Set("medium", "music")

	body, err := c.doRequest(ctx, "/episodes/byfeedid", query)
	if err != nil {
		return nil, wrapError("episodes", feedID, err)
	}

	var resp episodesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("episodes", feedID, fmt.Errorf("decode response: %w", err))
	}
	return resp.Items, nil
}

// Feed returns feed details by index id.
func (c *Client) Feed(ctx context.Context, feedID string) (*Feed, error) {
	if feedID == "" {
		return nil, wrapError("feed", feedID, ErrBadRequest)
	}

	query := url.Values{}
	query.Set("id", feedID)

	body, err := c.doRequest(ctx, "/feed", query)
	if err != nil {
		return nil, wrapError("feed", feedID, err)
	}

	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("feed", feedID, fmt.Errorf("decode response: %w", err))
	}
	if resp.Feed.Kind() != '{' {
		return nil, wrapError("feed", feedID, ErrNotFound)
	}

	var feed Feed
	if err := json.Unmarshal(resp.Feed, &feed); err != nil {
		return nil, wrapError("feed", feedID, fmt.Errorf("decode feed: %w", err))
	}
	if feed.ID == 0 && feed.PodcastGUID == "" {
		return nil, wrapError("feed", feedID, ErrNotFound)
	}
	return &feed, nil
}

// doRequest executes a GET against the proxy with rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, c.base.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("podcast index request", "path", path, "query", query.Encode())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

func clamp(n, def int) int {
	if n <= 0 {
		return def
	}
	return min(n, maxResults)
}
