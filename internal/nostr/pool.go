package nostr

import (
	"log/slog"
	"strings"
	"sync"
)

// Stores hands out a Store for a relay URL.
type Stores interface {
	Store(url string) Store
}

// Pool keeps one Client per relay URL. Clients are stateless between calls,
// so sharing them across goroutines is safe.
type Pool struct {
	opts   ClientOptions
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool creates an empty pool.
func NewPool(opts ClientOptions, logger *slog.Logger) *Pool {
	return &Pool{opts: opts, logger: logger, clients: make(map[string]*Client)}
}

// Store returns the client for url, creating it on first use.
func (p *Pool) Store(url string) Store {
	url = NormalizeURL(url)

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[url]; ok {
		return c
	}
	c := NewClient(url, p.opts, p.logger)
	p.clients[url] = c
	return c
}

// NormalizeURL trims whitespace and a trailing slash so equivalent relay
// URLs share one client.
func NormalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// StaticStores serves the same Store for every URL.
type StaticStores struct{ S Store }

// Store implements Stores.
func (s StaticStores) Store(string) Store { return s.S }
