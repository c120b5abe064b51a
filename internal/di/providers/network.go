package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/artwork"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/podcastindex"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

// ProvideRelayPool provides the shared relay client pool.
func ProvideRelayPool(i do.Injector) (*nostr.Pool, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return nostr.NewPool(nostr.ClientOptions{
		QueryTimeout:   cfg.Relay.QueryTimeout,
		PublishTimeout: cfg.Relay.PublishTimeout,
	}, log.Logger), nil
}

// Signers holds the server-side identities. A field is nil when no key is configured.
type Signers struct {
	Import  nostr.Signer
	Janitor nostr.Signer
}

// ProvideSigners parses the configured secret keys.
func ProvideSigners(i do.Injector) (*Signers, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	signers := &Signers{}
	if cfg.Import.SecretKey != "" {
		s, err := nostr.NewKeySigner(cfg.Import.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("import key: %w", err)
		}
		signers.Import = s
		log.Info("Import signer loaded", "pubkey", s.PublicKey())
	}
	if cfg.Janitor.SecretKey != "" {
		s, err := nostr.NewKeySigner(cfg.Janitor.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("janitor key: %w", err)
		}
		signers.Janitor = s
		log.Info("Janitor signer loaded", "pubkey", s.PublicKey())
	} else {
		log.Info("No janitor key configured, janitor runs are dry only")
	}

	return signers, nil
}

// ProvideTrustCache provides the per-provider trust map cache.
func ProvideTrustCache(i do.Injector) (*trust.Cache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	pool := do.MustInvoke[*nostr.Pool](i)

	builder := trust.NewBuilder(cfg.Trust.BatchSize, cfg.Trust.MaxRecords, log.Logger)
	return trust.NewCache(builder, pool, cfg.Trust.SystemCurators, log.Logger), nil
}

// ProvideTrustResolver provides the viewer to trust provider resolver.
func ProvideTrustResolver(i do.Injector) (*trust.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	pool := do.MustInvoke[*nostr.Pool](i)

	fallback := domain.TrustProvider{
		PubKey:   cfg.Trust.ProviderKey,
		RelayURL: cfg.Relay.TrustURL,
	}
	discovery := []string{cfg.Relay.CatalogURL, cfg.Relay.TrustURL}

	return trust.NewResolver(pool, discovery, fallback, log.Logger), nil
}

// PodcastIndexHandle wraps the Podcast Index client with shutdown capability.
// Client is nil when no index is configured.
type PodcastIndexHandle struct {
	*podcastindex.Client
}

// Shutdown implements do.Shutdownable.
func (h *PodcastIndexHandle) Shutdown() error {
	if h.Client != nil {
		h.Close()
	}
	return nil
}

// ProvidePodcastIndex provides the external catalog index client.
func ProvidePodcastIndex(i do.Injector) (*PodcastIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.PodcastIndex.BaseURL == "" {
		log.Info("Podcast Index disabled, discovery and import are unavailable")
		return &PodcastIndexHandle{}, nil
	}

	client, err := podcastindex.New(cfg.PodcastIndex.BaseURL, podcastindex.Options{
		RequestsPerSecond: cfg.PodcastIndex.RequestsPerSecond,
		Timeout:           cfg.PodcastIndex.Timeout,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Podcast Index client initialized", "base_url", cfg.PodcastIndex.BaseURL)

	return &PodcastIndexHandle{Client: client}, nil
}

// ProvideArtworkHasher provides the blurhash generator, or nil when disabled.
func ProvideArtworkHasher(i do.Injector) (*artwork.Hasher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Import.BlurHash {
		return nil, nil
	}
	return artwork.NewHasher(log.Logger), nil
}
