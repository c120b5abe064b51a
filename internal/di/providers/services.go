package providers

import (
	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/artwork"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
	"github.com/trustwaveapp/trustwave-server/internal/reconcile"
	"github.com/trustwaveapp/trustwave-server/internal/service"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

// ProvideReactionAggregator provides the trust-weighted reaction tally.
func ProvideReactionAggregator(i do.Injector) (*reaction.Aggregator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pool := do.MustInvoke[*nostr.Pool](i)
	log := do.MustInvoke[*logger.Logger](i)

	return reaction.NewAggregator(
		pool.Store(cfg.Relay.CatalogURL),
		cfg.Catalog.ReactionLimit,
		cfg.Trust.Threshold,
		log.Logger,
	), nil
}

// ProvideCatalogService provides the catalog materialization service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pool := do.MustInvoke[*nostr.Pool](i)
	trustCache := do.MustInvoke[*trust.Cache](i)
	resolver := do.MustInvoke[*trust.Resolver](i)
	reactions := do.MustInvoke[*reaction.Aggregator](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	signers := do.MustInvoke[*Signers](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(
		pool.Store(cfg.Relay.CatalogURL),
		trustCache,
		resolver,
		reactions,
		storeHandle.Store,
		indexHandle.SearchIndex,
		signers.Import,
		cfg.Catalog,
		log.Logger,
	), nil
}

// ProvideVoteService provides the reaction publishing service.
func ProvideVoteService(i do.Injector) (*service.VoteService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pool := do.MustInvoke[*nostr.Pool](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVoteService(pool.Store(cfg.Relay.CatalogURL), catalog, log.Logger), nil
}

// ProvideCurationService provides the remove and hide service.
func ProvideCurationService(i do.Injector) (*service.CurationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pool := do.MustInvoke[*nostr.Pool](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	signers := do.MustInvoke[*Signers](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCurationService(
		pool.Store(cfg.Relay.CatalogURL),
		storeHandle.Store,
		catalog,
		signers.Import,
		log.Logger,
	), nil
}

// ProvideImportService provides discovery and guarded import.
// Returns nil when no external index is configured.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	indexHandle := do.MustInvoke[*PodcastIndexHandle](i)
	if indexHandle.Client == nil {
		return nil, nil
	}

	pool := do.MustInvoke[*nostr.Pool](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	jobsHandle := do.MustInvoke[*JobStoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	signers := do.MustInvoke[*Signers](i)
	hasher := do.MustInvoke[*artwork.Hasher](i)
	log := do.MustInvoke[*logger.Logger](i)

	relay := pool.Store(cfg.Relay.CatalogURL)
	opts := service.ImportServiceOptions{
		Jobs:            jobsHandle.Store,
		Signer:          signers.Import,
		EpisodesPerFeed: cfg.Import.EpisodesPerFeed,
	}
	if hasher != nil {
		opts.Hasher = hasher
	}

	return service.NewImportService(
		relay,
		indexHandle.Client,
		reconcile.NewGuard(relay, log.Logger),
		storeHandle.Store,
		catalog,
		cfg.Catalog,
		opts,
		log.Logger,
	), nil
}

// ProvideJanitorService provides the non-music cleanup job.
func ProvideJanitorService(i do.Injector) (*service.JanitorService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pool := do.MustInvoke[*nostr.Pool](i)
	reactions := do.MustInvoke[*reaction.Aggregator](i)
	jobsHandle := do.MustInvoke[*JobStoreHandle](i)
	signers := do.MustInvoke[*Signers](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewJanitorService(
		pool.Store(cfg.Relay.CatalogURL),
		reactions,
		jobsHandle.Store,
		signers.Janitor,
		cfg.Catalog.SongsListTag,
		cfg.Janitor,
		log.Logger,
	), nil
}

// ProvideSongImporter provides the bulk song importer. Returns nil without an import service.
func ProvideSongImporter(i do.Injector) (*service.SongImporter, error) {
	imports := do.MustInvoke[*service.ImportService](i)
	if imports == nil {
		return nil, nil
	}

	cfg := do.MustInvoke[*config.Config](i)
	pool := do.MustInvoke[*nostr.Pool](i)
	indexHandle := do.MustInvoke[*PodcastIndexHandle](i)
	jobsHandle := do.MustInvoke[*JobStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSongImporter(
		pool.Store(cfg.Relay.CatalogURL),
		indexHandle.Client,
		imports,
		jobsHandle.Store,
		log.Logger,
	), nil
}
