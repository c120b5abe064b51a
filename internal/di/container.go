// Package di provides dependency injection configuration for the TrustWave server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/artwork"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/di/providers"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/reaction"
	"github.com/trustwaveapp/trustwave-server/internal/service"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

// NewContainer creates and configures the DI container with all providers.
// Configuration is loaded from the process arguments.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	registerServices(injector)
	return injector
}

// NewContainerWithConfig creates a container around an already loaded
// configuration and logger, as the command-line tools do.
func NewContainerWithConfig(cfg *config.Config, log *logger.Logger) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	registerServices(injector)
	return injector
}

func registerServices(injector do.Injector) {
	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideJobStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Network layer
	do.Provide(injector, providers.ProvideRelayPool)
	do.Provide(injector, providers.ProvideSigners)
	do.Provide(injector, providers.ProvideTrustCache)
	do.Provide(injector, providers.ProvideTrustResolver)
	do.Provide(injector, providers.ProvidePodcastIndex)
	do.Provide(injector, providers.ProvideArtworkHasher)

	// Business services
	do.Provide(injector, providers.ProvideReactionAggregator)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideVoteService)
	do.Provide(injector, providers.ProvideCurationService)
	do.Provide(injector, providers.ProvideImportService)
	do.Provide(injector, providers.ProvideJanitorService)
	do.Provide(injector, providers.ProvideSongImporter)
}

// ProvideServer registers the long-running server components. The CLI
// builds a container without them.
func ProvideServer(injector *do.RootScope) {
	do.Provide(injector, providers.ProvideIndexRefreshJob)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	ProvideServer(injector)

	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.JobStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*nostr.Pool](injector)
	_ = do.MustInvoke[*providers.Signers](injector)
	_ = do.MustInvoke[*trust.Cache](injector)
	_ = do.MustInvoke[*trust.Resolver](injector)
	_ = do.MustInvoke[*providers.PodcastIndexHandle](injector)
	_ = do.MustInvoke[*artwork.Hasher](injector)

	// Business services
	_ = do.MustInvoke[*reaction.Aggregator](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.VoteService](injector)
	_ = do.MustInvoke[*service.CurationService](injector)
	_ = do.MustInvoke[*service.ImportService](injector)
	_ = do.MustInvoke[*service.JanitorService](injector)

	// Workers
	_ = do.MustInvoke[*providers.IndexRefreshJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
