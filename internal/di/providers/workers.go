package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

const minIndexRefreshInterval = time.Minute

// IndexRefreshJob periodically rebuilds the catalog search index so search
// results follow the lists between requests.
type IndexRefreshJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *IndexRefreshJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideIndexRefreshJob provides the periodic index refresh job.
func ProvideIndexRefreshJob(i do.Injector) (*IndexRefreshJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	interval := max(cfg.Catalog.CacheTTL, minIndexRefreshInterval)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count, err := catalog.RebuildIndex(ctx); err != nil {
					log.Warn("Search index refresh failed", "error", err)
				} else {
					log.Debug("Search index refreshed", "documents", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Search index refresh job started", "interval", interval)

	return &IndexRefreshJob{cancel: cancel}, nil
}
