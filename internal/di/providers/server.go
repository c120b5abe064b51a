package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/api"
	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
	"github.com/trustwaveapp/trustwave-server/internal/service"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	jobsHandle := do.MustInvoke[*JobStoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	services := &api.Services{
		Catalog:  do.MustInvoke[*service.CatalogService](i),
		Votes:    do.MustInvoke[*service.VoteService](i),
		Curation: do.MustInvoke[*service.CurationService](i),
		Import:   do.MustInvoke[*service.ImportService](i),
		Janitor:  do.MustInvoke[*service.JanitorService](i),
		Trust:    do.MustInvoke[*trust.Cache](i),
		Resolver: do.MustInvoke[*trust.Resolver](i),
		Hidden:   storeHandle.Store,
		Jobs:     jobsHandle.Store,
		Index:    indexHandle.SearchIndex,
	}

	handler := api.NewServer(services, cfg.Server, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
