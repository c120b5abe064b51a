package api

import (
	"github.com/trustwaveapp/trustwave-server/internal/search"
	"github.com/trustwaveapp/trustwave-server/internal/service"
	"github.com/trustwaveapp/trustwave-server/internal/store"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

// Services groups the business services and stores used by the API server.
// Any of them may be nil in tests; the affected routes then report
// the component as unavailable.
type Services struct {
	Catalog  *service.CatalogService
	Votes    *service.VoteService
	Curation *service.CurationService
	Import   *service.ImportService // nil when no external index is configured
	Janitor  *service.JanitorService
	Trust    *trust.Cache
	Resolver *trust.Resolver

	// Backing stores, pinged by the health check.
	Hidden *store.Store
	Jobs   *sqlite.Store
	Index  *search.SearchIndex
}
