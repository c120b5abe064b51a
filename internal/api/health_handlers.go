package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"hidden_store": s.checkHiddenStore(),
		"job_store":    s.checkJobStore(ctx),
		"search":       s.checkSearchIndex(),
		"catalog":      s.checkCatalogCache(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch {
		case c.Status == statusUnhealthy:
			overall = statusUnhealthy
		case c.Status == statusDegraded && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkHiddenStore verifies BadgerDB is accessible.
func (s *Server) checkHiddenStore() ComponentHealth {
	if s.services.Hidden == nil {
		return ComponentHealth{Status: statusDegraded, Message: "hidden store not configured"}
	}

	start := time.Now()
	err := s.services.Hidden.Ping()
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "hidden store read failed"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkJobStore verifies the SQLite job database answers.
func (s *Server) checkJobStore(ctx context.Context) ComponentHealth {
	if s.services.Jobs == nil {
		return ComponentHealth{Status: statusDegraded, Message: "job store not configured"}
	}

	start := time.Now()
	err := s.services.Jobs.Ping(ctx)
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "job store unreachable"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is accessible. An empty index
// is degraded: it fills on the first search.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services.Index == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.services.Index.DocumentCount()
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "search index unreachable"}
	}
	if docCount == 0 {
		return ComponentHealth{Status: statusDegraded, Latency: latency.String(), Message: "search index empty"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkCatalogCache reports how many materialized views are cached.
func (s *Server) checkCatalogCache() ComponentHealth {
	if s.services.Catalog == nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "catalog not configured"}
	}
	return ComponentHealth{Status: statusHealthy, Message: formatViews(s.services.Catalog.CachedViews())}
}

func formatViews(n int) string {
	switch n {
	case 0:
		return "no cached views"
	case 1:
		return "1 cached view"
	default:
		return strconv.Itoa(n) + " cached views"
	}
}
