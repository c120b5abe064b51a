// Package api exposes the catalog over HTTP using huma on a chi router.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/trustwaveapp/trustwave-server/internal/config"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/http/response"
	"github.com/trustwaveapp/trustwave-server/internal/ratelimit"
)

// Server is the HTTP API server.
type Server struct {
	services *Services
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, cfg config.ServerConfig, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		router:   chi.NewRouter(),
		limiter:  ratelimit.New(writeRequestsPerSecond, writeBurst),
		logger:   logger,
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("TrustWave API", "1.0.0")
	humaConfig.Info.Description = "Trust-weighted music catalog built from signed relay records"
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) setupMiddleware(cfg config.ServerConfig) {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Warning"},
		MaxAge:         300,
	}))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	s.router.NotFound(s.handleUnknownRoute)
}

func (s *Server) handleUnknownRoute(w http.ResponseWriter, r *http.Request) {
	response.HandleError(w, domainerrors.NotFoundf("no route for %s", r.URL.Path), s.logger)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerCatalogRoutes()
	s.registerListRoutes()
	s.registerSearchRoutes()
	s.registerImportRoutes()
	s.registerVoteRoutes()
	s.registerCurationRoutes()
	s.registerAdminRoutes()
}

// requestLogger logs each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
