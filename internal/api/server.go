// Package api provides the HTTP API server and handlers for the catalog service.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwise/catalog-server/internal/auth"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/metrics"
	"github.com/shelfwise/catalog-server/internal/ratelimit"
	"github.com/shelfwise/catalog-server/internal/service"
	"github.com/shelfwise/catalog-server/internal/validation"
)

// Services groups the domain services the handlers call.
type Services struct {
	Catalog    *service.CatalogService
	Tags       *service.TagService
	Aggregates *service.AggregationService
	Profile    *service.ProfileService
	Directory  *service.DirectoryService
}

// HealthCheck probes one backing component.
type HealthCheck func(ctx context.Context) error

// Options carries the optional parts of the server.
type Options struct {
	CORSOrigins []string
	// Limiter throttles requests per client IP. Nil disables rate limiting.
	Limiter *ratelimit.KeyedRateLimiter
	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthCheck
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	tokens    *auth.TokenService
	covers    *images.Storage
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	checks    map[string]HealthCheck
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, tokens *auth.TokenService, covers *images.Storage, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:  services,
		tokens:    tokens,
		covers:    covers,
		validator: validation.New(),
		limiter:   opts.Limiter,
		checks:    opts.Checks,
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware(opts.CORSOrigins)
	s.api = humachi.New(s.router, newHumaConfig())
	RegisterErrorHandler()
	s.registerRoutes()

	if opts.Gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(opts.Gatherer))
	}
	s.router.Get("/covers/{ref}/{size}", s.handleServeCover)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

func newHumaConfig() huma.Config {
	humaConfig := huma.DefaultConfig("Catalog API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	return humaConfig
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Retry-After"},
			MaxAge:         300,
		}))
	}

	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerCatalogRoutes()
	s.registerTagRoutes()
	s.registerProfileRoutes()
	s.registerPublicationRoutes()
}
