package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/shelfwise/catalog-server/internal/api"
	"github.com/shelfwise/catalog-server/internal/auth"
	"github.com/shelfwise/catalog-server/internal/config"
	"github.com/shelfwise/catalog-server/internal/logger"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/ratelimit"
	"github.com/shelfwise/catalog-server/internal/service"
)

// ProvideRateLimiter provides the per-client request limiter.
// The limiter implements do.Shutdownable to stop its idle key sweeper.
func ProvideRateLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideAPIServer provides the HTTP handler with every route registered.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	storage := do.MustInvoke[*images.Storage](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)
	registry := do.MustInvoke[*prometheus.Registry](i)

	services := &api.Services{
		Catalog:    do.MustInvoke[*service.CatalogService](i),
		Tags:       do.MustInvoke[*service.TagService](i),
		Aggregates: do.MustInvoke[*service.AggregationService](i),
		Profile:    do.MustInvoke[*service.ProfileService](i),
		Directory:  do.MustInvoke[*service.DirectoryService](i),
	}

	checks := make(map[string]api.HealthCheck)
	for name, check := range HealthChecks(i) {
		checks[name] = check
	}

	return api.NewServer(services, tokens, storage, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     limiter,
		Gatherer:    registry,
		Checks:      checks,
	}, log.Component("api").Logger), nil
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handler := do.MustInvoke[*api.Server](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
