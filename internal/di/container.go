// Package di provides dependency injection configuration for the catalog server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfwise/catalog-server/internal/config"
	"github.com/shelfwise/catalog-server/internal/di/providers"
	"github.com/shelfwise/catalog-server/internal/logger"
	"github.com/shelfwise/catalog-server/internal/ratelimit"
	"github.com/shelfwise/catalog-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command line flags handed to the config loader.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, providers.Args(args))
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideProfileStore)
	do.Provide(injector, providers.ProvideCoverStorage)
	do.Provide(injector, providers.ProvideImageProcessor)
	do.Provide(injector, providers.ProvideCoverDownloader)

	// Metrics and cache
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideCache)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideAggregationService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideDirectoryService)
	do.Provide(injector, providers.ProvideBackupService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)

	if err := BootstrapServices(injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}

// BootstrapServices opens the stores and builds the catalog services without
// starting the HTTP server.
func BootstrapServices(injector *do.RootScope) error {
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ProfileStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*service.AggregationService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.DirectoryService](injector)

	return nil
}
