package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/shelfwise/catalog-server/internal/backup"
	"github.com/shelfwise/catalog-server/internal/cache"
	"github.com/shelfwise/catalog-server/internal/config"
	"github.com/shelfwise/catalog-server/internal/logger"
	"github.com/shelfwise/catalog-server/internal/media/covers"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/metrics"
	"github.com/shelfwise/catalog-server/internal/publication"
	"github.com/shelfwise/catalog-server/internal/service"
)

// ProvideRegistry provides the Prometheus registry exposed on /metrics.
// It carries the Go runtime and process collectors next to the catalog metrics.
func ProvideRegistry(i do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

// ProvideMetrics provides the catalog metrics collector.
func ProvideMetrics(i do.Injector) (*metrics.Collector, error) {
	reg := do.MustInvoke[*prometheus.Registry](i)
	return metrics.NewCollector(reg), nil
}

// CacheHandle wraps the aggregate cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the per-user aggregate cache on the configured backend.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	collector := do.MustInvoke[*metrics.Collector](i)

	backend, err := cache.NewBackend(cfg.Cache.Backend, cfg.Cache.MaxCost)
	if err != nil {
		return nil, err
	}

	log.Info("Aggregate cache initialized", "backend", cfg.Cache.Backend, "max_cost", cfg.Cache.MaxCost)
	return &CacheHandle{Cache: cache.New(backend, collector)}, nil
}

// ProvideResolver provides the publication resolver over the directory tables.
func ProvideResolver(i do.Injector) (*publication.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*images.Storage](i)

	return publication.NewResolver(storeHandle.Store, storage, publication.Options{
		PublicURL:          cfg.Server.PublicURL,
		PrimaryPublication: cfg.Catalog.PrimaryPublication,
	}, log.Component("resolver").Logger), nil
}

// ProvideAggregationService provides the aggregation engine.
func ProvideAggregationService(i do.Injector) (*service.AggregationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*publication.Resolver](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	collector := do.MustInvoke[*metrics.Collector](i)

	return service.NewAggregationService(
		storeHandle.Store,
		storeHandle.Store,
		resolver,
		cacheHandle.Cache,
		collector,
		cfg.Catalog.TagGroups,
		log.Component("aggregate").Logger,
	), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregates := do.MustInvoke[*service.AggregationService](i)

	return service.NewTagService(
		storeHandle.Store,
		storeHandle.Store,
		storeHandle.Store,
		aggregates,
		cfg.Catalog.TagGroups,
		log.Component("tags").Logger,
	), nil
}

// ProvideCatalogService provides the catalog entry service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tags := do.MustInvoke[*service.TagService](i)
	aggregates := do.MustInvoke[*service.AggregationService](i)

	return service.NewCatalogService(storeHandle.Store, tags, aggregates, log.Component("catalog").Logger), nil
}

// ProvideProfileService provides the catalog profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	profiles := do.MustInvoke[*ProfileStoreHandle](i)
	resolver := do.MustInvoke[*publication.Resolver](i)
	processor := do.MustInvoke[*images.Processor](i)
	downloader := do.MustInvoke[*covers.Downloader](i)
	aggregates := do.MustInvoke[*service.AggregationService](i)

	return service.NewProfileService(
		profiles.Store,
		resolver,
		processor,
		downloader,
		aggregates,
		cfg.Catalog.TagGroups,
		log.Component("profile").Logger,
	), nil
}

// ProvideDirectoryService provides the publication directory service.
func ProvideDirectoryService(i do.Injector) (*service.DirectoryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	aggregates := do.MustInvoke[*service.AggregationService](i)

	return service.NewDirectoryService(storeHandle.Store, processor, aggregates, log.Component("directory").Logger), nil
}

// ProvideBackupService provides the catalog export and restore service.
func ProvideBackupService(i do.Injector) (*backup.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewService(
		do.MustInvoke[*service.CatalogService](i),
		do.MustInvoke[*service.TagService](i),
		do.MustInvoke[*service.ProfileService](i),
		log.Component("backup").Logger,
	), nil
}
