// Package metrics collects and exposes Prometheus metrics for the catalog cache
// and aggregate builds.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the cache and aggregation layers report to.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordInvalidation(scope string)
	RecordStaleSetRejected()
	RecordBuildLatency(d time.Duration)
	RecordResolverFallback(reason string)
}

// Invalidation scopes.
const (
	ScopeUser        = "user"
	ScopePublication = "publication"
)

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	invalidations    *prometheus.CounterVec
	staleSets        prometheus.Counter
	buildLatency     prometheus.Histogram
	resolverFallback *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Aggregate cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Aggregate cache misses, including empty cached views.",
		}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_cache_invalidations_total",
			Help: "Aggregate cache invalidations by scope.",
		}, []string{"scope"}),
		staleSets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_stale_sets_rejected_total",
			Help: "Rebuilt views discarded because an invalidation happened during the build.",
		}),
		buildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_aggregate_build_seconds",
			Help:    "Time spent building a user's aggregate view.",
			Buckets: prometheus.DefBuckets,
		}),
		resolverFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_resolver_fallbacks_total",
			Help: "Publication lookups that fell back to default values.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.cacheHits,
		c.cacheMisses,
		c.invalidations,
		c.staleSets,
		c.buildLatency,
		c.resolverFallback,
	)
	return c
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss counts a cache miss.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }

// RecordInvalidation counts an invalidation in the given scope.
func (c *Collector) RecordInvalidation(scope string) {
	c.invalidations.WithLabelValues(scope).Inc()
}

// RecordStaleSetRejected counts a rebuild that lost to an invalidation.
func (c *Collector) RecordStaleSetRejected() { c.staleSets.Inc() }

// RecordBuildLatency observes one aggregate build.
func (c *Collector) RecordBuildLatency(d time.Duration) {
	c.buildLatency.Observe(d.Seconds())
}

// RecordResolverFallback counts a degraded publication lookup.
func (c *Collector) RecordResolverFallback(reason string) {
	c.resolverFallback.WithLabelValues(reason).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordCacheHit() {}
func (Noop) RecordCacheMiss() {}
func (Noop) RecordInvalidation(string) {}
func (Noop) RecordStaleSetRejected() {}
func (Noop) RecordBuildLatency(time.Duration) {}
func (Noop) RecordResolverFallback(string) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)
