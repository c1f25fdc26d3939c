// Package cache holds built aggregate views keyed by user id.
//
// Views are immutable once stored. Callers must not modify a view returned by Get.
package cache

import (
	"fmt"
	"sync"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/metrics"
)

// Backend names accepted by NewBackend.
const (
	BackendMemory    = "memory"
	BackendRistretto = "ristretto"
)

// Backend is the raw key/value storage behind a Cache.
type Backend interface {
	Load(userID string) (*domain.AggregatedView, bool)
	Store(userID string, view *domain.AggregatedView)
	Delete(userID string)
	Close()
}

// AggregateCache is what the aggregation engine depends on.
//
// Generation and SetIfGeneration let a builder take a snapshot before reading
// the stores and publish its result only if no invalidation happened since.
type AggregateCache interface {
	Get(userID string) (*domain.AggregatedView, bool)
	Set(userID string, view *domain.AggregatedView)
	Invalidate(userID string)
	Generation(userID string) uint64
	SetIfGeneration(userID string, view *domain.AggregatedView, gen uint64) bool
}

// Cache guards a Backend with per-user generations so an invalidation always
// wins over a rebuild that started before it.
type Cache struct {
	backend Backend
	metrics metrics.Recorder

	mu   sync.Mutex
	gens map[string]uint64
	next uint64
}

// New wraps backend. A nil recorder disables metrics.
func New(backend Backend, recorder metrics.Recorder) *Cache {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Cache{
		backend: backend,
		metrics: recorder,
		gens:    make(map[string]uint64),
	}
}

// NewBackend builds the backend named by kind.
func NewBackend(kind string, maxCost int64) (Backend, error) {
	switch kind {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendRistretto:
		return NewRistretto(maxCost)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}

// Get returns the stored view for userID.
func (c *Cache) Get(userID string) (*domain.AggregatedView, bool) {
	return c.backend.Load(userID)
}

// Set stores view unconditionally. Last writer wins.
func (c *Cache) Set(userID string, view *domain.AggregatedView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend.Store(userID, view)
}

// Generation returns the current generation for userID.
func (c *Cache) Generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID]
}

// SetIfGeneration stores view only if userID has not been invalidated since gen
// was read. Reports whether the view was stored.
func (c *Cache) SetIfGeneration(userID string, view *domain.AggregatedView, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		c.metrics.RecordStaleSetRejected()
		return false
	}
	c.backend.Store(userID, view)
	return true
}

// Invalidate drops the stored view and bumps the user's generation.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	c.next++
	c.gens[userID] = c.next
	c.backend.Delete(userID)
	c.mu.Unlock()

	c.metrics.RecordInvalidation(metrics.ScopeUser)
}

// Close releases the backend.
func (c *Cache) Close() error {
	c.backend.Close()
	return nil
}

var _ AggregateCache = (*Cache)(nil)
