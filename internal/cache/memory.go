package cache

import (
	"sync"

	"github.com/shelfwise/catalog-server/internal/domain"
)

// Memory is a map-backed Backend with no eviction.
type Memory struct {
	mu    sync.RWMutex
	views map[string]*domain.AggregatedView
}

// NewMemory creates an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{views: make(map[string]*domain.AggregatedView)}
}

// Load implements Backend.
func (m *Memory) Load(userID string) (*domain.AggregatedView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[userID]
	return v, ok
}

// Store implements Backend.
func (m *Memory) Store(userID string, view *domain.AggregatedView) {
	m.mu.Lock()
	m.views[userID] = view
	m.mu.Unlock()
}

// Delete implements Backend.
func (m *Memory) Delete(userID string) {
	m.mu.Lock()
	delete(m.views, userID)
	m.mu.Unlock()
}

// Len returns the number of stored views.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.views)
}

// Close implements Backend.
func (m *Memory) Close() {}
