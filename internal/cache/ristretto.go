package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/shelfwise/catalog-server/internal/domain"
)

// DefaultMaxCost bounds the ristretto backend when no cost is configured.
// Every view costs 1, so this is a count of cached users.
const DefaultMaxCost = 10_000

// Ristretto is a bounded Backend. Admission may reject a Store, which only
// costs a later rebuild.
type Ristretto struct {
	cache *ristretto.Cache[string, *domain.AggregatedView]
}

// NewRistretto creates a ristretto backend holding up to maxCost views.
func NewRistretto(maxCost int64) (*Ristretto, error) {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *domain.AggregatedView]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		// Views cost 1 each; ristretto's per-item overhead would otherwise
		// dominate and shrink capacity to a handful of users.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Ristretto{cache: c}, nil
}

// Load implements Backend.
func (r *Ristretto) Load(userID string) (*domain.AggregatedView, bool) {
	return r.cache.Get(userID)
}

// Store implements Backend. Wait makes the write visible to the next Load.
func (r *Ristretto) Store(userID string, view *domain.AggregatedView) {
	r.cache.Set(userID, view, 1)
	r.cache.Wait()
}

// Delete implements Backend.
func (r *Ristretto) Delete(userID string) {
	r.cache.Del(userID)
}

// Close implements Backend.
func (r *Ristretto) Close() {
	r.cache.Close()
}
