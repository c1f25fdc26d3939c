package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/domain"
)

type countingRecorder struct {
	mu            sync.Mutex
	stale         int
	invalidations map[string]int
}

func (r *countingRecorder) RecordCacheHit() {}

func (r *countingRecorder) RecordCacheMiss() {}

func (r *countingRecorder) RecordInvalidation(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.invalidations == nil {
		r.invalidations = map[string]int{}
	}
	r.invalidations[scope]++
}

func (r *countingRecorder) RecordStaleSetRejected() {
	r.mu.Lock()
	r.stale++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordBuildLatency(time.Duration) {}

func (r *countingRecorder) RecordResolverFallback(string) {}

func view(user string, pubs ...string) *domain.AggregatedView {
	v := &domain.AggregatedView{UserID: user}
	for _, p := range pubs {
		v.Entries = append(v.Entries, domain.AggregatedEntry{
			ID:            domain.AggregateID(user, p),
			UserID:        user,
			PublicationID: p,
		})
	}
	return v
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	r, err := NewRistretto(100)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return map[string]Backend{
		BackendMemory:    NewMemory(),
		BackendRistretto: r,
	}
}

func TestCache_SetGetInvalidate(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := New(b, nil)

			_, ok := c.Get("u1")
			assert.False(t, ok)

			c.Set("u1", view("u1", "p1"))
			got, ok := c.Get("u1")
			require.True(t, ok)
			assert.Equal(t, "p1", got.Entries[0].PublicationID)

			c.Invalidate("u1")
			_, ok = c.Get("u1")
			assert.False(t, ok)
		})
	}
}

func TestCache_InvalidateBeatsInFlightSet(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := &countingRecorder{}
			c := New(b, rec)

			gen := c.Generation("u1")
			// Rebuild starts, a mutation invalidates before it publishes.
			c.Invalidate("u1")

			stored := c.SetIfGeneration("u1", view("u1", "stale"), gen)
			assert.False(t, stored)
			_, ok := c.Get("u1")
			assert.False(t, ok, "stale rebuild must not be visible")
			assert.Equal(t, 1, rec.stale)

			gen = c.Generation("u1")
			assert.True(t, c.SetIfGeneration("u1", view("u1", "fresh"), gen))
			got, ok := c.Get("u1")
			require.True(t, ok)
			assert.Equal(t, "fresh", got.Entries[0].PublicationID)
		})
	}
}

func TestCache_GenerationsArePerUser(t *testing.T) {
	c := New(NewMemory(), nil)

	genA := c.Generation("a")
	c.Invalidate("b")
	assert.True(t, c.SetIfGeneration("a", view("a", "p"), genA))

	genB := c.Generation("b")
	assert.NotZero(t, genB)
	c.Invalidate("b")
	assert.NotEqual(t, genB, c.Generation("b"), "generations only move forward")
}

func TestCache_InvalidateRecordsScope(t *testing.T) {
	rec := &countingRecorder{}
	c := New(NewMemory(), rec)

	c.Invalidate("u1")
	c.Invalidate("u1")
	assert.Equal(t, 2, rec.invalidations["user"])
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(NewMemory(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			gen := c.Generation("u1")
			c.SetIfGeneration("u1", view("u1", "p1"), gen)
		}()
		go func() {
			defer wg.Done()
			c.Invalidate("u1")
		}()
		go func() {
			defer wg.Done()
			c.Get("u1")
		}()
	}
	wg.Wait()

	// A final invalidate always leaves the cache empty.
	c.Invalidate("u1")
	_, ok := c.Get("u1")
	assert.False(t, ok)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("", 0)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = NewBackend(BackendRistretto, 0)
	require.NoError(t, err)
	assert.IsType(t, &Ristretto{}, b)
	b.Close()

	_, err = NewBackend("redis", 0)
	assert.Error(t, err)
}

func TestRistretto_HoldsMaxCostViews(t *testing.T) {
	const users = 100
	r, err := NewRistretto(users)
	require.NoError(t, err)
	t.Cleanup(r.Close)

	for i := range users {
		user := fmt.Sprintf("u%d", i)
		r.Store(user, view(user, "p1"))
	}

	kept := 0
	for i := range users {
		if _, ok := r.Load(fmt.Sprintf("u%d", i)); ok {
			kept++
		}
	}
	// Admission is probabilistic, so require most rather than all.
	assert.GreaterOrEqual(t, kept, users*9/10, "kept %d of %d views", kept, users)
}
