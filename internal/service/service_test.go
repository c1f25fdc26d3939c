package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/cache"
	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/publication"
	"github.com/shelfwise/catalog-server/internal/store"
	"github.com/shelfwise/catalog-server/internal/store/sqlite"
)

const testPublicURL = "https://catalog.test"

// recorder counts metric events.
type recorder struct {
	mu            sync.Mutex
	hits, misses  int
	invalidations map[string]int
	stale         int
	builds        int
	fallbacks     map[string]int
}

func newRecorder() *recorder {
	return &recorder{invalidations: map[string]int{}, fallbacks: map[string]int{}}
}

func (r *recorder) RecordCacheHit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *recorder) RecordCacheMiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func (r *recorder) RecordInvalidation(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidations[scope]++
}

func (r *recorder) RecordStaleSetRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func (r *recorder) RecordBuildLatency(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds++
}

func (r *recorder) RecordResolverFallback(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[reason]++
}

func (r *recorder) fallback(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallbacks[reason]
}

func (r *recorder) buildCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builds
}

// harness wires every service over real stores in a temp dir.
type harness struct {
	db        *sqlite.Store
	profiles  *store.Store
	covers    *images.Storage
	processor *images.Processor
	resolver  *publication.Resolver
	cache     *cache.Cache
	metrics   *recorder

	aggregates *AggregationService
	tags       *TagService
	catalog    *CatalogService
	profile    *ProfileService
	directory  *DirectoryService
}

func newHarness(t *testing.T, opts publication.Options) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	profiles, err := store.NewInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = profiles.Close() })

	covers, err := images.NewStorage(filepath.Join(dir, "covers"))
	require.NoError(t, err)
	processor := images.NewProcessor(covers, logger)

	if opts.PublicURL == "" {
		opts.PublicURL = testPublicURL
	}
	resolver := publication.NewResolver(db, covers, opts, logger)

	rec := newRecorder()
	c := cache.New(cache.NewMemory(), rec)

	h := &harness{
		db:        db,
		profiles:  profiles,
		covers:    covers,
		processor: processor,
		resolver:  resolver,
		cache:     c,
		metrics:   rec,
	}
	h.aggregates = NewAggregationService(db, db, resolver, c, rec, domain.DefaultTagGroups, logger)
	h.tags = NewTagService(db, db, db, h.aggregates, domain.DefaultTagGroups, logger)
	h.catalog = NewCatalogService(db, h.tags, h.aggregates, logger)
	h.profile = NewProfileService(profiles, resolver, processor, nil, h.aggregates, domain.DefaultTagGroups, logger)
	h.directory = NewDirectoryService(db, processor, h.aggregates, logger)
	return h
}

// publish creates a publication and links the given owners to it.
func (h *harness) publish(t *testing.T, p *domain.Publication, owners ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.db.UpsertPublication(ctx, p))
	for _, u := range owners {
		require.NoError(t, h.db.AddPublicationMember(ctx, domain.PublicationMember{PublicationID: p.ID, UserID: u}))
	}
}

func pngBytes(t *testing.T, w, hgt int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for x := 0; x < w; x++ {
		for y := 0; y < hgt; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tagTexts(tags []*domain.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Text
	}
	return out
}
