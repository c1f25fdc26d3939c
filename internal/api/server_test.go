package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/auth"
	"github.com/shelfwise/catalog-server/internal/cache"
	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/metrics"
	"github.com/shelfwise/catalog-server/internal/publication"
	"github.com/shelfwise/catalog-server/internal/service"
	"github.com/shelfwise/catalog-server/internal/store"
	"github.com/shelfwise/catalog-server/internal/store/sqlite"
)

const testPublicURL = "https://catalog.test"

// testServer wraps the API server over real stores in a temp dir.
type testServer struct {
	*Server
	api      humatest.TestAPI
	tokens   *auth.TokenService
	db       *sqlite.Store
	profiles *store.Store
	registry *prometheus.Registry
}

// testEnvelope mirrors the response envelope with a typed payload.
type testEnvelope[T any] struct {
	V       int             `json:"v"`
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func setupTestServer(t *testing.T) *testServer {
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

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	resolver := publication.NewResolver(db, covers, publication.Options{PublicURL: testPublicURL}, logger)
	aggregates := service.NewAggregationService(db, db, resolver, cache.New(cache.NewMemory(), collector), collector, domain.DefaultTagGroups, logger)
	tags := service.NewTagService(db, db, db, aggregates, domain.DefaultTagGroups, logger)
	services := &Services{
		Catalog:    service.NewCatalogService(db, tags, aggregates, logger),
		Tags:       tags,
		Aggregates: aggregates,
		Profile:    service.NewProfileService(profiles, resolver, processor, nil, aggregates, domain.DefaultTagGroups, logger),
		Directory:  service.NewDirectoryService(db, processor, aggregates, logger),
	}

	s := NewServer(services, tokens, covers, Options{
		Gatherer: registry,
		Checks: map[string]HealthCheck{
			"sqlite":   func(context.Context) error { return db.Ping() },
			"profiles": profiles.Ping,
		},
	}, logger)

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.API()),
		tokens:   tokens,
		db:       db,
		profiles: profiles,
		registry: registry,
	}
}

// bearer returns an Authorization header line for userID.
func (ts *testServer) bearer(t *testing.T, userID string, root bool) string {
	t.Helper()
	token, err := ts.tokens.GenerateAccessToken(userID, root)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

// publish creates a publication and links the given owners to it.
func (ts *testServer) publish(t *testing.T, p *domain.Publication, owners ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, ts.db.UpsertPublication(ctx, p))
	for _, u := range owners {
		require.NoError(t, ts.db.AddPublicationMember(ctx, domain.PublicationMember{PublicationID: p.ID, UserID: u, Role: "owner"}))
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
