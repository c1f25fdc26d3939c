package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/domain"
)

func TestPublications_DirectoryFeedsAggregate(t *testing.T) {
	ts := setupTestServer(t)
	root := ts.bearer(t, "admin", true)
	u1 := ts.bearer(t, "u1", false)

	resp := ts.api.Put("/api/v1/publications/p9", root, map[string]any{
		"name":             "Harbor Press",
		"public":           true,
		"metadata_version": domain.MinCoverMetadataVersion,
		"title":            "Tides",
		"author":           "R. Vale",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Harbor Press", decode[domain.Publication](t, resp).Data.Name)

	resp = ts.api.Get("/api/v1/publications/p9", u1)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Tides", decode[domain.Publication](t, resp).Data.Title)

	resp = ts.api.Get("/api/v1/publications/missing", u1)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Put("/api/v1/publications/p9/members/u1", root, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/catalogs/u1", u1)
	require.Equal(t, http.StatusOK, resp.Code)
	view := decode[domain.AggregatedView](t, resp).Data
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "Tides", view.Entries[0].Title)
	assert.Equal(t, testPublicURL+domain.DefaultCoverPath(domain.CoverSmall), view.Entries[0].CoverURL[domain.CoverSmall])

	// A new cover invalidates the member's cached aggregate.
	resp = ts.api.Put("/api/v1/publications/p9/cover", root, map[string]any{"image": pngBytes(t, 120, 160)})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	ref := decode[CoverResponse](t, resp).Data.Ref
	assert.True(t, strings.HasPrefix(ref, "cover-"), ref)

	resp = ts.api.Get("/api/v1/catalogs/u1", u1)
	require.Equal(t, http.StatusOK, resp.Code)
	view = decode[domain.AggregatedView](t, resp).Data
	require.Len(t, view.Entries, 1)
	assert.Equal(t, testPublicURL+"/covers/"+ref+"/small", view.Entries[0].CoverURL[domain.CoverSmall])

	resp = ts.api.Post("/api/v1/publications/p9/invalidate", root)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decode[InvalidateResponse](t, resp).Data.Users)

	resp = ts.api.Delete("/api/v1/publications/p9/members/u1", root)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/catalogs/u1", u1)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[domain.AggregatedView](t, resp).Data.Entries)
}

func TestPublications_Validation(t *testing.T) {
	ts := setupTestServer(t)
	root := ts.bearer(t, "admin", true)

	resp := ts.api.Put("/api/v1/publications/p1", root, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Put("/api/v1/publications/p1/members/u1", root, map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.Code, "unknown publication")

	ts.publish(t, &domain.Publication{ID: "p1", Name: "Press"})
	resp = ts.api.Put("/api/v1/publications/p1/members/u1", root, map[string]any{"role": "reader"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Put("/api/v1/publications/p1/cover", root, map[string]any{"image": []byte("not an image")})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCovers_Serve(t *testing.T) {
	ts := setupTestServer(t)
	root := ts.bearer(t, "admin", true)

	ts.publish(t, &domain.Publication{ID: "p1", Name: "Press"})
	resp := ts.api.Put("/api/v1/publications/p1/cover", root, map[string]any{"image": pngBytes(t, 80, 80)})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	ref := decode[CoverResponse](t, resp).Data.Ref

	resp = ts.api.Get("/covers/" + ref + "/thumbnail")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
	assert.Equal(t, CacheOneWeek, resp.Header().Get("Cache-Control"))
	etag := resp.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.NotZero(t, resp.Body.Len())

	resp = ts.api.Get("/covers/"+ref+"/thumbnail.jpg", "If-None-Match: "+etag)
	assert.Equal(t, http.StatusNotModified, resp.Code)
	assert.Zero(t, resp.Body.Len())

	resp = ts.api.Get("/covers/" + ref + "/huge")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/covers/cover-missing/thumbnail")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMetrics_Exposed(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "u1", false)

	require.Equal(t, http.StatusOK, ts.api.Get("/api/v1/catalogs/u1", auth).Code)

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "catalog_cache")
}
