package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/domain"
)

func TestProfile_UpdateCleansAttributes(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "u1", false)

	resp := ts.api.Get("/api/v1/catalogs/u1/profile", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	empty := decode[ProfileResponse](t, resp).Data
	assert.Equal(t, "u1", empty.UserID)
	assert.Empty(t, empty.About)
	assert.Equal(t, testPublicURL+domain.DefaultCoverPath(domain.CoverThumbnail), empty.LogoURL)

	resp = ts.api.Patch("/api/v1/catalogs/u1/profile", auth, map[string]string{
		"about":      "<p>Hello &amp; welcome</p>",
		"url":        "Example.COM/shop",
		"tag_1_name": "Genre",
		"logo":       "ignored",
		"color":      "red",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	p := decode[ProfileResponse](t, resp).Data
	assert.Equal(t, "Hello & welcome", p.About)
	assert.Equal(t, "http://example.com/shop", p.URL)
	assert.Equal(t, map[string]string{"1": "Genre"}, p.GroupNames)
	assert.Empty(t, p.Logo, "logo is not writable through the profile form")

	attrs, err := ts.profiles.GetAttributes(t.Context(), "u1")
	require.NoError(t, err)
	assert.NotContains(t, attrs, "color")

	resp = ts.api.Patch("/api/v1/catalogs/u1/profile", auth, map[string]string{"url": "ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProfile_Logo(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "u1", false)

	resp := ts.api.Put("/api/v1/catalogs/u1/profile/logo", auth, map[string]any{"image": pngBytes(t, 64, 48)})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	p := decode[ProfileResponse](t, resp).Data
	assert.Contains(t, p.Logo, "logo-")
	assert.Contains(t, p.LogoURL, testPublicURL+"/covers/logo-")
	assert.Contains(t, p.LogoURL, "/thumbnail")

	resp = ts.api.Get("/api/v1/catalogs/u1/profile?logo_size=large", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, decode[ProfileResponse](t, resp).Data.LogoURL, "/large")

	resp = ts.api.Put("/api/v1/catalogs/u1/profile/logo", auth, map[string]any{"ref": "https://cdn.example.com/logo.png"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "https://cdn.example.com/logo.png", decode[ProfileResponse](t, resp).Data.LogoURL)

	resp = ts.api.Put("/api/v1/catalogs/u1/profile/logo", auth, map[string]any{"clear": true})
	require.Equal(t, http.StatusOK, resp.Code)
	p = decode[ProfileResponse](t, resp).Data
	assert.Equal(t, testPublicURL+domain.DefaultCoverPath(domain.CoverFull), p.Logo)
	assert.Equal(t, testPublicURL+domain.DefaultCoverPath(domain.CoverThumbnail), p.LogoURL)
}

func TestProfile_LogoValidation(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "u1", false)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"nothing to set", map[string]any{}},
		{"path in ref", map[string]any{"ref": "../etc/passwd"}},
		{"not an image", map[string]any{"image": []byte("plain text")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Put("/api/v1/catalogs/u1/profile/logo", auth, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
		})
	}

	resp := ts.api.Get("/api/v1/catalogs/u1/profile?logo_size=huge", auth)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, string(decode[any](t, resp).Details), "logo_size")
}
