package backup_test

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/backup"
	"github.com/shelfwise/catalog-server/internal/cache"
	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/publication"
	"github.com/shelfwise/catalog-server/internal/service"
	"github.com/shelfwise/catalog-server/internal/store"
	"github.com/shelfwise/catalog-server/internal/store/sqlite"
)

type fixture struct {
	backup  *backup.Service
	catalog *service.CatalogService
	tags    *service.TagService
	profile *service.ProfileService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	profiles, err := store.NewInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = profiles.Close() })

	resolver := publication.NewResolver(db, nil, publication.Options{PublicURL: "https://catalog.test"}, logger)
	aggregates := service.NewAggregationService(db, db, resolver, cache.New(cache.NewMemory(), nil), nil, domain.DefaultTagGroups, logger)
	tags := service.NewTagService(db, db, db, aggregates, domain.DefaultTagGroups, logger)
	catalog := service.NewCatalogService(db, tags, aggregates, logger)
	profile := service.NewProfileService(profiles, resolver, nil, nil, aggregates, domain.DefaultTagGroups, logger)

	return &fixture{
		backup:  backup.NewService(catalog, tags, profile, logger),
		catalog: catalog,
		tags:    tags,
		profile: profile,
	}
}

func TestExportImport_RestoresUnderAnotherUser(t *testing.T) {
	f := setup(t)
	ctx := t.Context()

	require.NoError(t, f.catalog.AddPublications(ctx, "alice", []string{"p1", "p2"}))
	require.NoError(t, f.catalog.SoftDelete(ctx, "alice", "p2"))
	featured := 4
	require.NoError(t, f.catalog.EditEntry(ctx, "alice", "p1", &featured, map[int]string{1: "mystery, noir", 2: "adults"}))
	_, err := f.profile.SaveProfile(ctx, "alice", map[string]string{"about": "Shelf of Alice", "tag_1_name": "Genre"})
	require.NoError(t, err)
	require.NoError(t, f.profile.SetLogo(ctx, "alice", "https://cdn.example.com/alice.png"))

	var buf bytes.Buffer
	manifest, err := f.backup.Export(ctx, "alice", &buf)
	require.NoError(t, err)
	assert.Equal(t, backup.FormatVersion, manifest.Version)
	assert.Equal(t, backup.Counts{Entries: 2, TagGroups: 2, ProfileAttributes: 3}, manifest.Counts)

	restored, err := f.backup.Import(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", restored.UserID)
	assert.Equal(t, 2, restored.Counts.Entries)
	assert.Equal(t, 2, restored.Counts.TagGroups)

	entries, err := f.catalog.ListAll(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].PublicationID)
	assert.Equal(t, 4, entries[0].Featured)
	assert.False(t, entries[0].Deleted)
	assert.True(t, entries[1].Deleted)

	group1, err := f.tags.TagString(ctx, "bob", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Mystery, Noir", group1)

	p, err := f.profile.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Shelf of Alice", p.About)
	assert.Equal(t, "Genre", p.GroupNames[1])
	assert.Equal(t, "https://cdn.example.com/alice.png", p.Logo)
}

func TestImport_MergesWithLocalRows(t *testing.T) {
	f := setup(t)
	ctx := t.Context()

	require.NoError(t, f.catalog.AddPublications(ctx, "alice", []string{"p1"}))
	var buf bytes.Buffer
	_, err := f.backup.Export(ctx, "alice", &buf)
	require.NoError(t, err)

	require.NoError(t, f.catalog.AddPublications(ctx, "alice", []string{"p9"}))
	_, err = f.tags.ReplaceTagsForGroup(ctx, "alice", "p1", 1, []string{"Local"})
	require.NoError(t, err)

	_, err = f.backup.Import(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "")
	require.NoError(t, err)

	ids, err := f.catalog.ListPublicationIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p9"}, ids, "local rows missing from the archive are kept")

	// The archive had no tags for p1, so the local group is untouched.
	s, err := f.tags.TagString(ctx, "alice", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Local", s)
}

func TestImport_RejectsBadArchives(t *testing.T) {
	f := setup(t)
	ctx := t.Context()

	archive := func(files map[string]string) []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for name, body := range files {
			w, err := zw.Create(name)
			require.NoError(t, err)
			_, err = w.Write([]byte(body))
			require.NoError(t, err)
		}
		require.NoError(t, zw.Close())
		return buf.Bytes()
	}

	tests := []struct {
		name  string
		data  []byte
		match error
	}{
		{"no manifest", archive(map[string]string{"entries.jsonl": ""}), backup.ErrInvalidManifest},
		{"garbled manifest", archive(map[string]string{"manifest.json": "{"}), backup.ErrInvalidManifest},
		{"future version", archive(map[string]string{"manifest.json": `{"version":"2.0","user_id":"alice"}`}), backup.ErrVersionMismatch},
		{"no user", archive(map[string]string{"manifest.json": `{"version":"1.0"}`}), backup.ErrInvalidManifest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.backup.Import(ctx, bytes.NewReader(tt.data), int64(len(tt.data)), "")
			assert.ErrorIs(t, err, tt.match)
		})
	}

	_, err := f.backup.Import(ctx, bytes.NewReader([]byte("not a zip")), 9, "alice")
	assert.Error(t, err)
}
