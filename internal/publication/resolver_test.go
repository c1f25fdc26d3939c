package publication

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/store"
	"github.com/shelfwise/catalog-server/internal/store/sqlite"
)

func setup(t *testing.T, opts Options) (*Resolver, *sqlite.Store, *images.Storage) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	covers, err := images.NewStorage(filepath.Join(dir, "covers"))
	require.NoError(t, err)

	return NewResolver(db, covers, opts, logger), db, covers
}

func TestResolver_Metadata(t *testing.T) {
	r, db, _ := setup(t, Options{})
	ctx := context.Background()

	require.NoError(t, db.UpsertPublication(ctx, &domain.Publication{
		ID: "p1", Name: "Site One", Public: true, AboutMedium: "abc",
	}))

	md, err := r.ResolveMetadata(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Site One", md.DisplayTitle())
	assert.Equal(t, "abc", md.Synopsis())
	assert.True(t, md.Public)

	_, err = r.ResolveMetadata(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolver_PrimaryContainer(t *testing.T) {
	r, db, _ := setup(t, Options{PrimaryPublication: "network"})
	ctx := context.Background()

	require.NoError(t, db.UpsertPublication(ctx, &domain.Publication{ID: "flagged", Primary: true}))
	require.NoError(t, db.UpsertPublication(ctx, &domain.Publication{ID: "plain"}))

	for id, want := range map[string]bool{"network": true, "flagged": true, "plain": false, "unknown": false} {
		got, err := r.IsPrimaryContainer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func TestResolver_OwnershipList(t *testing.T) {
	r, db, _ := setup(t, Options{})
	ctx := context.Background()

	for _, id := range []string{"p2", "p1"} {
		require.NoError(t, db.UpsertPublication(ctx, &domain.Publication{ID: id, Name: "Name " + id}))
		require.NoError(t, db.AddPublicationMember(ctx, domain.PublicationMember{PublicationID: id, UserID: "u1"}))
	}

	owned, err := r.OwnershipList(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "p2", owned[0].PublicationID)
	assert.Equal(t, "Name p1", owned[1].DisplayName)
}

func TestResolver_Thumbnail(t *testing.T) {
	r, _, covers := setup(t, Options{PublicURL: "https://catalog.example/"})

	_, ok := r.ResolveThumbnail("cover-1", domain.CoverSmall)
	assert.False(t, ok, "no rendition on disk yet")

	require.NoError(t, covers.Save("cover-1", domain.CoverSmall, []byte("jpeg")))
	url, ok := r.ResolveThumbnail("cover-1", domain.CoverSmall)
	require.True(t, ok)
	assert.Equal(t, "https://catalog.example/covers/cover-1/small", url)

	_, ok = r.ResolveThumbnail("../etc", domain.CoverSmall)
	assert.False(t, ok)

	assert.Equal(t, "https://catalog.example/assets/x.jpg", r.AssetURL("/assets/x.jpg"))
	assert.Equal(t, "http://cdn.test/x.jpg", r.AssetURL("http://cdn.test/x.jpg"))
}
