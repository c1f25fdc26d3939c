package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/publication"
)

func TestCatalogService_GetAbsent(t *testing.T) {
	h := newHarness(t, publication.Options{})

	entry, found, err := h.catalog.Get(context.Background(), "u1", "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, entry)
}

func TestCatalogService_UpsertTouchesOnlySuppliedFields(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	require.NoError(t, h.catalog.Upsert(ctx, "u1", "p1", domain.Feature(3)))
	require.NoError(t, h.catalog.SoftDelete(ctx, "u1", "p1"))
	require.NoError(t, h.catalog.Upsert(ctx, "u1", "p1", domain.Restore()))

	entry, found, err := h.catalog.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, entry.Deleted)
	assert.Equal(t, 3, entry.Featured)
}

func TestCatalogService_AddAndRemovePublications(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	require.NoError(t, h.catalog.AddPublications(ctx, "u1", []string{"p1", "p2", "p3"}))
	require.NoError(t, h.catalog.RemovePublications(ctx, "u1", []string{"p2", "missing"}))

	ids, err := h.catalog.ListPublicationIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids)

	// Adding again restores the hidden row in place.
	require.NoError(t, h.catalog.AddPublications(ctx, "u1", []string{"p2"}))
	entries, err := h.catalog.List(ctx, "u1")
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, e.PublicationID)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, got)

	err = h.catalog.AddPublications(ctx, "u1", []string{""})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestCatalogService_HardDeleteIsIdempotent(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	_, err := h.tags.SaveTag(ctx, "gone", "u1", "p1", 1)
	require.NoError(t, err)

	require.NoError(t, h.catalog.HardDelete(ctx, "u1", "p1"))
	require.NoError(t, h.catalog.HardDelete(ctx, "u1", "p1"))
	require.NoError(t, h.catalog.SoftDelete(ctx, "u1", "p1"))

	_, found, err := h.catalog.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, found)

	links, err := h.db.CountLinks(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	assert.Zero(t, links)
}

func TestCatalogService_EditEntry(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	_, err := h.tags.ReplaceTagString(ctx, "u1", "p1", 2, "old")
	require.NoError(t, err)

	featured := 2
	err = h.catalog.EditEntry(ctx, "u1", "p1", &featured, map[int]string{1: "b, a"})
	require.NoError(t, err)

	entry, found, err := h.catalog.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, entry.Featured)

	s, err := h.tags.TagString(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "A, B", s)

	// Group 2 was not submitted, so it is cleared.
	s, err = h.tags.TagString(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	assert.Empty(t, s)

	// Nil featured keeps the rank.
	require.NoError(t, h.catalog.EditEntry(ctx, "u1", "p1", nil, map[int]string{1: "a"}))
	entry, _, err = h.catalog.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Featured)

	err = h.catalog.EditEntry(ctx, "u1", "p1", nil, map[int]string{5: "x"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestCatalogService_DeleteCatalog(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	require.NoError(t, h.catalog.AddPublications(ctx, "u1", []string{"p1", "p2"}))
	require.NoError(t, h.catalog.AddPublications(ctx, "u2", []string{"p1"}))

	n, err := h.catalog.DeleteCatalog(ctx, "u1", false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	entries, err := h.catalog.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, found, err := h.catalog.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, found, "soft delete keeps rows")

	n, err = h.catalog.DeleteCatalog(ctx, "u1", true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, found, err = h.catalog.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, found)

	others, err := h.catalog.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
