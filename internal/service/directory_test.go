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

func TestDirectoryService_UpsertMintsID(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	p, err := h.directory.UpsertPublication(ctx, &domain.Publication{Name: "<i>Press</i>", Title: "Book"})
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	assert.Equal(t, "Press", p.Name)

	got, err := h.directory.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Title)

	_, err = h.directory.UpsertPublication(ctx, &domain.Publication{Name: "  "})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = h.directory.Get(ctx, "missing")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestDirectoryService_MembershipSurfacesInAggregate(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	p, err := h.directory.UpsertPublication(ctx, &domain.Publication{Name: "Mine"})
	require.NoError(t, err)
	other, err := h.directory.UpsertPublication(ctx, &domain.Publication{Name: "Other"})
	require.NoError(t, err)

	require.NoError(t, h.directory.AddMember(ctx, other.ID, "u1", ""))
	view, err := h.aggregates.GetAggregate(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)

	require.NoError(t, h.directory.AddMember(ctx, p.ID, "u1", "editor"))
	view, err = h.aggregates.GetAggregate(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, view.Entries, 2)

	require.NoError(t, h.directory.RemoveMember(ctx, p.ID, "u1"))
	view, err = h.aggregates.GetAggregate(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, view.Entries, 1)

	err = h.directory.AddMember(ctx, "missing", "u1", "")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestDirectoryService_SetCoverPropagates(t *testing.T) {
	h := newHarness(t, publication.Options{})
	ctx := context.Background()

	p, err := h.directory.UpsertPublication(ctx, &domain.Publication{Name: "Covered", MetadataVersion: 7})
	require.NoError(t, err)
	require.NoError(t, h.catalog.AddPublications(ctx, "u1", []string{p.ID}))

	view, err := h.aggregates.GetAggregate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, testPublicURL+domain.DefaultCoverPath(domain.CoverFull), view.Entries[0].CoverURL[domain.CoverFull])

	ref, err := h.directory.SetCover(ctx, p.ID, pngBytes(t, 200, 300))
	require.NoError(t, err)

	view, err = h.aggregates.GetAggregate(ctx, "u1")
	require.NoError(t, err)
	e := view.Entries[0]
	assert.Equal(t, testPublicURL+"/covers/"+ref+"/full", e.CoverURL[domain.CoverFull])
	assert.Equal(t, testPublicURL+"/covers/"+ref+"/thumbnail", e.CoverURL[domain.CoverThumbnail])
	assert.NotEmpty(t, e.CoverBlurHash)

	_, err = h.directory.SetCover(ctx, "missing", pngBytes(t, 10, 10))
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}
