package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/catalog-server/internal/domain"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(filepath.Join(t.TempDir(), "covers"))
	require.NoError(t, err)
	return storage
}

func TestNewStorage(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "nested", "covers")
		storage, err := NewStorage(base)
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorage("")
		assert.Error(t, err)
		assert.Nil(t, storage)
	})
}

func TestStorage_SaveGetDelete(t *testing.T) {
	storage := setupTestStorage(t)
	data := []byte("jpeg bytes")

	require.NoError(t, storage.Save("cover-1", domain.CoverSmall, data))
	assert.True(t, storage.Exists("cover-1", domain.CoverSmall))
	assert.False(t, storage.Exists("cover-1", domain.CoverMedium))

	got, err := storage.Get("cover-1", domain.CoverSmall)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	hash, err := storage.Hash("cover-1", domain.CoverSmall)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	require.NoError(t, storage.Delete("cover-1"))
	assert.False(t, storage.Exists("cover-1", domain.CoverSmall))
	require.NoError(t, storage.Delete("cover-1"), "deleting a missing cover is fine")

	_, err = storage.Get("cover-1", domain.CoverSmall)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_RejectsUnsafeRefs(t *testing.T) {
	storage := setupTestStorage(t)

	for _, ref := range []string{"", ".", "..", "../etc", "a/b", `a\b`} {
		assert.False(t, ValidRef(ref), ref)
		assert.Error(t, storage.Save(ref, domain.CoverFull, []byte("x")), ref)
		assert.False(t, storage.Exists(ref, domain.CoverFull), ref)
	}
	assert.Error(t, storage.Save("ok", domain.CoverFull, nil), "empty data")
}

func TestStorage_Path(t *testing.T) {
	storage := setupTestStorage(t)
	assert.Equal(t, filepath.Join(storage.basePath, "cover-9", "thumbnail.jpg"), storage.Path("cover-9", domain.CoverThumbnail))
}
