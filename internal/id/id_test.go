package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestNewTagID_Format(t *testing.T) {
	id, err := NewTagID()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(id, PrefixTag+"-"))
	nanoidPart := strings.TrimPrefix(id, PrefixTag+"-")
	assert.Len(t, nanoidPart, 21, "NanoID part should be 21 characters")

	for _, char := range nanoidPart {
		assert.True(t,
			(char >= 'A' && char <= 'Z') ||
				(char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9') ||
				char == '_' || char == '-',
			"Character %c should be URL-safe", char)
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("test")

	assert.True(t, strings.HasPrefix(id, "test-"))
	assert.Equal(t, len("test")+1+21, len(id))
}

func TestNewPublicationID_IsUUID(t *testing.T) {
	a := NewPublicationID()
	b := NewPublicationID()

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("bench")
	}
}
