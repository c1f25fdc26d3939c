// Package id generates identifiers for catalog records.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated IDs.
const (
	PrefixTag = "tag"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "tag-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewTagID returns an identifier for a new global tag.
func NewTagID() (string, error) {
	return Generate(PrefixTag)
}

// NewPublicationID returns an identifier for a directory publication.
// Publications are keyed by UUID so ids minted by external systems fit the same column.
func NewPublicationID() string {
	return uuid.NewString()
}
