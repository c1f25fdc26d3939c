// Package images stores publication covers and renders their thumbnail sizes.
package images

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shelfwise/catalog-server/internal/domain"
)

// ErrNotFound is returned when a cover rendition does not exist.
var ErrNotFound = errors.New("cover not found")

// Storage manages cover files on disk.
// Layout: {basePath}/{ref}/{size}.jpg, one directory per cover reference.
// Safe for concurrent use.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates the covers directory if needed.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// ValidRef reports whether ref is safe to use as a directory name.
func ValidRef(ref string) bool {
	if ref == "" || ref == "." || ref == ".." {
		return false
	}
	return !strings.ContainsAny(ref, `/\`) && !strings.Contains(ref, "..")
}

// Save writes one rendition of a cover.
func (s *Storage) Save(ref string, size domain.CoverSize, data []byte) error {
	if !ValidRef(ref) {
		return fmt.Errorf("invalid cover reference %q", ref)
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(s.basePath, ref), 0755); err != nil {
		return fmt.Errorf("failed to create cover directory: %w", err)
	}
	if err := os.WriteFile(s.Path(ref, size), data, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Get reads one rendition of a cover.
func (s *Storage) Get(ref string, size domain.CoverSize) ([]byte, error) {
	if !ValidRef(ref) {
		return nil, fmt.Errorf("invalid cover reference %q", ref)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(ref, size))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", ref, size, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists checks whether a rendition is on disk.
func (s *Storage) Exists(ref string, size domain.CoverSize) bool {
	if !ValidRef(ref) {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(ref, size))
	return err == nil
}

// Delete removes every rendition of a cover. Missing covers are not an error.
func (s *Storage) Delete(ref string) error {
	if !ValidRef(ref) {
		return fmt.Errorf("invalid cover reference %q", ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.basePath, ref)); err != nil {
		return fmt.Errorf("failed to delete cover: %w", err)
	}
	return nil
}

// Hash returns the hex SHA256 of a rendition, for ETags.
func (s *Storage) Hash(ref string, size domain.CoverSize) (string, error) {
	data, err := s.Get(ref, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Path returns the filesystem path of a rendition.
func (s *Storage) Path(ref string, size domain.CoverSize) string {
	return filepath.Join(s.basePath, ref, string(size)+".jpg")
}
