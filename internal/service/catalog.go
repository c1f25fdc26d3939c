package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/store"
)

// CatalogService manages the explicit catalog rows. Every mutation invalidates
// the user's cached aggregate.
type CatalogService struct {
	catalog store.CatalogStore
	tags    *TagService
	cache   Invalidator
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(catalog store.CatalogStore, tags *TagService, cache Invalidator, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		tags:    tags,
		cache:   cache,
		logger:  logger,
	}
}

// List returns the user's non-deleted entries in row order.
func (s *CatalogService) List(ctx context.Context, userID string) ([]*domain.CatalogEntry, error) {
	entries, err := s.catalog.ListEntries(ctx, userID)
	return entries, storageErr("list catalog entries", err)
}

// ListAll returns every row of the user, including soft-deleted ones.
func (s *CatalogService) ListAll(ctx context.Context, userID string) ([]*domain.CatalogEntry, error) {
	entries, err := s.catalog.ListAllEntries(ctx, userID)
	return entries, storageErr("list all catalog entries", err)
}

// ListPublicationIDs returns the publication ids of the user's non-deleted entries.
func (s *CatalogService) ListPublicationIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.catalog.ListPublicationIDs(ctx, userID)
	return ids, storageErr("list publication ids", err)
}

// Get returns one entry. Absence is reported through found, not as an error.
func (s *CatalogService) Get(ctx context.Context, userID, publicationID string) (*domain.CatalogEntry, bool, error) {
	entry, err := s.catalog.GetEntry(ctx, userID, publicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr("get catalog entry", err)
	}
	return entry, true, nil
}

// Upsert inserts or updates one entry, touching only the supplied fields.
func (s *CatalogService) Upsert(ctx context.Context, userID, publicationID string, fields domain.EntryFields) error {
	if err := s.catalog.UpsertEntry(ctx, userID, publicationID, fields); err != nil {
		return storageErr("upsert catalog entry", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	return nil
}

// SoftDelete hides an entry. Absent rows are not an error.
func (s *CatalogService) SoftDelete(ctx context.Context, userID, publicationID string) error {
	if err := s.catalog.SoftDeleteEntry(ctx, userID, publicationID); err != nil {
		return storageErr("soft delete catalog entry", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("catalog entry hidden", "user_id", userID, "publication_id", publicationID)
	return nil
}

// HardDelete removes an entry and its tag links. Callers restrict it to root.
func (s *CatalogService) HardDelete(ctx context.Context, userID, publicationID string) error {
	if err := s.catalog.HardDeleteEntry(ctx, userID, publicationID); err != nil {
		return storageErr("hard delete catalog entry", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("catalog entry removed", "user_id", userID, "publication_id", publicationID)
	return nil
}

// AddPublications curates publications into the catalog, restoring hidden ones.
func (s *CatalogService) AddPublications(ctx context.Context, userID string, publicationIDs []string) error {
	if len(publicationIDs) == 0 {
		return nil
	}
	defer s.cache.InvalidateUser(ctx, userID)

	for _, pubID := range publicationIDs {
		if pubID == "" {
			return domainerrors.Validation("publication id is required")
		}
		if err := s.catalog.UpsertEntry(ctx, userID, pubID, domain.Restore()); err != nil {
			return storageErr("add publication", err)
		}
	}
	s.logger.Info("publications added", "user_id", userID, "count", len(publicationIDs))
	return nil
}

// RemovePublications soft-deletes publications from the catalog.
func (s *CatalogService) RemovePublications(ctx context.Context, userID string, publicationIDs []string) error {
	if len(publicationIDs) == 0 {
		return nil
	}
	defer s.cache.InvalidateUser(ctx, userID)

	for _, pubID := range publicationIDs {
		if err := s.catalog.SoftDeleteEntry(ctx, userID, pubID); err != nil {
			return storageErr("remove publication", err)
		}
	}
	s.logger.Info("publications removed", "user_id", userID, "count", len(publicationIDs))
	return nil
}

// EditEntry applies the edit form of one entry: the featured rank, then every
// tag group replaced from its delimiter string. A group missing from tagStrings
// is cleared. A nil featured leaves the rank untouched.
func (s *CatalogService) EditEntry(ctx context.Context, userID, publicationID string, featured *int, tagStrings map[int]string) error {
	for g := range tagStrings {
		if err := s.tags.ValidateGroup(g); err != nil {
			return err
		}
	}
	defer s.cache.InvalidateUser(ctx, userID)

	fields := domain.EntryFields{}
	if featured != nil {
		fields = domain.Feature(*featured)
	}
	if err := s.catalog.UpsertEntry(ctx, userID, publicationID, fields); err != nil {
		return storageErr("upsert catalog entry", err)
	}

	for g := 1; g <= s.tags.Groups(); g++ {
		if _, err := s.tags.ReplaceTagString(ctx, userID, publicationID, g, tagStrings[g]); err != nil {
			return err
		}
	}

	s.logger.Info("catalog entry edited",
		"user_id", userID,
		"publication_id", publicationID,
		"groups", s.tags.Groups(),
	)
	return nil
}

// DeleteCatalog hides or (hard) removes every entry of the user.
func (s *CatalogService) DeleteCatalog(ctx context.Context, userID string, hard bool) (int64, error) {
	n, err := s.catalog.DeleteCatalog(ctx, userID, hard)
	if err != nil {
		return 0, storageErr("delete catalog", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("catalog deleted", "user_id", userID, "hard", hard, "entries", n)
	return n, nil
}
