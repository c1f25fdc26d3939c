package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/id"
	"github.com/shelfwise/catalog-server/internal/normalize"
	"github.com/shelfwise/catalog-server/internal/store"
)

// DirectoryService maintains the publication directory. Publication-level
// changes propagate to every aggregate that can show the publication.
type DirectoryService struct {
	dir      store.PublicationDirectory
	ingester ImageIngester
	cache    Invalidator
	logger   *slog.Logger
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(dir store.PublicationDirectory, ingester ImageIngester, cache Invalidator, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{
		dir:      dir,
		ingester: ingester,
		cache:    cache,
		logger:   logger,
	}
}

// Get returns a publication's directory record.
func (s *DirectoryService) Get(ctx context.Context, publicationID string) (*domain.Publication, error) {
	p, err := s.dir.GetPublication(ctx, publicationID)
	return p, storageErr("get publication", err)
}

// UpsertPublication writes a publication record, minting an id when none is set.
// Text fields are stripped of markup.
func (s *DirectoryService) UpsertPublication(ctx context.Context, p *domain.Publication) (*domain.Publication, error) {
	if p.ID == "" {
		p.ID = id.NewPublicationID()
	}
	p.Name = normalize.Text(p.Name)
	p.Title = normalize.Text(p.Title)
	p.Author = normalize.Text(p.Author)
	p.AboutShort = normalize.Text(p.AboutShort)
	p.AboutMedium = normalize.Text(p.AboutMedium)
	p.AboutLong = normalize.Text(p.AboutLong)
	if p.Name == "" {
		return nil, domainerrors.Validation("publication name is required")
	}

	if err := s.dir.UpsertPublication(ctx, p); err != nil {
		return nil, storageErr("upsert publication", err)
	}
	if _, err := s.cache.InvalidateByPublication(ctx, p.ID); err != nil {
		return nil, err
	}
	s.logger.Info("publication saved", "publication_id", p.ID, "name", p.Name)
	return p, nil
}

// AddMember links a user to a publication. The user's aggregate now discovers it.
func (s *DirectoryService) AddMember(ctx context.Context, publicationID, userID, role string) error {
	if strings.TrimSpace(userID) == "" {
		return domainerrors.Validation("user id is required")
	}
	if _, err := s.dir.GetPublication(ctx, publicationID); err != nil {
		return storageErr("get publication", err)
	}
	err := s.dir.AddPublicationMember(ctx, domain.PublicationMember{
		PublicationID: publicationID,
		UserID:        userID,
		Role:          role,
	})
	if err != nil {
		return storageErr("add publication member", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("publication member added", "publication_id", publicationID, "user_id", userID)
	return nil
}

// RemoveMember unlinks a user from a publication.
func (s *DirectoryService) RemoveMember(ctx context.Context, publicationID, userID string) error {
	if err := s.dir.RemovePublicationMember(ctx, publicationID, userID); err != nil {
		return storageErr("remove publication member", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("publication member removed", "publication_id", publicationID, "user_id", userID)
	return nil
}

// SetCover stores image bytes as the publication's cover.
func (s *DirectoryService) SetCover(ctx context.Context, publicationID string, data []byte) (string, error) {
	if s.ingester == nil {
		return "", domainerrors.Internal("cover uploads are not configured")
	}
	if _, err := s.dir.GetPublication(ctx, publicationID); err != nil {
		return "", storageErr("get publication", err)
	}
	ref, err := id.Generate("cover")
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "generate cover reference")
	}
	res, err := s.ingester.Ingest(ctx, ref, data)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeValidation, "store cover image")
	}
	if err := s.SetCoverRef(ctx, publicationID, ref, res.BlurHash); err != nil {
		return "", err
	}
	return ref, nil
}

// SetCoverRef points a publication at an already stored cover.
func (s *DirectoryService) SetCoverRef(ctx context.Context, publicationID, ref, blurHash string) error {
	if err := s.dir.SetPublicationCover(ctx, publicationID, ref, blurHash); err != nil {
		return storageErr("set publication cover", err)
	}
	if _, err := s.cache.InvalidateByPublication(ctx, publicationID); err != nil {
		return err
	}
	s.logger.Info("publication cover set", "publication_id", publicationID, "cover_ref", ref)
	return nil
}
