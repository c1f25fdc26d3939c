// Package store defines the persistence interfaces of the catalog server and
// the Badger-backed profile attribute store.
package store

import (
	"context"

	"github.com/shelfwise/catalog-server/internal/domain"
)

// CatalogStore holds the explicit (user, publication) membership rows.
type CatalogStore interface {
	ListEntries(ctx context.Context, userID string) ([]*domain.CatalogEntry, error)
	ListAllEntries(ctx context.Context, userID string) ([]*domain.CatalogEntry, error)
	GetEntry(ctx context.Context, userID, publicationID string) (*domain.CatalogEntry, error)
	UpsertEntry(ctx context.Context, userID, publicationID string, fields domain.EntryFields) error
	SoftDeleteEntry(ctx context.Context, userID, publicationID string) error
	HardDeleteEntry(ctx context.Context, userID, publicationID string) error
	DeleteCatalog(ctx context.Context, userID string, hard bool) (int64, error)

	ListPublicationIDs(ctx context.Context, userID string) ([]string, error)
	UsersForPublication(ctx context.Context, publicationID string) ([]string, error)
	ListEntriesByTag(ctx context.Context, userID string, group int, tagID string) ([]*domain.CatalogEntry, error)
}

// TagStore owns global tag identity. Text is unique and immutable.
type TagStore interface {
	GetTagByID(ctx context.Context, tagID string) (*domain.Tag, error)
	GetTagByText(ctx context.Context, text string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	FindOrCreateTag(ctx context.Context, text, createdBy string) (*domain.Tag, bool, error)
	DeleteTag(ctx context.Context, tagID string) (bool, error)
	PurgeOrphanTags(ctx context.Context) (int64, error)
	CountTags(ctx context.Context) (int, error)
}

// TagLinkStore associates tags with (user, publication, group).
type TagLinkStore interface {
	LinkTag(ctx context.Context, link domain.TagLink) error
	UnlinkTag(ctx context.Context, link domain.TagLink) (bool, error)
	ClearTagGroup(ctx context.Context, userID, publicationID string, group int) (int64, error)
	TagsForEntry(ctx context.Context, userID, publicationID string, group int) ([]*domain.Tag, error)
	TagsForUser(ctx context.Context, userID string, group int, includeHidden bool) ([]domain.TagUsage, error)
	CountLinks(ctx context.Context, userID, publicationID string, group int) (int, error)
	UsersForTag(ctx context.Context, tagID string) ([]string, error)
}

// PublicationDirectory is the relational record of publications and who owns them.
type PublicationDirectory interface {
	UpsertPublication(ctx context.Context, p *domain.Publication) error
	GetPublication(ctx context.Context, publicationID string) (*domain.Publication, error)
	SetPublicationCover(ctx context.Context, publicationID, coverRef, blurHash string) error
	IsPrimaryPublication(ctx context.Context, publicationID string) (bool, error)
	AddPublicationMember(ctx context.Context, m domain.PublicationMember) error
	RemovePublicationMember(ctx context.Context, publicationID, userID string) error
	ListOwnedPublications(ctx context.Context, userID string) ([]domain.OwnedPublication, error)
	ListPublicationMembers(ctx context.Context, publicationID string) ([]string, error)
}

// ProfileStore is the per-user key/value attribute store.
type ProfileStore interface {
	GetAttributes(ctx context.Context, userID string) (map[string]string, error)
	GetAttribute(ctx context.Context, userID, name string) (string, error)
	SetAttributes(ctx context.Context, userID string, attrs map[string]string) error
	DeleteAttribute(ctx context.Context, userID, name string) error
	DeleteAttributes(ctx context.Context, userID string) (int, error)
}

var _ ProfileStore = (*Store)(nil)
