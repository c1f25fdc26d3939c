// Package publication resolves live publication metadata, ownership and cover
// URLs from the publication directory.
package publication

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/store"
)

// CoversRoute is the HTTP path prefix cover renditions are served under.
const CoversRoute = "/covers"

// Options configures a Resolver.
type Options struct {
	// PublicURL is prefixed to cover links. Empty yields root-relative links.
	PublicURL string
	// PrimaryPublication is treated as the shared container in addition to
	// publications flagged primary in the directory.
	PrimaryPublication string
}

// Resolver answers publication questions by explicit publication id; it holds
// no per-request tenant context.
type Resolver struct {
	dir     store.PublicationDirectory
	covers  *images.Storage
	opts    Options
	logger  *slog.Logger
	baseURL string
}

// NewResolver creates a resolver over the directory and cover storage.
// covers may be nil, in which case every thumbnail lookup is absent.
func NewResolver(dir store.PublicationDirectory, covers *images.Storage, opts Options, logger *slog.Logger) *Resolver {
	return &Resolver{
		dir:     dir,
		covers:  covers,
		opts:    opts,
		logger:  logger,
		baseURL: strings.TrimRight(opts.PublicURL, "/"),
	}
}

// OwnershipList enumerates the publications userID owns, in membership order.
func (r *Resolver) OwnershipList(ctx context.Context, userID string) ([]domain.OwnedPublication, error) {
	return r.dir.ListOwnedPublications(ctx, userID)
}

// Owners returns the users linked to a publication.
func (r *Resolver) Owners(ctx context.Context, publicationID string) ([]string, error) {
	return r.dir.ListPublicationMembers(ctx, publicationID)
}

// IsPrimaryContainer reports whether the publication is the platform's shared container.
func (r *Resolver) IsPrimaryContainer(ctx context.Context, publicationID string) (bool, error) {
	if r.opts.PrimaryPublication != "" && publicationID == r.opts.PrimaryPublication {
		return true, nil
	}
	return r.dir.IsPrimaryPublication(ctx, publicationID)
}

// ResolveMetadata returns the live metadata of a publication.
// Unknown publications yield store.ErrPublicationNotFound.
func (r *Resolver) ResolveMetadata(ctx context.Context, publicationID string) (*domain.PublicationMetadata, error) {
	p, err := r.dir.GetPublication(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	return p.Metadata(), nil
}

// ResolveThumbnail returns the URL of a stored cover rendition, or false when
// that rendition is not on disk.
func (r *Resolver) ResolveThumbnail(ref string, size domain.CoverSize) (string, bool) {
	if r.covers == nil || !images.ValidRef(ref) || !r.covers.Exists(ref, size) {
		return "", false
	}
	return r.CoverURL(ref, size), true
}

// CoverURL builds the public link of a cover rendition without checking it exists.
func (r *Resolver) CoverURL(ref string, size domain.CoverSize) string {
	return r.baseURL + CoversRoute + "/" + url.PathEscape(ref) + "/" + string(size)
}

// AssetURL makes a root-relative asset path absolute under the public URL.
func (r *Resolver) AssetURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return r.baseURL + path
}
