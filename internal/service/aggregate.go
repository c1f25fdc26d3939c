package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shelfwise/catalog-server/internal/cache"
	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/metrics"
	"github.com/shelfwise/catalog-server/internal/store"
)

// PublicationResolver supplies live publication data by explicit publication id.
type PublicationResolver interface {
	OwnershipList(ctx context.Context, userID string) ([]domain.OwnedPublication, error)
	Owners(ctx context.Context, publicationID string) ([]string, error)
	IsPrimaryContainer(ctx context.Context, publicationID string) (bool, error)
	ResolveMetadata(ctx context.Context, publicationID string) (*domain.PublicationMetadata, error)
	ResolveThumbnail(ref string, size domain.CoverSize) (string, bool)
	AssetURL(path string) string
}

// Invalidator drops cached aggregates. Every mutating service calls it.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string)
	InvalidateByPublication(ctx context.Context, publicationID string) (int, error)
}

// Fallback reasons reported to metrics.
const (
	fallbackMetadata  = "metadata"
	fallbackCover     = "cover"
	fallbackTags      = "tags"
	fallbackOwnership = "ownership"
	fallbackPrimary   = "primary"
)

// AggregationService builds and caches each user's aggregated catalog view.
type AggregationService struct {
	catalog  store.CatalogStore
	links    store.TagLinkStore
	resolver PublicationResolver
	cache    cache.AggregateCache
	metrics  metrics.Recorder
	groups   int
	logger   *slog.Logger

	flights singleflight.Group
}

// NewAggregationService creates the aggregation engine.
func NewAggregationService(
	catalog store.CatalogStore,
	links store.TagLinkStore,
	resolver PublicationResolver,
	aggregates cache.AggregateCache,
	recorder metrics.Recorder,
	groups int,
	logger *slog.Logger,
) *AggregationService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if groups < 1 {
		groups = domain.DefaultTagGroups
	}
	return &AggregationService{
		catalog:  catalog,
		links:    links,
		resolver: resolver,
		cache:    aggregates,
		metrics:  recorder,
		groups:   groups,
		logger:   logger,
	}
}

// GetAggregate returns the user's view, from cache when a non-empty one is held.
func (s *AggregationService) GetAggregate(ctx context.Context, userID string) (*domain.AggregatedView, error) {
	if view, ok := s.cache.Get(userID); ok && !view.Empty() {
		s.metrics.RecordCacheHit()
		return view, nil
	}
	s.metrics.RecordCacheMiss()

	// Callers arriving after an invalidation get a new generation and so a new flight.
	gen := s.cache.Generation(userID)
	key := userID + "#" + strconv.FormatUint(gen, 10)

	v, err, _ := s.flights.Do(key, func() (any, error) {
		view, degraded, err := s.build(context.WithoutCancel(ctx), userID)
		if err != nil {
			return nil, err
		}
		if !degraded && !view.Empty() {
			s.cache.SetIfGeneration(userID, view, gen)
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AggregatedView), nil
}

// Build assembles the view without consulting or filling the cache.
func (s *AggregationService) Build(ctx context.Context, userID string) (*domain.AggregatedView, error) {
	view, _, err := s.build(ctx, userID)
	return view, err
}

// InvalidateUser drops the cached view of one user.
func (s *AggregationService) InvalidateUser(_ context.Context, userID string) {
	s.cache.Invalidate(userID)
}

// InvalidateByPublication drops the views of every user whose aggregate can
// name the publication: users with a catalog row for it and its owners.
// Returns the number of users invalidated.
func (s *AggregationService) InvalidateByPublication(ctx context.Context, publicationID string) (int, error) {
	users, err := s.catalog.UsersForPublication(ctx, publicationID)
	if err != nil {
		return 0, storageErr("users for publication", err)
	}
	owners, err := s.resolver.Owners(ctx, publicationID)
	if err != nil {
		s.logger.Warn("failed to list publication owners",
			"publication_id", publicationID,
			"error", err,
		)
	}

	seen := make(map[string]struct{}, len(users)+len(owners))
	for _, u := range append(users, owners...) {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		s.cache.Invalidate(u)
	}
	s.metrics.RecordInvalidation(metrics.ScopePublication)

	s.logger.Info("invalidated aggregates for publication",
		"publication_id", publicationID,
		"users", len(seen),
	)
	return len(seen), nil
}

// source is one publication feeding the aggregate: either a curated catalog
// row or a publication discovered through ownership.
type source interface {
	publicationID() string
	status() (deleted bool, featured int)
	displayName() string
}

type curated struct{ entry *domain.CatalogEntry }

func (c curated) publicationID() string { return c.entry.PublicationID }
func (c curated) status() (bool, int) { return c.entry.Deleted, c.entry.Featured }
func (c curated) displayName() string { return "" }

type discovered struct{ owned domain.OwnedPublication }

func (d discovered) publicationID() string { return d.owned.PublicationID }
func (d discovered) status() (bool, int) { return true, 0 }
func (d discovered) displayName() string { return d.owned.DisplayName }

// build merges curated rows with discovered publications. degraded reports
// that some lookup failed transiently, so the result should not be cached.
func (s *AggregationService) build(ctx context.Context, userID string) (view *domain.AggregatedView, degraded bool, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordBuildLatency(time.Since(start)) }()

	entries, err := s.catalog.ListEntries(ctx, userID)
	if err != nil {
		return nil, false, storageErr("list catalog entries", err)
	}

	sources := make([]source, 0, len(entries))
	covered := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		sources = append(sources, curated{entry: e})
		covered[e.PublicationID] = struct{}{}
	}

	owned, err := s.resolver.OwnershipList(ctx, userID)
	if err != nil {
		s.logger.Warn("ownership lookup failed, aggregate limited to curated entries",
			"user_id", userID,
			"error", err,
		)
		s.metrics.RecordResolverFallback(fallbackOwnership)
		degraded = true
	}
	for _, o := range owned {
		if _, ok := covered[o.PublicationID]; ok {
			continue
		}
		primary, err := s.resolver.IsPrimaryContainer(ctx, o.PublicationID)
		if err != nil {
			s.logger.Warn("primary container check failed, skipping publication",
				"user_id", userID,
				"publication_id", o.PublicationID,
				"error", err,
			)
			s.metrics.RecordResolverFallback(fallbackPrimary)
			degraded = true
			continue
		}
		if primary {
			continue
		}
		covered[o.PublicationID] = struct{}{}
		sources = append(sources, discovered{owned: o})
	}

	view = &domain.AggregatedView{
		UserID:  userID,
		Entries: make([]domain.AggregatedEntry, 0, len(sources)),
	}
	for _, src := range sources {
		entry, ok := s.decorate(ctx, userID, src)
		if !ok {
			degraded = true
		}
		view.Entries = append(view.Entries, entry)
	}
	view.BuiltAt = time.Now()

	s.logger.Debug("built aggregate",
		"user_id", userID,
		"curated", len(entries),
		"entries", len(view.Entries),
		"degraded", degraded,
	)
	return view, degraded, nil
}

// decorate resolves metadata, covers and tags for one source. ok is false when
// a transient failure forced a fallback.
func (s *AggregationService) decorate(ctx context.Context, userID string, src source) (domain.AggregatedEntry, bool) {
	ok := true
	pubID := src.publicationID()
	deleted, featured := src.status()

	md, err := s.resolver.ResolveMetadata(ctx, pubID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			ok = false
		}
		s.logger.Warn("publication metadata unavailable, using fallback",
			"user_id", userID,
			"publication_id", pubID,
			"error", err,
		)
		s.metrics.RecordResolverFallback(fallbackMetadata)
		md = &domain.PublicationMetadata{DisplayName: src.displayName()}
	}
	if md.DisplayName == "" {
		md.DisplayName = src.displayName()
	}

	entry := domain.AggregatedEntry{
		ID:            domain.AggregateID(userID, pubID),
		UserID:        userID,
		PublicationID: pubID,
		Featured:      featured,
		Deleted:       deleted,
		Title:         md.DisplayTitle(),
		Author:        md.Author,
		PubDate:       md.PubDate(),
		Private:       !md.Public,
		About:         md.Synopsis(),
		CoverURL:      s.coverURLs(md),
		CoverBlurHash: md.CoverBlurHash,
		Tags:          make(map[int][]domain.Tag, s.groups),
	}

	for g := 1; g <= s.groups; g++ {
		entry.Tags[g] = []domain.Tag{}
		tags, err := s.links.TagsForEntry(ctx, userID, pubID, g)
		if err != nil {
			s.logger.Warn("tag lookup failed",
				"user_id", userID,
				"publication_id", pubID,
				"tag_group", g,
				"error", err,
			)
			s.metrics.RecordResolverFallback(fallbackTags)
			ok = false
			continue
		}
		for _, t := range tags {
			entry.Tags[g] = append(entry.Tags[g], *t)
		}
	}
	return entry, ok
}

// coverURLs resolves every cover size: an explicit cover when the metadata
// can be trusted, then the stored rendition, then the default asset.
func (s *AggregationService) coverURLs(md *domain.PublicationMetadata) map[domain.CoverSize]string {
	ref := md.CoverRef
	usable := md.MetadataVersion >= domain.MinCoverMetadataVersion &&
		ref != "" && !domain.IsDefaultCover(ref)

	sizes := append([]domain.CoverSize{domain.CoverFull}, domain.ThumbnailSizes...)
	urls := make(map[domain.CoverSize]string, len(sizes))
	for _, size := range sizes {
		if usable {
			if size == domain.CoverFull && strings.Contains(ref, "://") {
				urls[size] = ref
				continue
			}
			if u, found := s.resolver.ResolveThumbnail(ref, size); found {
				urls[size] = u
				continue
			}
			s.metrics.RecordResolverFallback(fallbackCover)
		}
		urls[size] = s.resolver.AssetURL(domain.DefaultCoverPath(size))
	}
	return urls
}

var _ Invalidator = (*AggregationService)(nil)
