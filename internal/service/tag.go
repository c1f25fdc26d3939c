package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/normalize"
	"github.com/shelfwise/catalog-server/internal/store"
)

// TagService implements the tag upsert protocol over the global tag table and
// the per-entry links.
type TagService struct {
	catalog store.CatalogStore
	tags    store.TagStore
	links   store.TagLinkStore
	cache   Invalidator
	groups  int
	logger  *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(
	catalog store.CatalogStore,
	tags store.TagStore,
	links store.TagLinkStore,
	cache Invalidator,
	groups int,
	logger *slog.Logger,
) *TagService {
	if groups < 1 {
		groups = domain.DefaultTagGroups
	}
	return &TagService{
		catalog: catalog,
		tags:    tags,
		links:   links,
		cache:   cache,
		groups:  groups,
		logger:  logger,
	}
}

// Groups returns the number of configured tag groups.
func (s *TagService) Groups() int {
	return s.groups
}

// ValidateGroup rejects group numbers outside the configured range.
func (s *TagService) ValidateGroup(group int) error {
	return checkGroup(group, s.groups)
}

// SaveTag normalizes text, finds or creates the tag, and links it to
// (user, publication, group). Saving the same association twice is a no-op.
func (s *TagService) SaveTag(ctx context.Context, text, userID, publicationID string, group int) (*domain.Tag, error) {
	if err := s.ValidateGroup(group); err != nil {
		return nil, err
	}
	normalized := normalize.Tag(text)
	if normalized == "" {
		return nil, domainerrors.Validation("tag text is empty after normalization")
	}

	tag, err := s.saveTag(ctx, normalized, userID, publicationID, group)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(ctx, userID)
	return tag, nil
}

// saveTag expects normalized text and a valid group and does not invalidate.
func (s *TagService) saveTag(ctx context.Context, normalized, userID, publicationID string, group int) (*domain.Tag, error) {
	// Tag queries join on the entry row, so it must exist before the link.
	if err := s.catalog.UpsertEntry(ctx, userID, publicationID, domain.EntryFields{}); err != nil {
		return nil, storageErr("ensure catalog entry", err)
	}

	tag, created, err := s.tags.FindOrCreateTag(ctx, normalized, userID)
	if err != nil {
		return nil, storageErr("find or create tag", err)
	}

	link := domain.TagLink{
		UserID:        userID,
		PublicationID: publicationID,
		TagID:         tag.ID,
		Group:         group,
	}
	if err := s.links.LinkTag(ctx, link); err != nil {
		return nil, storageErr("link tag", err)
	}

	s.logger.Info("tag saved",
		"tag_id", tag.ID,
		"user_id", userID,
		"publication_id", publicationID,
		"tag_group", group,
		"created", created,
	)
	return tag, nil
}

// ReplaceTagsForGroup clears every link of (user, publication, group) and saves
// each text in order. Previously linked tags that are not repeated lose their
// link; the tags themselves stay. An empty list only clears.
// Every text is validated before anything is written.
func (s *TagService) ReplaceTagsForGroup(ctx context.Context, userID, publicationID string, group int, texts []string) ([]*domain.Tag, error) {
	if err := s.ValidateGroup(group); err != nil {
		return nil, err
	}
	normalized := make([]string, 0, len(texts))
	for _, t := range texts {
		n := normalize.Tag(t)
		if n == "" {
			return nil, domainerrors.ValidationWithDetails("tag text is empty after normalization",
				map[string]string{"text": t})
		}
		normalized = append(normalized, n)
	}

	// Invalidate even on partial failure; the clear may already have happened.
	defer s.cache.InvalidateUser(ctx, userID)

	removed, err := s.links.ClearTagGroup(ctx, userID, publicationID, group)
	if err != nil {
		return nil, storageErr("clear tag group", err)
	}

	saved := make([]*domain.Tag, 0, len(normalized))
	for _, n := range normalized {
		tag, err := s.saveTag(ctx, n, userID, publicationID, group)
		if err != nil {
			return saved, err
		}
		saved = append(saved, tag)
	}

	s.logger.Info("tag group replaced",
		"user_id", userID,
		"publication_id", publicationID,
		"tag_group", group,
		"removed", removed,
		"saved", len(saved),
	)
	return saved, nil
}

// ReplaceTagString parses a delimiter-separated string and replaces the group with it.
// Tokens that normalize to nothing are dropped.
func (s *TagService) ReplaceTagString(ctx context.Context, userID, publicationID string, group int, input string) ([]*domain.Tag, error) {
	return s.ReplaceTagsForGroup(ctx, userID, publicationID, group, normalize.ParseTagString(input))
}

// DeleteTag removes the tag named by text from one entry's group. With purge it
// removes every link to the tag and the tag itself; callers restrict purge to root.
// Returns false, without error, when no tag has that text or the entry's group
// does not carry it.
func (s *TagService) DeleteTag(ctx context.Context, userID, publicationID string, group int, text string, purge bool) (bool, error) {
	normalized := normalize.Tag(text)
	if normalized == "" {
		return false, nil
	}
	tag, err := s.tags.GetTagByText(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("get tag", err)
	}

	if purge {
		return s.purgeTag(ctx, tag)
	}

	if err := s.ValidateGroup(group); err != nil {
		return false, err
	}
	removed, err := s.links.UnlinkTag(ctx, domain.TagLink{
		UserID:        userID,
		PublicationID: publicationID,
		TagID:         tag.ID,
		Group:         group,
	})
	if err != nil {
		return false, storageErr("unlink tag", err)
	}
	if !removed {
		return false, nil
	}
	s.cache.InvalidateUser(ctx, userID)

	s.logger.Info("tag unlinked",
		"tag_id", tag.ID,
		"user_id", userID,
		"publication_id", publicationID,
		"tag_group", group,
	)
	return true, nil
}

// PurgeTagByText deletes a tag and all its links by text.
func (s *TagService) PurgeTagByText(ctx context.Context, text string) (bool, error) {
	return s.DeleteTag(ctx, "", "", 0, text, true)
}

func (s *TagService) purgeTag(ctx context.Context, tag *domain.Tag) (bool, error) {
	users, err := s.links.UsersForTag(ctx, tag.ID)
	if err != nil {
		return false, storageErr("users for tag", err)
	}
	deleted, err := s.tags.DeleteTag(ctx, tag.ID)
	if err != nil {
		return false, storageErr("delete tag", err)
	}
	for _, u := range users {
		s.cache.InvalidateUser(ctx, u)
	}

	s.logger.Info("tag purged",
		"tag_id", tag.ID,
		"text", tag.Text,
		"users", len(users),
	)
	return deleted, nil
}

// PurgeOrphanTags deletes tags that no entry links to. Orphans are never swept
// automatically; this runs only when an operator asks for it.
func (s *TagService) PurgeOrphanTags(ctx context.Context) (int64, error) {
	n, err := s.tags.PurgeOrphanTags(ctx)
	if err != nil {
		return 0, storageErr("purge orphan tags", err)
	}
	s.logger.Info("orphan tags purged", "count", n)
	return n, nil
}

// TagsForEntry returns the tags of one entry's group ordered by text.
func (s *TagService) TagsForEntry(ctx context.Context, userID, publicationID string, group int) ([]*domain.Tag, error) {
	if err := s.ValidateGroup(group); err != nil {
		return nil, err
	}
	tags, err := s.links.TagsForEntry(ctx, userID, publicationID, group)
	return tags, storageErr("tags for entry", err)
}

// TagString renders one entry's group as a delimiter-joined string.
func (s *TagService) TagString(ctx context.Context, userID, publicationID string, group int) (string, error) {
	tags, err := s.TagsForEntry(ctx, userID, publicationID, group)
	if err != nil {
		return "", err
	}
	texts := make([]string, len(tags))
	for i, t := range tags {
		texts[i] = t.Text
	}
	return normalize.FormatTagString(texts), nil
}

// TagsForUser returns the distinct tags a user applied in a group.
func (s *TagService) TagsForUser(ctx context.Context, userID string, group int, includeHidden bool) ([]domain.TagUsage, error) {
	if err := s.ValidateGroup(group); err != nil {
		return nil, err
	}
	usages, err := s.links.TagsForUser(ctx, userID, group, includeHidden)
	return usages, storageErr("tags for user", err)
}

// ListByTag returns the user's non-deleted entries carrying the tag in a group.
func (s *TagService) ListByTag(ctx context.Context, userID string, group int, tagID string) ([]*domain.CatalogEntry, error) {
	if err := s.ValidateGroup(group); err != nil {
		return nil, err
	}
	entries, err := s.catalog.ListEntriesByTag(ctx, userID, group, tagID)
	return entries, storageErr("list entries by tag", err)
}
