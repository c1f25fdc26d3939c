package sqlite

import (
	"context"
	"time"

	"github.com/shelfwise/catalog-server/internal/domain"
)

// LinkTag associates a tag with (user, publication, group).
// Re-linking an existing association is a no-op.
func (s *Store) LinkTag(ctx context.Context, link domain.TagLink) error {
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_tag_links (user_id, publication_id, tag_id, tag_group, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, publication_id, tag_id, tag_group) DO NOTHING`,
		link.UserID, link.PublicationID, link.TagID, link.Group, formatTime(createdAt))
	return wrapErr("link tag", err, nil)
}

// UnlinkTag removes one association. Returns false when it did not exist.
func (s *Store) UnlinkTag(ctx context.Context, link domain.TagLink) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM catalog_tag_links
		WHERE user_id = ? AND publication_id = ? AND tag_id = ? AND tag_group = ?`,
		link.UserID, link.PublicationID, link.TagID, link.Group)
	if err != nil {
		return false, wrapErr("unlink tag", err, nil)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ClearTagGroup removes every link of (user, publication, group). Tags are kept.
func (s *Store) ClearTagGroup(ctx context.Context, userID, publicationID string, group int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM catalog_tag_links
		WHERE user_id = ? AND publication_id = ? AND tag_group = ?`,
		userID, publicationID, group)
	if err != nil {
		return 0, wrapErr("clear tag group", err, nil)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// TagsForEntry returns the tags of one entry in a group, ordered by text.
// Links whose entry row does not exist are not returned.
func (s *Store) TagsForEntry(ctx context.Context, userID, publicationID string, group int) ([]*domain.Tag, error) {
	return s.queryTags(ctx, "tags for entry", `
		SELECT DISTINCT t.id, t.text, t.created_by, t.created_at
		FROM tags t
		INNER JOIN catalog_tag_links l ON l.tag_id = t.id
		INNER JOIN catalog_entries e ON e.user_id = l.user_id AND e.publication_id = l.publication_id
		WHERE l.tag_group = ? AND l.user_id = ? AND l.publication_id = ?
		ORDER BY t.text ASC`,
		group, userID, publicationID)
}

// TagsForUser returns the distinct tags the user applied in a group, ordered by text,
// with the number of entries carrying each. When includeHidden is false,
// tags attached only to soft-deleted entries are left out.
func (s *Store) TagsForUser(ctx context.Context, userID string, group int, includeHidden bool) ([]domain.TagUsage, error) {
	query := `
		SELECT t.id, t.text, t.created_by, t.created_at, COUNT(DISTINCT e.publication_id)
		FROM tags t
		INNER JOIN catalog_tag_links l ON l.tag_id = t.id
		INNER JOIN catalog_entries e ON e.user_id = l.user_id AND e.publication_id = l.publication_id
		WHERE l.tag_group = ? AND l.user_id = ?`
	if !includeHidden {
		query += ` AND e.deleted = 0`
	}
	query += `
		GROUP BY t.id, t.text, t.created_by, t.created_at
		ORDER BY t.text ASC`

	rows, err := s.db.QueryContext(ctx, query, group, userID)
	if err != nil {
		return nil, wrapErr("tags for user", err, nil)
	}
	defer rows.Close()

	usages := []domain.TagUsage{}
	for rows.Next() {
		var (
			u         domain.TagUsage
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Text, &u.CreatedBy, &createdAt, &u.Count); err != nil {
			return nil, wrapErr("tags for user", err, nil)
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, wrapErr("tags for user", err, nil)
		}
		u.Group = group
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("tags for user", err, nil)
	}
	return usages, nil
}

// CountLinks returns the number of links for (user, publication, group).
func (s *Store) CountLinks(ctx context.Context, userID, publicationID string, group int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM catalog_tag_links
		WHERE user_id = ? AND publication_id = ? AND tag_group = ?`,
		userID, publicationID, group).Scan(&n)
	if err != nil {
		return 0, wrapErr("count links", err, nil)
	}
	return n, nil
}

// UsersForTag returns every user with at least one link to the tag.
func (s *Store) UsersForTag(ctx context.Context, tagID string) ([]string, error) {
	return s.queryStrings(ctx, "users for tag", `
		SELECT DISTINCT user_id FROM catalog_tag_links WHERE tag_id = ? ORDER BY user_id`, tagID)
}
