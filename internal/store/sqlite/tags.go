package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/id"
	"github.com/shelfwise/catalog-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, text, created_by, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
	)

	if err := scanner.Scan(&t.ID, &t.Text, &t.CreatedBy, &createdAt); err != nil {
		return nil, err
	}

	var err error
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagByID retrieves a tag by its ID.
// Returns store.ErrTagNotFound if the tag does not exist.
func (s *Store) GetTagByID(ctx context.Context, tagID string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID)
	t, err := scanTag(row)
	if err != nil {
		return nil, wrapErr("get tag", err, store.ErrTagNotFound)
	}
	return t, nil
}

// GetTagByText retrieves a tag by its normalized text.
// Returns store.ErrTagNotFound if the tag does not exist.
func (s *Store) GetTagByText(ctx context.Context, text string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE text = ?`, text)
	t, err := scanTag(row)
	if err != nil {
		return nil, wrapErr("get tag by text", err, store.ErrTagNotFound)
	}
	return t, nil
}

// ListTags returns all tags ordered by text.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.queryTags(ctx, "list tags", `SELECT `+tagColumns+` FROM tags ORDER BY text ASC`)
}

// FindOrCreateTag returns the tag with the given normalized text, creating it if absent.
// The insert is a single conditional write; a concurrent creator of the same
// text wins the unique constraint and this call re-reads the winner's id.
// Returns (tag, created, error).
func (s *Store) FindOrCreateTag(ctx context.Context, text, createdBy string) (*domain.Tag, bool, error) {
	tagID, err := id.NewTagID()
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, text, created_by, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (text) DO NOTHING`,
		tagID, text, createdBy, formatTime(time.Now()))
	if err != nil {
		return nil, false, wrapErr("insert tag", err, nil)
	}
	created, _ := res.RowsAffected()

	t, err := s.GetTagByText(ctx, text)
	if err != nil {
		return nil, false, err
	}
	return t, created > 0, nil
}

// DeleteTag removes a tag and every link to it.
// Returns false when no tag with that id existed.
func (s *Store) DeleteTag(ctx context.Context, tagID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrapErr("begin tx", err, nil)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_tag_links WHERE tag_id = ?`, tagID); err != nil {
		return false, wrapErr("delete tag links", err, nil)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return false, wrapErr("delete tag", err, nil)
	}
	if err := tx.Commit(); err != nil {
		return false, wrapErr("commit", err, nil)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// PurgeOrphanTags deletes tags no link refers to and returns how many were removed.
func (s *Store) PurgeOrphanTags(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tags
		WHERE NOT EXISTS (SELECT 1 FROM catalog_tag_links l WHERE l.tag_id = tags.id)`)
	if err != nil {
		return 0, wrapErr("purge orphan tags", err, nil)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountTags returns the number of tags in the global table.
func (s *Store) CountTags(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, wrapErr("count tags", err, nil)
	}
	return n, nil
}

func (s *Store) queryTags(ctx context.Context, op, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err, nil)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, wrapErr(op, err, nil)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err, nil)
	}
	return tags, nil
}
