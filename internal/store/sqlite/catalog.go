package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/store"
)

// entryColumns is the ordered list of columns selected in catalog entry queries.
// Must match the scan order in scanEntry.
const entryColumns = `user_id, publication_id, deleted, featured, created_at, updated_at`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*domain.CatalogEntry, error) {
	var (
		e         domain.CatalogEntry
		deleted   int
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&e.UserID, &e.PublicationID, &deleted, &e.Featured, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Deleted = deleted != 0

	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) queryEntries(ctx context.Context, op, query string, args ...any) ([]*domain.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err, nil)
	}
	defer rows.Close()

	entries := []*domain.CatalogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrapErr(op, err, nil)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err, nil)
	}
	return entries, nil
}

// ListEntries returns the user's non-deleted entries in row order.
func (s *Store) ListEntries(ctx context.Context, userID string) ([]*domain.CatalogEntry, error) {
	return s.queryEntries(ctx, "list catalog entries",
		`SELECT `+entryColumns+` FROM catalog_entries
		WHERE user_id = ? AND deleted = 0
		ORDER BY rowid ASC`, userID)
}

// ListAllEntries returns every row of the user, soft-deleted ones included, in row order.
func (s *Store) ListAllEntries(ctx context.Context, userID string) ([]*domain.CatalogEntry, error) {
	return s.queryEntries(ctx, "list all catalog entries",
		`SELECT `+entryColumns+` FROM catalog_entries
		WHERE user_id = ?
		ORDER BY rowid ASC`, userID)
}

// GetEntry returns the row for (user, publication) whether or not it is soft-deleted.
// Returns store.ErrEntryNotFound when the pair was never materialized.
func (s *Store) GetEntry(ctx context.Context, userID, publicationID string) (*domain.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM catalog_entries WHERE user_id = ? AND publication_id = ?`,
		userID, publicationID)

	e, err := scanEntry(row)
	if err != nil {
		return nil, wrapErr("get catalog entry", err, store.ErrEntryNotFound)
	}
	return e, nil
}

// UpsertEntry inserts the pair or updates only the supplied fields, in one statement.
// On insert, missing fields default to deleted=0 and featured=0.
func (s *Store) UpsertEntry(ctx context.Context, userID, publicationID string, fields domain.EntryFields) error {
	var deleted, featured sql.NullInt64
	if fields.Deleted != nil {
		deleted = sql.NullInt64{Int64: int64(boolToInt(*fields.Deleted)), Valid: true}
	}
	if fields.Featured != nil {
		featured = sql.NullInt64{Int64: int64(*fields.Featured), Valid: true}
	}
	now := formatTime(time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_entries (user_id, publication_id, deleted, featured, created_at, updated_at)
		VALUES (?1, ?2, COALESCE(?3, 0), COALESCE(?4, 0), ?5, ?5)
		ON CONFLICT (user_id, publication_id) DO UPDATE SET
			deleted    = COALESCE(?3, catalog_entries.deleted),
			featured   = COALESCE(?4, catalog_entries.featured),
			updated_at = CASE WHEN ?3 IS NULL AND ?4 IS NULL THEN catalog_entries.updated_at ELSE ?5 END`,
		userID, publicationID, deleted, featured, now)
	return wrapErr("upsert catalog entry", err, nil)
}

// SoftDeleteEntry marks the entry deleted. Absent rows are ignored.
func (s *Store) SoftDeleteEntry(ctx context.Context, userID, publicationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE catalog_entries SET deleted = 1, updated_at = ?
		WHERE user_id = ? AND publication_id = ?`,
		formatTime(time.Now()), userID, publicationID)
	return wrapErr("soft delete catalog entry", err, nil)
}

// HardDeleteEntry removes the row and its tag links. Absent rows are ignored.
func (s *Store) HardDeleteEntry(ctx context.Context, userID, publicationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin tx", err, nil)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_tag_links WHERE user_id = ? AND publication_id = ?`,
		userID, publicationID); err != nil {
		return wrapErr("delete entry tag links", err, nil)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE user_id = ? AND publication_id = ?`,
		userID, publicationID); err != nil {
		return wrapErr("hard delete catalog entry", err, nil)
	}

	return wrapErr("commit", tx.Commit(), nil)
}

// DeleteCatalog soft-deletes every entry of the user, or removes them and their
// tag links when hard is set. Returns the number of rows affected.
func (s *Store) DeleteCatalog(ctx context.Context, userID string, hard bool) (int64, error) {
	if !hard {
		res, err := s.db.ExecContext(ctx,
			`UPDATE catalog_entries SET deleted = 1, updated_at = ? WHERE user_id = ? AND deleted = 0`,
			formatTime(time.Now()), userID)
		if err != nil {
			return 0, wrapErr("soft delete catalog", err, nil)
		}
		n, _ := res.RowsAffected()
		return n, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("begin tx", err, nil)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_tag_links WHERE user_id = ?`, userID); err != nil {
		return 0, wrapErr("delete catalog tag links", err, nil)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, wrapErr("hard delete catalog", err, nil)
	}
	if err := tx.Commit(); err != nil {
		return 0, wrapErr("commit", err, nil)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListPublicationIDs returns the publication ids of the user's non-deleted entries.
func (s *Store) ListPublicationIDs(ctx context.Context, userID string) ([]string, error) {
	return s.queryStrings(ctx, "list publication ids",
		`SELECT publication_id FROM catalog_entries WHERE user_id = ? AND deleted = 0 ORDER BY rowid ASC`,
		userID)
}

// UsersForPublication returns every user holding a row for the publication,
// deleted or not.
func (s *Store) UsersForPublication(ctx context.Context, publicationID string) ([]string, error) {
	return s.queryStrings(ctx, "list users for publication",
		`SELECT user_id FROM catalog_entries WHERE publication_id = ? ORDER BY rowid ASC`,
		publicationID)
}

// ListEntriesByTag returns non-deleted entries of the user carrying tagID in group.
func (s *Store) ListEntriesByTag(ctx context.Context, userID string, group int, tagID string) ([]*domain.CatalogEntry, error) {
	return s.queryEntries(ctx, "list entries by tag",
		`SELECT e.user_id, e.publication_id, e.deleted, e.featured, e.created_at, e.updated_at
		FROM catalog_entries e
		INNER JOIN catalog_tag_links l
			ON l.user_id = e.user_id AND l.publication_id = e.publication_id
		WHERE e.user_id = ? AND l.tag_group = ? AND l.tag_id = ? AND e.deleted = 0
		ORDER BY e.rowid ASC`,
		userID, group, tagID)
}

func (s *Store) queryStrings(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err, nil)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, wrapErr(op, err, nil)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err, nil)
	}
	return out, nil
}
