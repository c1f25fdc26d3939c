package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/store"
)

// publicationColumns must match the scan order in scanPublication.
const publicationColumns = `id, name, public, is_primary, metadata_version, title, author,
	published_at, about_short, about_medium, about_long, cover_ref, cover_blurhash,
	created_at, updated_at`

func scanPublication(scanner interface{ Scan(dest ...any) error }) (*domain.Publication, error) {
	var (
		p           domain.Publication
		public      int
		primary     int
		publishedAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&p.ID, &p.Name, &public, &primary, &p.MetadataVersion, &p.Title, &p.Author,
		&publishedAt, &p.AboutShort, &p.AboutMedium, &p.AboutLong, &p.CoverRef, &p.CoverBlurHash,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Public = public != 0
	p.Primary = primary != 0

	if p.PublishedAt, err = parseNullableTime(publishedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPublication inserts or replaces a publication's directory record.
func (s *Store) UpsertPublication(ctx context.Context, p *domain.Publication) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publications (`+publicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name             = excluded.name,
			public           = excluded.public,
			is_primary       = excluded.is_primary,
			metadata_version = excluded.metadata_version,
			title            = excluded.title,
			author           = excluded.author,
			published_at     = excluded.published_at,
			about_short      = excluded.about_short,
			about_medium     = excluded.about_medium,
			about_long       = excluded.about_long,
			cover_ref        = excluded.cover_ref,
			cover_blurhash   = excluded.cover_blurhash,
			updated_at       = excluded.updated_at`,
		p.ID, p.Name, boolToInt(p.Public), boolToInt(p.Primary), p.MetadataVersion, p.Title, p.Author,
		nullTimeString(p.PublishedAt), p.AboutShort, p.AboutMedium, p.AboutLong, p.CoverRef, p.CoverBlurHash,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return wrapErr("upsert publication", err, nil)
}

// GetPublication retrieves a publication by id.
// Returns store.ErrPublicationNotFound if it does not exist.
func (s *Store) GetPublication(ctx context.Context, publicationID string) (*domain.Publication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+publicationColumns+` FROM publications WHERE id = ?`, publicationID)
	p, err := scanPublication(row)
	if err != nil {
		return nil, wrapErr("get publication", err, store.ErrPublicationNotFound)
	}
	return p, nil
}

// SetPublicationCover records the cover reference and its blurhash.
func (s *Store) SetPublicationCover(ctx context.Context, publicationID, coverRef, blurHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE publications SET cover_ref = ?, cover_blurhash = ?, updated_at = ? WHERE id = ?`,
		coverRef, blurHash, formatTime(time.Now()), publicationID)
	if err != nil {
		return wrapErr("set publication cover", err, nil)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrPublicationNotFound
	}
	return nil
}

// IsPrimaryPublication reports whether the publication is flagged as the shared container.
// Unknown publications are not primary.
func (s *Store) IsPrimaryPublication(ctx context.Context, publicationID string) (bool, error) {
	var primary int
	err := s.db.QueryRowContext(ctx, `SELECT is_primary FROM publications WHERE id = ?`, publicationID).Scan(&primary)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("is primary publication", err, nil)
	}
	return primary != 0, nil
}

// AddPublicationMember links a user to a publication. Existing links keep their role.
func (s *Store) AddPublicationMember(ctx context.Context, m domain.PublicationMember) error {
	if m.Role == "" {
		m.Role = "owner"
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publication_members (publication_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (publication_id, user_id) DO NOTHING`,
		m.PublicationID, m.UserID, m.Role, formatTime(m.CreatedAt))
	return wrapErr("add publication member", err, nil)
}

// RemovePublicationMember unlinks a user from a publication.
func (s *Store) RemovePublicationMember(ctx context.Context, publicationID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM publication_members WHERE publication_id = ? AND user_id = ?`,
		publicationID, userID)
	return wrapErr("remove publication member", err, nil)
}

// ListOwnedPublications enumerates the publications a user belongs to, in
// membership order.
func (s *Store) ListOwnedPublications(ctx context.Context, userID string) ([]domain.OwnedPublication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name
		FROM publication_members m
		INNER JOIN publications p ON p.id = m.publication_id
		WHERE m.user_id = ?
		ORDER BY m.rowid ASC`, userID)
	if err != nil {
		return nil, wrapErr("list owned publications", err, nil)
	}
	defer rows.Close()

	owned := []domain.OwnedPublication{}
	for rows.Next() {
		var o domain.OwnedPublication
		if err := rows.Scan(&o.PublicationID, &o.DisplayName); err != nil {
			return nil, wrapErr("list owned publications", err, nil)
		}
		owned = append(owned, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list owned publications", err, nil)
	}
	return owned, nil
}

// ListPublicationMembers returns the ids of every user linked to a publication.
func (s *Store) ListPublicationMembers(ctx context.Context, publicationID string) ([]string, error) {
	return s.queryStrings(ctx, "list publication members", `
		SELECT user_id FROM publication_members WHERE publication_id = ? ORDER BY rowid`, publicationID)
}
