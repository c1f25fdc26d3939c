package domain

import "time"

// CatalogEntry is a user's curated membership of one publication.
// A row exists only once the pair has been added or tagged; an entry that
// was never materialized can still surface in an aggregate as "discovered".
type CatalogEntry struct {
	UserID        string    `json:"user_id"`
	PublicationID string    `json:"publication_id"`
	Deleted       bool      `json:"deleted"`
	Featured      int       `json:"featured"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EntryFields carries the optional columns of a catalog upsert.
// Nil fields are left untouched on an existing row and default to zero on insert.
type EntryFields struct {
	Deleted  *bool
	Featured *int
}

// Empty reports whether no field is set.
func (f EntryFields) Empty() bool {
	return f.Deleted == nil && f.Featured == nil
}

// Restore marks the entry as not deleted.
func Restore() EntryFields {
	deleted := false
	return EntryFields{Deleted: &deleted}
}

// Feature sets the featured rank. Negative ranks clamp to zero.
func Feature(rank int) EntryFields {
	if rank < 0 {
		rank = 0
	}
	return EntryFields{Featured: &rank}
}
