package domain

import "time"

// MinCoverMetadataVersion is the first metadata schema version whose cover
// references can be trusted. Older publications always show the default cover.
const MinCoverMetadataVersion = 7

// Publication is a tenant-scoped content container in the directory.
type Publication struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"` // Display name, used when metadata has no title
	Public          bool       `json:"public"`
	Primary         bool       `json:"primary"`
	MetadataVersion int        `json:"metadata_version"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	AboutShort      string     `json:"about_short"`
	AboutMedium     string     `json:"about_medium"`
	AboutLong       string     `json:"about_long"`
	CoverRef        string     `json:"cover_ref"`
	CoverBlurHash   string     `json:"cover_blurhash,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Metadata returns the live metadata view of the publication.
func (p *Publication) Metadata() *PublicationMetadata {
	return &PublicationMetadata{
		Title:           p.Title,
		DisplayName:     p.Name,
		Author:          p.Author,
		PublishedAt:     p.PublishedAt,
		SynopsisShort:   p.AboutShort,
		SynopsisMedium:  p.AboutMedium,
		SynopsisLong:    p.AboutLong,
		CoverRef:        p.CoverRef,
		CoverBlurHash:   p.CoverBlurHash,
		Public:          p.Public,
		MetadataVersion: p.MetadataVersion,
	}
}

// PublicationMetadata is what a resolver knows about a publication right now.
// Any field may be empty; aggregation substitutes fallbacks.
type PublicationMetadata struct {
	Title           string
	DisplayName     string
	Author          string
	PublishedAt     *time.Time
	SynopsisShort   string
	SynopsisMedium  string
	SynopsisLong    string
	CoverRef        string
	CoverBlurHash   string
	Public          bool
	MetadataVersion int
}

// Synopsis returns the first non-empty synopsis, short form first.
func (m *PublicationMetadata) Synopsis() string {
	for _, s := range []string{m.SynopsisShort, m.SynopsisMedium, m.SynopsisLong} {
		if s != "" {
			return s
		}
	}
	return ""
}

// DisplayTitle returns the title, or the publication's display name when untitled.
func (m *PublicationMetadata) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.DisplayName
}

// PubDate formats the publish date as YYYY-MM-DD, or "" when unknown.
func (m *PublicationMetadata) PubDate() string {
	if m.PublishedAt == nil || m.PublishedAt.IsZero() {
		return ""
	}
	return m.PublishedAt.UTC().Format(time.DateOnly)
}

// OwnedPublication is one row of a user's ownership enumeration.
type OwnedPublication struct {
	PublicationID string `json:"publication_id"`
	DisplayName   string `json:"display_name"`
}

// PublicationMember links a user to a publication they own or edit.
type PublicationMember struct {
	PublicationID string    `json:"publication_id"`
	UserID        string    `json:"user_id"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}
