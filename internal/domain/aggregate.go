package domain

import "time"

// CoverSize names a rendition of a publication cover.
type CoverSize string

// Cover sizes.
const (
	CoverFull      CoverSize = "full"
	CoverThumbnail CoverSize = "thumbnail"
	CoverSmall     CoverSize = "small"
	CoverMedium    CoverSize = "medium"
	CoverLarge     CoverSize = "large"
)

// ThumbnailSizes are the derived renditions, in the order they are resolved.
var ThumbnailSizes = []CoverSize{CoverThumbnail, CoverSmall, CoverMedium, CoverLarge}

// defaultCovers are asset paths served when no cover can be resolved.
var defaultCovers = map[CoverSize]string{
	CoverFull:      "/assets/images/default-book-cover.jpg",
	CoverThumbnail: "/assets/images/default-book-cover-100x100.jpg",
	CoverSmall:     "/assets/images/default-book-cover-65x0.jpg",
	CoverMedium:    "/assets/images/default-book-cover-225x0.jpg",
	CoverLarge:     "/assets/images/default-book-cover.jpg",
}

// DefaultCoverPath returns the default asset path for a size.
func DefaultCoverPath(size CoverSize) string {
	if p, ok := defaultCovers[size]; ok {
		return p
	}
	return defaultCovers[CoverFull]
}

// IsDefaultCover reports whether ref points at one of the placeholder assets.
func IsDefaultCover(ref string) bool {
	for _, p := range defaultCovers {
		if ref == p {
			return true
		}
	}
	return false
}

// ValidCoverSize reports whether s names a known cover size.
func ValidCoverSize(s string) bool {
	_, ok := defaultCovers[CoverSize(s)]
	return ok
}

// AggregatedEntry is one publication in a user's aggregated catalog view.
type AggregatedEntry struct {
	ID            string               `json:"id"` // "{user}:{publication}"
	UserID        string               `json:"user_id"`
	PublicationID string               `json:"publication_id"`
	Featured      int                  `json:"featured"`
	Deleted       bool                 `json:"deleted"`
	Title         string               `json:"title"`
	Author        string               `json:"author"`
	PubDate       string               `json:"pub_date"`
	Private       bool                 `json:"private"`
	About         string               `json:"about"`
	CoverURL      map[CoverSize]string `json:"cover_url"`
	CoverBlurHash string               `json:"cover_blurhash,omitempty"`
	Tags          map[int][]Tag        `json:"tags"`
}

// AggregateID builds the composite identifier of an aggregated entry.
func AggregateID(userID, publicationID string) string {
	return userID + ":" + publicationID
}

// AggregatedView is the denormalized catalog of one user: curated entries
// first, in row order, then discovered publications in ownership order.
type AggregatedView struct {
	UserID  string            `json:"user_id"`
	Entries []AggregatedEntry `json:"entries"`
	BuiltAt time.Time         `json:"built_at"`
}

// Empty reports whether the view holds no entries.
func (v *AggregatedView) Empty() bool {
	return v == nil || len(v.Entries) == 0
}

// Entry returns the aggregated entry for a publication, if present.
func (v *AggregatedView) Entry(publicationID string) (AggregatedEntry, bool) {
	if v == nil {
		return AggregatedEntry{}, false
	}
	for _, e := range v.Entries {
		if e.PublicationID == publicationID {
			return e, true
		}
	}
	return AggregatedEntry{}, false
}
