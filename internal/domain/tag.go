package domain

import "time"

// DefaultTagGroups is the number of tag groups when none is configured.
const DefaultTagGroups = 2

// Tag is a global, normalized label shared by every user's catalog.
// Text is unique across all tags; the ID is stable once created.
type Tag struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TagLink associates a tag with a catalog entry inside one numbered group.
type TagLink struct {
	UserID        string    `json:"user_id"`
	PublicationID string    `json:"publication_id"`
	TagID         string    `json:"tag_id"`
	Group         int       `json:"group"`
	CreatedAt     time.Time `json:"created_at"`
}

// TagUsage is a tag together with the number of entries in one user's
// catalog that carry it.
type TagUsage struct {
	Tag
	Group int `json:"group"`
	Count int `json:"count"`
}

// TagTexts returns the texts of tags in order.
func TagTexts(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Text
	}
	return out
}
