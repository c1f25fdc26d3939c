package backup

import (
	"strings"
	"time"
)

// FormatVersion is the archive format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive member names.
const (
	manifestFile = "manifest.json"
	entriesFile  = "entries.jsonl"
	tagsFile     = "tags.jsonl"
	profileFile  = "profile.jsonl"
)

// Manifest describes archive contents.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	TagGroups int       `json:"tag_groups"`
	Counts    Counts    `json:"counts"`
}

// Counts tracks record counts for validation and reporting.
type Counts struct {
	Entries           int `json:"entries"`
	TagGroups         int `json:"tag_groups"`
	ProfileAttributes int `json:"profile_attributes"`
}

// compatible reports whether an archive of version v can be read.
func compatible(v string) bool {
	major, _, _ := strings.Cut(v, ".")
	want, _, _ := strings.Cut(FormatVersion, ".")
	return major == want
}

// entryRecord is one catalog row.
type entryRecord struct {
	PublicationID string `json:"publication_id"`
	Deleted       bool   `json:"deleted"`
	Featured      int    `json:"featured"`
}

// tagRecord is the ordered tag texts of one entry's group.
type tagRecord struct {
	PublicationID string   `json:"publication_id"`
	Group         int      `json:"group"`
	Tags          []string `json:"tags"`
}

// profileRecord is one profile attribute.
type profileRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
