package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Profile attribute keys.
const (
	ProfileAbout = "about"
	ProfileURL   = "url"
	ProfileLogo  = "logo"

	groupNamePrefix = "tag_"
	groupNameSuffix = "_name"
)

// GroupNameKey returns the attribute key holding the display label of a tag group.
func GroupNameKey(group int) string {
	return fmt.Sprintf("%s%d%s", groupNamePrefix, group, groupNameSuffix)
}

// ParseGroupNameKey extracts the group number from a tag_N_name key.
func ParseGroupNameKey(key string) (int, bool) {
	if !strings.HasPrefix(key, groupNamePrefix) || !strings.HasSuffix(key, groupNameSuffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(key, groupNamePrefix), groupNameSuffix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ProfileKeys returns the known attribute keys for the given tag group count.
func ProfileKeys(groups int) []string {
	keys := []string{ProfileAbout, ProfileLogo, ProfileURL}
	for g := 1; g <= groups; g++ {
		keys = append(keys, GroupNameKey(g))
	}
	return keys
}

// CatalogProfile is the per-user presentation of a catalog.
// It is stored as independent key/value attributes, outside the catalog rows.
type CatalogProfile struct {
	UserID     string         `json:"user_id"`
	About      string         `json:"about"`
	URL        string         `json:"url"`
	Logo       string         `json:"logo"`
	GroupNames map[int]string `json:"group_names"`
}

// ProfileFromAttributes builds a profile from raw attributes, keeping only known keys.
func ProfileFromAttributes(userID string, attrs map[string]string, groups int) *CatalogProfile {
	p := &CatalogProfile{
		UserID:     userID,
		About:      attrs[ProfileAbout],
		URL:        attrs[ProfileURL],
		Logo:       attrs[ProfileLogo],
		GroupNames: make(map[int]string, groups),
	}
	for g := 1; g <= groups; g++ {
		p.GroupNames[g] = attrs[GroupNameKey(g)]
	}
	return p
}
