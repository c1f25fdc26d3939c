package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicationMetadata_SynopsisFallback(t *testing.T) {
	tests := []struct {
		name             string
		short, med, long string
		want             string
	}{
		{"short wins", "s", "m", "l", "s"},
		{"medium when short empty", "", "abc", "l", "abc"},
		{"long last", "", "", "l", "l"},
		{"all empty", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &PublicationMetadata{SynopsisShort: tt.short, SynopsisMedium: tt.med, SynopsisLong: tt.long}
			assert.Equal(t, tt.want, m.Synopsis())
		})
	}
}

func TestPublicationMetadata_DisplayTitle(t *testing.T) {
	m := &PublicationMetadata{DisplayName: "My Site"}
	assert.Equal(t, "My Site", m.DisplayTitle())

	m.Title = "The Book"
	assert.Equal(t, "The Book", m.DisplayTitle())
}

func TestPublicationMetadata_PubDate(t *testing.T) {
	m := &PublicationMetadata{}
	assert.Equal(t, "", m.PubDate())

	ts := time.Date(2013, 7, 4, 23, 0, 0, 0, time.UTC)
	m.PublishedAt = &ts
	assert.Equal(t, "2013-07-04", m.PubDate())
}

func TestEntryFields(t *testing.T) {
	assert.True(t, EntryFields{}.Empty())

	f := Feature(-3)
	require.NotNil(t, f.Featured)
	assert.Equal(t, 0, *f.Featured)
	assert.Nil(t, f.Deleted)

	r := Restore()
	require.NotNil(t, r.Deleted)
	assert.False(t, *r.Deleted)
}

func TestGroupNameKey(t *testing.T) {
	assert.Equal(t, "tag_2_name", GroupNameKey(2))

	n, ok := ParseGroupNameKey("tag_3_name")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	for _, bad := range []string{"tag__name", "tag_x_name", "tag_0_name", "about", "tag_1"} {
		_, ok := ParseGroupNameKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestProfileFromAttributes(t *testing.T) {
	attrs := map[string]string{
		ProfileAbout:    "Small press",
		GroupNameKey(1): "Subject",
		GroupNameKey(3): "ignored beyond group count",
		"unknown":       "x",
	}
	p := ProfileFromAttributes("u1", attrs, 2)

	assert.Equal(t, "Small press", p.About)
	assert.Equal(t, map[int]string{1: "Subject", 2: ""}, p.GroupNames)
	assert.Equal(t, []string{"about", "logo", "url", "tag_1_name", "tag_2_name"}, ProfileKeys(2))
}

func TestDefaultCovers(t *testing.T) {
	assert.Equal(t, "/assets/images/default-book-cover-100x100.jpg", DefaultCoverPath(CoverThumbnail))
	assert.Equal(t, DefaultCoverPath(CoverFull), DefaultCoverPath(CoverSize("huge")))
	assert.True(t, IsDefaultCover("/assets/images/default-book-cover-65x0.jpg"))
	assert.False(t, IsDefaultCover("cover-123"))
	assert.True(t, ValidCoverSize("medium"))
	assert.False(t, ValidCoverSize("huge"))
}

func TestAggregatedView_Entry(t *testing.T) {
	var nilView *AggregatedView
	assert.True(t, nilView.Empty())

	v := &AggregatedView{UserID: "u1", Entries: []AggregatedEntry{{ID: AggregateID("u1", "p1"), PublicationID: "p1"}}}
	assert.False(t, v.Empty())

	e, ok := v.Entry("p1")
	assert.True(t, ok)
	assert.Equal(t, "u1:p1", e.ID)

	_, ok = v.Entry("p2")
	assert.False(t, ok)
}
