package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/store"
)

func TestUpsertAndGetPublication(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2014, 2, 3, 0, 0, 0, 0, time.UTC)
	p := &domain.Publication{
		ID:              "pub-1",
		Name:            "Open Texts",
		Public:          true,
		MetadataVersion: 7,
		Title:           "Intro to Botany",
		Author:          "R. Fern",
		PublishedAt:     &published,
		AboutMedium:     "Plants.",
		CoverRef:        "cover-1",
	}
	if err := s.UpsertPublication(ctx, p); err != nil {
		t.Fatalf("UpsertPublication: %v", err)
	}

	got, err := s.GetPublication(ctx, "pub-1")
	if err != nil {
		t.Fatalf("GetPublication: %v", err)
	}
	if got.Title != p.Title || got.Author != p.Author || !got.Public || got.Primary {
		t.Errorf("fields: got %+v", got)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt: got %v, want %v", got.PublishedAt, published)
	}

	p.Title = "Botany, Second Edition"
	p.PublishedAt = nil
	if err := s.UpsertPublication(ctx, p); err != nil {
		t.Fatalf("UpsertPublication update: %v", err)
	}
	got, _ = s.GetPublication(ctx, "pub-1")
	if got.Title != "Botany, Second Edition" || got.PublishedAt != nil {
		t.Errorf("after update: %+v", got)
	}
}

func TestGetPublication_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPublication(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetPublicationCover(context.Background(), "nope", "c", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetPublicationCover: expected ErrNotFound, got %v", err)
	}
}

func TestPublicationMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*domain.Publication{
		{ID: "main", Name: "Network", Primary: true},
		{ID: "b", Name: "Book B"},
		{ID: "a", Name: "Book A"},
	} {
		if err := s.UpsertPublication(ctx, p); err != nil {
			t.Fatalf("UpsertPublication %s: %v", p.ID, err)
		}
	}
	for _, pubID := range []string{"main", "b", "a"} {
		if err := s.AddPublicationMember(ctx, domain.PublicationMember{PublicationID: pubID, UserID: "u1"}); err != nil {
			t.Fatalf("AddPublicationMember: %v", err)
		}
	}
	// Duplicate membership is ignored.
	if err := s.AddPublicationMember(ctx, domain.PublicationMember{PublicationID: "a", UserID: "u1", Role: "editor"}); err != nil {
		t.Fatalf("AddPublicationMember duplicate: %v", err)
	}

	owned, err := s.ListOwnedPublications(ctx, "u1")
	if err != nil {
		t.Fatalf("ListOwnedPublications: %v", err)
	}
	if len(owned) != 3 || owned[1].PublicationID != "b" || owned[2].DisplayName != "Book A" {
		t.Errorf("owned: got %+v", owned)
	}

	primary, err := s.IsPrimaryPublication(ctx, "main")
	if err != nil || !primary {
		t.Errorf("IsPrimaryPublication(main): %v %v", primary, err)
	}
	if primary, _ := s.IsPrimaryPublication(ctx, "unknown"); primary {
		t.Error("unknown publication must not be primary")
	}

	if err := s.RemovePublicationMember(ctx, "b", "u1"); err != nil {
		t.Fatalf("RemovePublicationMember: %v", err)
	}
	owned, _ = s.ListOwnedPublications(ctx, "u1")
	if len(owned) != 2 {
		t.Errorf("after removal: got %+v", owned)
	}
}

func TestSetPublicationCover(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.UpsertPublication(ctx, &domain.Publication{ID: "p1", Name: "P1", MetadataVersion: 7})
	if err := s.SetPublicationCover(ctx, "p1", "cover-abc", "LEHV6nWB2yk8"); err != nil {
		t.Fatalf("SetPublicationCover: %v", err)
	}
	got, _ := s.GetPublication(ctx, "p1")
	if got.CoverRef != "cover-abc" || got.CoverBlurHash != "LEHV6nWB2yk8" {
		t.Errorf("cover: got %q %q", got.CoverRef, got.CoverBlurHash)
	}
}

func TestListPublicationMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.UpsertPublication(ctx, &domain.Publication{ID: "p1", Name: "P1"})
	for _, user := range []string{"u3", "u1"} {
		if err := s.AddPublicationMember(ctx, domain.PublicationMember{PublicationID: "p1", UserID: user}); err != nil {
			t.Fatalf("AddPublicationMember: %v", err)
		}
	}

	members, err := s.ListPublicationMembers(ctx, "p1")
	if err != nil {
		t.Fatalf("ListPublicationMembers: %v", err)
	}
	if len(members) != 2 || members[0] != "u3" {
		t.Errorf("got %v, want [u3 u1]", members)
	}
}
