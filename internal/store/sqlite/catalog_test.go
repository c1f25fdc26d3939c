package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/store"
)

func TestUpsertEntry_InsertDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertEntry(ctx, "u1", "p1", domain.EntryFields{}); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	got, err := s.GetEntry(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Deleted || got.Featured != 0 {
		t.Errorf("defaults: got deleted=%v featured=%d", got.Deleted, got.Featured)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestUpsertEntry_UpdatesOnlySuppliedFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertEntry(ctx, "u1", "p1", domain.Feature(3)); err != nil {
		t.Fatalf("UpsertEntry featured: %v", err)
	}
	if err := s.SoftDeleteEntry(ctx, "u1", "p1"); err != nil {
		t.Fatalf("SoftDeleteEntry: %v", err)
	}

	// Featured-only upsert must not resurrect the entry.
	if err := s.UpsertEntry(ctx, "u1", "p1", domain.Feature(5)); err != nil {
		t.Fatalf("UpsertEntry featured again: %v", err)
	}
	got, err := s.GetEntry(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !got.Deleted {
		t.Error("expected entry to stay deleted")
	}
	if got.Featured != 5 {
		t.Errorf("Featured: got %d, want 5", got.Featured)
	}

	// Restore leaves featured untouched.
	if err := s.UpsertEntry(ctx, "u1", "p1", domain.Restore()); err != nil {
		t.Fatalf("UpsertEntry restore: %v", err)
	}
	got, _ = s.GetEntry(ctx, "u1", "p1")
	if got.Deleted || got.Featured != 5 {
		t.Errorf("after restore: deleted=%v featured=%d", got.Deleted, got.Featured)
	}
}

func TestUpsertEntry_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs <- s.UpsertEntry(ctx, "u1", "p1", domain.Feature(rank))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert: %v", err)
		}
	}

	entries, err := s.ListEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one row, got %d", len(entries))
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEntry(context.Background(), "u1", "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListEntries_RowOrderAndDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pub := range []string{"p3", "p1", "p2"} {
		if err := s.UpsertEntry(ctx, "u1", pub, domain.Restore()); err != nil {
			t.Fatalf("UpsertEntry %s: %v", pub, err)
		}
	}
	if err := s.UpsertEntry(ctx, "u2", "p1", domain.Restore()); err != nil {
		t.Fatalf("UpsertEntry u2: %v", err)
	}
	if err := s.SoftDeleteEntry(ctx, "u1", "p1"); err != nil {
		t.Fatalf("SoftDeleteEntry: %v", err)
	}

	entries, err := s.ListEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.PublicationID)
	}
	if len(got) != 2 || got[0] != "p3" || got[1] != "p2" {
		t.Errorf("order: got %v, want [p3 p2]", got)
	}

	ids, err := s.ListPublicationIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPublicationIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListPublicationIDs: got %v", ids)
	}

	all, err := s.ListAllEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAllEntries: %v", err)
	}
	if len(all) != 3 || all[1].PublicationID != "p1" || !all[1].Deleted {
		t.Errorf("ListAllEntries: want 3 rows with p1 hidden in place, got %d", len(all))
	}
}

func TestDeleteEntry_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SoftDeleteEntry(ctx, "u1", "nope"); err != nil {
		t.Errorf("SoftDeleteEntry on absent row: %v", err)
	}
	if err := s.HardDeleteEntry(ctx, "u1", "nope"); err != nil {
		t.Errorf("HardDeleteEntry on absent row: %v", err)
	}

	if err := s.UpsertEntry(ctx, "u1", "p1", domain.Restore()); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
	tag, _, err := s.FindOrCreateTag(ctx, "Fiction", "u1")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}
	if err := s.LinkTag(ctx, domain.TagLink{UserID: "u1", PublicationID: "p1", TagID: tag.ID, Group: 1}); err != nil {
		t.Fatalf("LinkTag: %v", err)
	}

	if err := s.HardDeleteEntry(ctx, "u1", "p1"); err != nil {
		t.Fatalf("HardDeleteEntry: %v", err)
	}
	if _, err := s.GetEntry(ctx, "u1", "p1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected row gone, got %v", err)
	}
	if n, _ := s.CountLinks(ctx, "u1", "p1", 1); n != 0 {
		t.Errorf("expected links removed, got %d", n)
	}
}

func TestDeleteCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pub := range []string{"p1", "p2"} {
		if err := s.UpsertEntry(ctx, "u1", pub, domain.Restore()); err != nil {
			t.Fatalf("UpsertEntry: %v", err)
		}
	}
	if err := s.UpsertEntry(ctx, "u2", "p1", domain.Restore()); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	n, err := s.DeleteCatalog(ctx, "u1", false)
	if err != nil {
		t.Fatalf("soft DeleteCatalog: %v", err)
	}
	if n != 2 {
		t.Errorf("soft affected: got %d, want 2", n)
	}
	if e, err := s.GetEntry(ctx, "u1", "p1"); err != nil || !e.Deleted {
		t.Errorf("expected soft-deleted row, got %+v %v", e, err)
	}

	n, err = s.DeleteCatalog(ctx, "u1", true)
	if err != nil {
		t.Fatalf("hard DeleteCatalog: %v", err)
	}
	if n != 2 {
		t.Errorf("hard affected: got %d, want 2", n)
	}

	users, err := s.UsersForPublication(ctx, "p1")
	if err != nil {
		t.Fatalf("UsersForPublication: %v", err)
	}
	if len(users) != 1 || users[0] != "u2" {
		t.Errorf("UsersForPublication: got %v, want [u2]", users)
	}
}

func TestUsersForPublication_IncludesDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.UpsertEntry(ctx, "u1", "p1", domain.Restore())
	_ = s.UpsertEntry(ctx, "u2", "p1", domain.Restore())
	_ = s.SoftDeleteEntry(ctx, "u2", "p1")

	users, err := s.UsersForPublication(ctx, "p1")
	if err != nil {
		t.Fatalf("UsersForPublication: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected both users, got %v", users)
	}
}

func TestListEntriesByTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pub := range []string{"p1", "p2", "p3"} {
		_ = s.UpsertEntry(ctx, "u1", pub, domain.Restore())
	}
	tag, _, err := s.FindOrCreateTag(ctx, "Poetry", "u1")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}
	for _, pub := range []string{"p1", "p3"} {
		if err := s.LinkTag(ctx, domain.TagLink{UserID: "u1", PublicationID: pub, TagID: tag.ID, Group: 2}); err != nil {
			t.Fatalf("LinkTag: %v", err)
		}
	}
	_ = s.SoftDeleteEntry(ctx, "u1", "p3")

	entries, err := s.ListEntriesByTag(ctx, "u1", 2, tag.ID)
	if err != nil {
		t.Fatalf("ListEntriesByTag: %v", err)
	}
	if len(entries) != 1 || entries[0].PublicationID != "p1" {
		t.Errorf("got %+v, want only p1", entries)
	}

	entries, _ = s.ListEntriesByTag(ctx, "u1", 1, tag.ID)
	if len(entries) != 0 {
		t.Errorf("group 1 should be empty, got %d", len(entries))
	}
}
