package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/shelfwise/catalog-server/internal/backup/stream"
	"github.com/shelfwise/catalog-server/internal/domain"
)

// Catalog reads and writes catalog entries.
type Catalog interface {
	ListAll(ctx context.Context, userID string) ([]*domain.CatalogEntry, error)
	Upsert(ctx context.Context, userID, publicationID string, fields domain.EntryFields) error
}

// Tags reads and replaces tag groups.
type Tags interface {
	Groups() int
	TagsForEntry(ctx context.Context, userID, publicationID string, group int) ([]*domain.Tag, error)
	ReplaceTagsForGroup(ctx context.Context, userID, publicationID string, group int, texts []string) ([]*domain.Tag, error)
}

// Profiles reads and writes catalog profiles.
type Profiles interface {
	Get(ctx context.Context, userID string) (*domain.CatalogProfile, error)
	SaveProfile(ctx context.Context, userID string, attrs map[string]string) (*domain.CatalogProfile, error)
	SetLogo(ctx context.Context, userID, ref string) error
}

// Service exports and restores catalogs through the catalog services, so
// restores normalize tags and invalidate aggregates like any other write.
type Service struct {
	catalog  Catalog
	tags     Tags
	profiles Profiles
	logger   *slog.Logger
}

// NewService creates a backup service.
func NewService(catalog Catalog, tags Tags, profiles Profiles, logger *slog.Logger) *Service {
	return &Service{
		catalog:  catalog,
		tags:     tags,
		profiles: profiles,
		logger:   logger,
	}
}

// Export writes userID's entries, tag groups and profile to w as a zip archive.
func (s *Service) Export(ctx context.Context, userID string, w io.Writer) (*Manifest, error) {
	start := time.Now()
	zw := zip.NewWriter(w)

	manifest := &Manifest{
		Version:   FormatVersion,
		CreatedAt: start.UTC(),
		UserID:    userID,
		TagGroups: s.tags.Groups(),
	}

	entries, err := s.catalog.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	ew, err := stream.NewWriter(zw, entriesFile)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := ew.Write(entryRecord{PublicationID: e.PublicationID, Deleted: e.Deleted, Featured: e.Featured}); err != nil {
			return nil, fmt.Errorf("write entry: %w", err)
		}
	}
	manifest.Counts.Entries = ew.Count()

	tw, err := stream.NewWriter(zw, tagsFile)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		for g := 1; g <= s.tags.Groups(); g++ {
			tags, err := s.tags.TagsForEntry(ctx, userID, e.PublicationID, g)
			if err != nil {
				return nil, fmt.Errorf("tags for %s: %w", e.PublicationID, err)
			}
			if len(tags) == 0 {
				continue
			}
			if err := tw.Write(tagRecord{PublicationID: e.PublicationID, Group: g, Tags: tagTexts(tags)}); err != nil {
				return nil, fmt.Errorf("write tags: %w", err)
			}
		}
	}
	manifest.Counts.TagGroups = tw.Count()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	pw, err := stream.NewWriter(zw, profileFile)
	if err != nil {
		return nil, err
	}
	for _, rec := range profileRecords(profile) {
		if err := pw.Write(rec); err != nil {
			return nil, fmt.Errorf("write profile: %w", err)
		}
	}
	manifest.Counts.ProfileAttributes = pw.Count()

	mw, err := zw.Create(manifestFile)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	s.logger.Info("catalog exported",
		"user_id", userID,
		"entries", manifest.Counts.Entries,
		"tag_groups", manifest.Counts.TagGroups,
		"profile_attributes", manifest.Counts.ProfileAttributes,
		"duration", time.Since(start),
	)
	return manifest, nil
}

// Import restores an archive into userID, or into the archive's user when
// userID is empty. Entries are merged: restored rows overwrite local status,
// restored tag groups replace local ones, and local rows absent from the
// archive are kept. Groups beyond the configured count are skipped.
func (s *Service) Import(ctx context.Context, r io.ReaderAt, size int64, userID string) (*Manifest, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	manifest, err := readManifest(zr)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		userID = manifest.UserID
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: no user", ErrInvalidManifest)
	}

	restored := &Manifest{
		Version:   manifest.Version,
		CreatedAt: manifest.CreatedAt,
		UserID:    userID,
		TagGroups: s.tags.Groups(),
	}

	if err := eachRecord(zr, entriesFile, func(rec entryRecord) error {
		deleted, featured := rec.Deleted, rec.Featured
		if err := s.catalog.Upsert(ctx, userID, rec.PublicationID, domain.EntryFields{Deleted: &deleted, Featured: &featured}); err != nil {
			return fmt.Errorf("restore entry %s: %w", rec.PublicationID, err)
		}
		restored.Counts.Entries++
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachRecord(zr, tagsFile, func(rec tagRecord) error {
		if rec.Group < 1 || rec.Group > s.tags.Groups() {
			s.logger.Warn("skipping tag group outside configured range",
				"publication_id", rec.PublicationID,
				"tag_group", rec.Group,
			)
			return nil
		}
		if _, err := s.tags.ReplaceTagsForGroup(ctx, userID, rec.PublicationID, rec.Group, rec.Tags); err != nil {
			return fmt.Errorf("restore tags %s/%d: %w", rec.PublicationID, rec.Group, err)
		}
		restored.Counts.TagGroups++
		return nil
	}); err != nil {
		return nil, err
	}

	attrs := make(map[string]string)
	var logo string
	if err := eachRecord(zr, profileFile, func(rec profileRecord) error {
		if rec.Key == domain.ProfileLogo {
			logo = rec.Value
			return nil
		}
		attrs[rec.Key] = rec.Value
		return nil
	}); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		p, err := s.profiles.SaveProfile(ctx, userID, attrs)
		if err != nil {
			return nil, fmt.Errorf("restore profile: %w", err)
		}
		restored.Counts.ProfileAttributes = len(profileRecords(p))
	}
	if logo != "" {
		if err := s.profiles.SetLogo(ctx, userID, logo); err != nil {
			s.logger.Warn("skipping profile logo", "user_id", userID, "logo", logo, "error", err)
		}
	}

	s.logger.Info("catalog imported",
		"user_id", userID,
		"source_user_id", manifest.UserID,
		"entries", restored.Counts.Entries,
		"tag_groups", restored.Counts.TagGroups,
	)
	return restored, nil
}

func readManifest(zr *zip.Reader) (*Manifest, error) {
	rc, err := stream.OpenFile(zr, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	defer rc.Close()

	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if !compatible(m.Version) {
		return nil, fmt.Errorf("%w: %s", ErrVersionMismatch, m.Version)
	}
	return &m, nil
}

// eachRecord feeds every record of a member to fn. A missing member is empty.
func eachRecord[T any](zr *zip.Reader, name string, fn func(T) error) error {
	rc, err := stream.OpenFile(zr, name)
	if errors.Is(err, stream.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	for rec, err := range stream.NewReader[T](rc).All() {
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func profileRecords(p *domain.CatalogProfile) []profileRecord {
	var recs []profileRecord
	add := func(k, v string) {
		if v != "" {
			recs = append(recs, profileRecord{Key: k, Value: v})
		}
	}
	add(domain.ProfileAbout, p.About)
	add(domain.ProfileURL, p.URL)
	add(domain.ProfileLogo, p.Logo)
	for _, g := range slices.Sorted(maps.Keys(p.GroupNames)) {
		add(domain.GroupNameKey(g), p.GroupNames[g])
	}
	return recs
}

func tagTexts(tags []*domain.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Text
	}
	return out
}
