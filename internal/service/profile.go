package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/id"
	"github.com/shelfwise/catalog-server/internal/media/covers"
	"github.com/shelfwise/catalog-server/internal/media/images"
	"github.com/shelfwise/catalog-server/internal/normalize"
	"github.com/shelfwise/catalog-server/internal/store"
)

// AssetResolver turns cover references into public URLs.
type AssetResolver interface {
	ResolveThumbnail(ref string, size domain.CoverSize) (string, bool)
	AssetURL(path string) string
}

// ImageIngester stores an uploaded image with all its renditions.
type ImageIngester interface {
	Ingest(ctx context.Context, ref string, data []byte) (*images.Result, error)
}

// CoverFetcher downloads a remote image and stores its renditions.
type CoverFetcher interface {
	Download(ctx context.Context, ref, url string) *covers.DownloadResult
}

// ProfileService manages the per-user catalog profile attributes.
type ProfileService struct {
	profiles store.ProfileStore
	assets   AssetResolver
	ingester ImageIngester
	fetcher  CoverFetcher
	cache    Invalidator
	groups   int
	logger   *slog.Logger
}

// NewProfileService creates a new profile service. ingester and fetcher may be
// nil, which disables the upload paths.
func NewProfileService(
	profiles store.ProfileStore,
	assets AssetResolver,
	ingester ImageIngester,
	fetcher CoverFetcher,
	cache Invalidator,
	groups int,
	logger *slog.Logger,
) *ProfileService {
	if groups < 1 {
		groups = domain.DefaultTagGroups
	}
	return &ProfileService{
		profiles: profiles,
		assets:   assets,
		ingester: ingester,
		fetcher:  fetcher,
		cache:    cache,
		groups:   groups,
		logger:   logger,
	}
}

// Get returns the user's profile. Users without attributes get an empty profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.CatalogProfile, error) {
	attrs, err := s.profiles.GetAttributes(ctx, userID)
	if err != nil {
		return nil, storageErr("get profile attributes", err)
	}
	return domain.ProfileFromAttributes(userID, attrs, s.groups), nil
}

// SaveProfile writes the known text attributes. Unknown keys and the logo are
// dropped silently. Markup is stripped; url is canonicalized and an empty url
// clears it.
func (s *ProfileService) SaveProfile(ctx context.Context, userID string, attrs map[string]string) (*domain.CatalogProfile, error) {
	known := make(map[string]struct{}, s.groups+3)
	for _, k := range domain.ProfileKeys(s.groups) {
		known[k] = struct{}{}
	}

	clean := make(map[string]string, len(attrs))
	var dropped []string
	for k, v := range attrs {
		if _, ok := known[k]; !ok || k == domain.ProfileLogo {
			dropped = append(dropped, k)
			continue
		}
		if k == domain.ProfileURL {
			u, err := normalize.CanonicalizeURL(v)
			if err != nil {
				return nil, domainerrors.ValidationWithDetails("invalid profile url",
					map[string]string{"url": v})
			}
			clean[k] = u
			continue
		}
		clean[k] = normalize.Text(v)
	}

	if len(clean) > 0 {
		if err := s.profiles.SetAttributes(ctx, userID, clean); err != nil {
			return nil, storageErr("set profile attributes", err)
		}
		s.cache.InvalidateUser(ctx, userID)
	}

	s.logger.Info("profile saved",
		"user_id", userID,
		"attributes", len(clean),
		"dropped", strings.Join(dropped, ","),
	)
	return s.Get(ctx, userID)
}

// SetLogo points the profile logo at a stored cover reference or an absolute URL.
func (s *ProfileService) SetLogo(ctx context.Context, userID, ref string) error {
	ref = strings.TrimSpace(ref)
	if !images.ValidRef(ref) && !strings.Contains(ref, "://") {
		return domainerrors.ValidationWithDetails("invalid logo reference", map[string]string{"ref": ref})
	}
	if err := s.profiles.SetAttributes(ctx, userID, map[string]string{domain.ProfileLogo: ref}); err != nil {
		return storageErr("set profile logo", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("profile logo set", "user_id", userID, "logo", ref)
	return nil
}

// UploadLogo stores image bytes as a new cover and makes it the logo.
func (s *ProfileService) UploadLogo(ctx context.Context, userID string, data []byte) (string, error) {
	if s.ingester == nil {
		return "", domainerrors.Internal("logo uploads are not configured")
	}
	ref, err := id.Generate("logo")
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "generate logo reference")
	}
	if _, err := s.ingester.Ingest(ctx, ref, data); err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeValidation, "store logo image")
	}
	return ref, s.SetLogo(ctx, userID, ref)
}

// SetLogoFromURL downloads a remote image and makes it the logo.
func (s *ProfileService) SetLogoFromURL(ctx context.Context, userID, rawURL string) (string, error) {
	if s.fetcher == nil {
		return "", domainerrors.Internal("logo downloads are not configured")
	}
	u, err := normalize.CanonicalizeURL(rawURL)
	if err != nil || u == "" {
		return "", domainerrors.ValidationWithDetails("invalid logo url", map[string]string{"url": rawURL})
	}
	ref, err := id.Generate("logo")
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "generate logo reference")
	}
	res := s.fetcher.Download(ctx, ref, u)
	if !res.Success {
		s.logger.Warn("logo download failed", "user_id", userID, "url", u, "error", res.Error)
		return "", domainerrors.Wrap(res.Error, domainerrors.CodeValidation, "download logo")
	}
	return ref, s.SetLogo(ctx, userID, ref)
}

// ClearLogo resets the logo to the default cover asset.
func (s *ProfileService) ClearLogo(ctx context.Context, userID string) error {
	def := s.assets.AssetURL(domain.DefaultCoverPath(domain.CoverFull))
	if err := s.profiles.SetAttributes(ctx, userID, map[string]string{domain.ProfileLogo: def}); err != nil {
		return storageErr("clear profile logo", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Info("profile logo cleared", "user_id", userID)
	return nil
}

// LogoURL resolves the logo at a size, falling back to the default asset.
func (s *ProfileService) LogoURL(ctx context.Context, userID string, size domain.CoverSize) (string, error) {
	logo, err := s.profiles.GetAttribute(ctx, userID, domain.ProfileLogo)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", storageErr("get profile logo", err)
	}
	switch {
	case logo == "" || domain.IsDefaultCover(logo):
	case strings.Contains(logo, "://"):
		// A cleared logo is the absolute default asset; anything else is external.
		if !domain.IsDefaultCover(strings.TrimPrefix(logo, s.assets.AssetURL(""))) {
			return logo, nil
		}
	default:
		if u, ok := s.assets.ResolveThumbnail(logo, size); ok {
			return u, nil
		}
	}
	return s.assets.AssetURL(domain.DefaultCoverPath(size)), nil
}

// DeleteProfile removes every profile attribute of the user.
func (s *ProfileService) DeleteProfile(ctx context.Context, userID string) (int, error) {
	n, err := s.profiles.DeleteAttributes(ctx, userID)
	if err != nil {
		return 0, storageErr("delete profile", err)
	}
	s.cache.InvalidateUser(ctx, userID)
	return n, nil
}
