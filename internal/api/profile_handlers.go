package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalogs/{user}/profile",
		Summary:     "Get catalog profile",
		Description: "Returns the catalog's about text, link, logo and tag group labels",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/catalogs/{user}/profile",
		Summary:     "Update catalog profile",
		Description: "Saves the supplied attributes. Unknown keys and logo are ignored",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "setProfileLogo",
		Method:      http.MethodPut,
		Path:        "/api/v1/catalogs/{user}/profile/logo",
		Summary:     "Set catalog logo",
		Description: "Sets the logo from a stored reference, a remote URL or uploaded image bytes, or clears it",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetProfileLogo)
}

// === DTOs ===

// ProfileResponse contains profile data in API responses.
type ProfileResponse struct {
	UserID     string            `json:"user_id" doc:"Catalog owner"`
	About      string            `json:"about" doc:"About text"`
	URL        string            `json:"url" doc:"Canonical link"`
	Logo       string            `json:"logo" doc:"Logo reference or URL"`
	LogoURL    string            `json:"logo_url" doc:"Logo resolved at the requested size"`
	GroupNames map[string]string `json:"group_names" doc:"Display labels keyed by tag group number"`
}

// GetProfileInput contains parameters for reading a profile.
type GetProfileInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	LogoSize      string `query:"logo_size" default:"thumbnail" doc:"Cover size used for logo_url"`
}

// ProfileOutput wraps the profile response for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// UpdateProfileInput wraps a profile update for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Body          map[string]string
}

// SetLogoRequest is the request body for setting a logo. Exactly one field is used,
// checked in the order clear, image, url, ref.
type SetLogoRequest struct {
	Ref   string `json:"ref,omitempty" validate:"omitempty,max=512" doc:"Stored cover reference or absolute URL"`
	URL   string `json:"url,omitempty" validate:"omitempty,max=2048" doc:"Remote image to download"`
	Image []byte `json:"image,omitempty" doc:"Base64 image bytes to store"`
	Clear bool   `json:"clear,omitempty" doc:"Reset to the default cover"`
}

// SetLogoInput wraps the logo request for Huma.
type SetLogoInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Body          SetLogoRequest
}

// === Handlers ===

func (s *Server) profileResponse(ctx context.Context, p *domain.CatalogProfile, size domain.CoverSize) (ProfileResponse, error) {
	logoURL, err := s.services.Profile.LogoURL(ctx, p.UserID, size)
	if err != nil {
		return ProfileResponse{}, err
	}
	names := make(map[string]string, len(p.GroupNames))
	for g, name := range p.GroupNames {
		names[strconv.Itoa(g)] = name
	}
	return ProfileResponse{
		UserID:     p.UserID,
		About:      p.About,
		URL:        p.URL,
		Logo:       p.Logo,
		LogoURL:    logoURL,
		GroupNames: names,
	}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *GetProfileInput) (*ProfileOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}
	if !domain.ValidCoverSize(input.LogoSize) {
		return nil, toAPIError(domainerrors.ValidationWithDetails("unknown cover size", map[string]string{"logo_size": input.LogoSize}))
	}

	p, err := s.services.Profile.Get(ctx, input.User)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp, err := s.profileResponse(ctx, p, domain.CoverSize(input.LogoSize))
	if err != nil {
		return nil, toAPIError(err)
	}
	return &ProfileOutput{Body: resp}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	p, err := s.services.Profile.SaveProfile(ctx, input.User, input.Body)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp, err := s.profileResponse(ctx, p, domain.CoverThumbnail)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &ProfileOutput{Body: resp}, nil
}

func (s *Server) handleSetProfileLogo(ctx context.Context, input *SetLogoInput) (*ProfileOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	body := input.Body
	var err error
	switch {
	case body.Clear:
		err = s.services.Profile.ClearLogo(ctx, input.User)
	case len(body.Image) > MaxUploadSize:
		err = domainerrors.ValidationWithDetails("image too large", map[string]int{"max_bytes": MaxUploadSize})
	case len(body.Image) > 0:
		_, err = s.services.Profile.UploadLogo(ctx, input.User, body.Image)
	case body.URL != "":
		_, err = s.services.Profile.SetLogoFromURL(ctx, input.User, body.URL)
	case body.Ref != "":
		err = s.services.Profile.SetLogo(ctx, input.User, body.Ref)
	default:
		err = domainerrors.Validation("one of ref, url, image or clear is required")
	}
	if err != nil {
		return nil, toAPIError(err)
	}

	p, err := s.services.Profile.Get(ctx, input.User)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp, err := s.profileResponse(ctx, p, domain.CoverThumbnail)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &ProfileOutput{Body: resp}, nil
}
