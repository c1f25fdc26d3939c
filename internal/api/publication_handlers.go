package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
)

func (s *Server) registerPublicationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPublication",
		Method:      http.MethodGet,
		Path:        "/api/v1/publications/{publication}",
		Summary:     "Get publication",
		Description: "Returns the publication's directory record",
		Tags:        []string{"Publications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPublication)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsertPublication",
		Method:      http.MethodPut,
		Path:        "/api/v1/publications/{publication}",
		Summary:     "Upsert publication",
		Description: "Creates or replaces a directory record (root only)",
		Tags:        []string{"Publications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpsertPublication)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPublicationCover",
		Method:      http.MethodPut,
		Path:        "/api/v1/publications/{publication}/cover",
		Summary:     "Set publication cover",
		Description: "Stores uploaded image bytes as the cover (root only)",
		Tags:        []string{"Publications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetPublicationCover)

	huma.Register(s.api, huma.Operation{
		OperationID: "addPublicationMember",
		Method:      http.MethodPut,
		Path:        "/api/v1/publications/{publication}/members/{user}",
		Summary:     "Add publication member",
		Description: "Links a user to the publication so their catalog discovers it (root only)",
		Tags:        []string{"Publications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddPublicationMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePublicationMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/publications/{publication}/members/{user}",
		Summary:     "Remove publication member",
		Description: "Unlinks a user from the publication (root only)",
		Tags:        []string{"Publications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemovePublicationMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "invalidatePublication",
		Method:      http.MethodPost,
		Path:        "/api/v1/publications/{publication}/invalidate",
		Summary:     "Invalidate publication",
		Description: "Drops the cached aggregate of every user whose catalog can name the publication (root only)",
		Tags:        []string{"Publications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleInvalidatePublication)
}

// === DTOs ===

// PublicationInput addresses one publication.
type PublicationInput struct {
	Authorization string `header:"Authorization"`
	Publication   string `path:"publication" doc:"Publication ID"`
}

// PublicationOutput wraps a directory record for Huma.
type PublicationOutput struct {
	Body *domain.Publication
}

// UpsertPublicationRequest is the request body for a directory upsert.
type UpsertPublicationRequest struct {
	Name            string     `json:"name" validate:"required,max=255" doc:"Display name"`
	Public          bool       `json:"public,omitempty" doc:"Visible to everyone"`
	Primary         bool       `json:"primary,omitempty" doc:"Primary container, never aggregated"`
	MetadataVersion int        `json:"metadata_version,omitempty" validate:"gte=0" doc:"Metadata schema version"`
	Title           string     `json:"title,omitempty" doc:"Title"`
	Author          string     `json:"author,omitempty" doc:"Author"`
	PublishedAt     *time.Time `json:"published_at,omitempty" doc:"Publish time"`
	AboutShort      string     `json:"about_short,omitempty" doc:"Short synopsis"`
	AboutMedium     string     `json:"about_medium,omitempty" doc:"Medium synopsis"`
	AboutLong       string     `json:"about_long,omitempty" doc:"Long synopsis"`
	CoverRef        string     `json:"cover_ref,omitempty" doc:"Stored cover reference or absolute URL"`
}

// UpsertPublicationInput wraps the upsert request for Huma.
type UpsertPublicationInput struct {
	Authorization string `header:"Authorization"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Body          UpsertPublicationRequest
}

// SetCoverRequest is the request body for a cover upload.
type SetCoverRequest struct {
	Image []byte `json:"image" validate:"required" doc:"Base64 image bytes"`
}

// SetCoverInput wraps the cover upload for Huma.
type SetCoverInput struct {
	Authorization string `header:"Authorization"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Body          SetCoverRequest
}

// CoverResponse names the stored cover.
type CoverResponse struct {
	Ref string `json:"ref" doc:"Stored cover reference"`
}

// CoverOutput wraps the cover response for Huma.
type CoverOutput struct {
	Body CoverResponse
}

// MemberRequest is the request body for adding a member.
type MemberRequest struct {
	Role string `json:"role,omitempty" validate:"omitempty,oneof=owner editor" doc:"owner or editor"`
}

// AddMemberInput wraps the member request for Huma.
type AddMemberInput struct {
	Authorization string `header:"Authorization"`
	Publication   string `path:"publication" doc:"Publication ID"`
	User          string `path:"user" doc:"Member user ID"`
	Body          MemberRequest
}

// RemoveMemberInput addresses one membership.
type RemoveMemberInput struct {
	Authorization string `header:"Authorization"`
	Publication   string `path:"publication" doc:"Publication ID"`
	User          string `path:"user" doc:"Member user ID"`
}

// InvalidateResponse reports how many aggregates were dropped.
type InvalidateResponse struct {
	Users int `json:"users" doc:"Users whose cached aggregate was dropped"`
}

// InvalidateOutput wraps the invalidation response for Huma.
type InvalidateOutput struct {
	Body InvalidateResponse
}

// === Handlers ===

func (s *Server) handleGetPublication(ctx context.Context, input *PublicationInput) (*PublicationOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	p, err := s.services.Directory.Get(ctx, input.Publication)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &PublicationOutput{Body: p}, nil
}

func (s *Server) handleUpsertPublication(ctx context.Context, input *UpsertPublicationInput) (*PublicationOutput, error) {
	if _, err := s.requireRoot(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	b := input.Body
	p, err := s.services.Directory.UpsertPublication(ctx, &domain.Publication{
		ID:              input.Publication,
		Name:            b.Name,
		Public:          b.Public,
		Primary:         b.Primary,
		MetadataVersion: b.MetadataVersion,
		Title:           b.Title,
		Author:          b.Author,
		PublishedAt:     b.PublishedAt,
		AboutShort:      b.AboutShort,
		AboutMedium:     b.AboutMedium,
		AboutLong:       b.AboutLong,
		CoverRef:        b.CoverRef,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &PublicationOutput{Body: p}, nil
}

func (s *Server) handleSetPublicationCover(ctx context.Context, input *SetCoverInput) (*CoverOutput, error) {
	if _, err := s.requireRoot(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}
	if len(input.Body.Image) > MaxUploadSize {
		return nil, toAPIError(domainerrors.ValidationWithDetails("image too large", map[string]int{"max_bytes": MaxUploadSize}))
	}

	ref, err := s.services.Directory.SetCover(ctx, input.Publication, input.Body.Image)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &CoverOutput{Body: CoverResponse{Ref: ref}}, nil
}

func (s *Server) handleAddPublicationMember(ctx context.Context, input *AddMemberInput) (*MessageOutput, error) {
	if _, err := s.requireRoot(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	role := input.Body.Role
	if role == "" {
		role = "owner"
	}
	if err := s.services.Directory.AddMember(ctx, input.Publication, input.User, role); err != nil {
		return nil, toAPIError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Member added"}}, nil
}

func (s *Server) handleRemovePublicationMember(ctx context.Context, input *RemoveMemberInput) (*MessageOutput, error) {
	if _, err := s.requireRoot(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Directory.RemoveMember(ctx, input.Publication, input.User); err != nil {
		return nil, toAPIError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Member removed"}}, nil
}

func (s *Server) handleInvalidatePublication(ctx context.Context, input *PublicationInput) (*InvalidateOutput, error) {
	identity, err := s.requireRoot(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	n, err := s.services.Aggregates.InvalidateByPublication(ctx, input.Publication)
	if err != nil {
		return nil, toAPIError(err)
	}
	s.logger.Info("publication invalidated", "publication_id", input.Publication, "users", n, "by", identity.UserID)
	return &InvalidateOutput{Body: InvalidateResponse{Users: n}}, nil
}
