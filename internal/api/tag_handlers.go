package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUserTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalogs/{user}/tags/{group}",
		Summary:     "List tags in a group",
		Description: "Returns the distinct tags the user applied in a group, ordered by text",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUserTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEntriesByTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalogs/{user}/tags/{group}/{tag}/entries",
		Summary:     "List entries by tag",
		Description: "Returns the user's non-deleted entries carrying the tag in a group",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListEntriesByTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "addEntryTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalogs/{user}/entries/{publication}/tags/{group}",
		Summary:     "Tag an entry",
		Description: "Normalizes the text, creates the tag if needed and links it to the entry",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddEntryTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeEntryTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/catalogs/{user}/entries/{publication}/tags/{group}/{text}",
		Summary:     "Untag an entry",
		Description: "Removes one tag link from the entry's group",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveEntryTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "purgeTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{text}",
		Summary:     "Purge tag",
		Description: "Removes the tag and every link to it (root only)",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePurgeTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "purgeOrphanTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/purge-orphans",
		Summary:     "Purge orphan tags",
		Description: "Deletes tags that no entry links to (root only)",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePurgeOrphanTags)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Text      string    `json:"text" doc:"Normalized tag text"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

func tagResponse(t *domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Text: t.Text, CreatedAt: t.CreatedAt}
}

// TagUsageResponse is a tag with its usage count in one catalog.
type TagUsageResponse struct {
	TagResponse
	Count int `json:"count" doc:"Entries carrying the tag"`
}

// ListUserTagsInput contains parameters for listing a user's tags.
type ListUserTagsInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Group         int    `path:"group" doc:"Tag group number"`
	IncludeHidden bool   `query:"include_hidden" doc:"Include tags only attached to soft-deleted entries"`
}

// ListUserTagsResponse contains a user's tags in one group.
type ListUserTagsResponse struct {
	Group int                `json:"group" doc:"Tag group number"`
	Tags  []TagUsageResponse `json:"tags" doc:"Tags ordered by text"`
}

// ListUserTagsOutput wraps the list response for Huma.
type ListUserTagsOutput struct {
	Body ListUserTagsResponse
}

// ListEntriesByTagInput contains parameters for listing entries by tag.
type ListEntriesByTagInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Group         int    `path:"group" doc:"Tag group number"`
	Tag           string `path:"tag" doc:"Tag ID"`
}

// AddEntryTagRequest is the request body for tagging an entry.
type AddEntryTagRequest struct {
	Text string `json:"text" validate:"required,max=1024" doc:"Tag text, normalized before storage"`
}

// AddEntryTagInput wraps the tag request for Huma.
type AddEntryTagInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Group         int    `path:"group" doc:"Tag group number"`
	Body          AddEntryTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// RemoveEntryTagInput contains parameters for untagging an entry.
type RemoveEntryTagInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Group         int    `path:"group" doc:"Tag group number"`
	Text          string `path:"text" doc:"Tag text"`
}

// PurgeTagInput contains parameters for purging a tag.
type PurgeTagInput struct {
	Authorization string `header:"Authorization"`
	Text          string `path:"text" doc:"Tag text"`
}

// DeletedResponse reports whether anything was removed.
type DeletedResponse struct {
	Deleted bool `json:"deleted" doc:"False when no tag has that text"`
}

// DeletedOutput wraps the delete response for Huma.
type DeletedOutput struct {
	Body DeletedResponse
}

// PurgeOrphanTagsInput contains parameters for the orphan purge.
type PurgeOrphanTagsInput struct {
	Authorization string `header:"Authorization"`
}

// PurgeOrphanTagsResponse reports how many tags were removed.
type PurgeOrphanTagsResponse struct {
	Purged int64 `json:"purged" doc:"Tags removed"`
}

// PurgeOrphanTagsOutput wraps the purge response for Huma.
type PurgeOrphanTagsOutput struct {
	Body PurgeOrphanTagsResponse
}

// === Handlers ===

func (s *Server) handleListUserTags(ctx context.Context, input *ListUserTagsInput) (*ListUserTagsOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	usages, err := s.services.Tags.TagsForUser(ctx, input.User, input.Group, input.IncludeHidden)
	if err != nil {
		return nil, toAPIError(err)
	}

	resp := make([]TagUsageResponse, len(usages))
	for i := range usages {
		resp[i] = TagUsageResponse{TagResponse: tagResponse(&usages[i].Tag), Count: usages[i].Count}
	}
	return &ListUserTagsOutput{Body: ListUserTagsResponse{Group: input.Group, Tags: resp}}, nil
}

func (s *Server) handleListEntriesByTag(ctx context.Context, input *ListEntriesByTagInput) (*ListEntriesOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	entries, err := s.services.Tags.ListByTag(ctx, input.User, input.Group, input.Tag)
	if err != nil {
		return nil, toAPIError(err)
	}

	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse(e)
	}
	return &ListEntriesOutput{Body: ListEntriesResponse{Entries: resp}}, nil
}

func (s *Server) handleAddEntryTag(ctx context.Context, input *AddEntryTagInput) (*TagOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.SaveTag(ctx, input.Body.Text, input.User, input.Publication, input.Group)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &TagOutput{Body: tagResponse(tag)}, nil
}

func (s *Server) handleRemoveEntryTag(ctx context.Context, input *RemoveEntryTagInput) (*DeletedOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	deleted, err := s.services.Tags.DeleteTag(ctx, input.User, input.Publication, input.Group, input.Text, false)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &DeletedOutput{Body: DeletedResponse{Deleted: deleted}}, nil
}

func (s *Server) handlePurgeTag(ctx context.Context, input *PurgeTagInput) (*DeletedOutput, error) {
	identity, err := s.requireRoot(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if input.Text == "" {
		return nil, toAPIError(domainerrors.Validation("tag text is required"))
	}

	deleted, err := s.services.Tags.PurgeTagByText(ctx, input.Text)
	if err != nil {
		return nil, toAPIError(err)
	}
	s.logger.Info("tag purge requested", "text", input.Text, "deleted", deleted, "by", identity.UserID)
	return &DeletedOutput{Body: DeletedResponse{Deleted: deleted}}, nil
}

func (s *Server) handlePurgeOrphanTags(ctx context.Context, input *PurgeOrphanTagsInput) (*PurgeOrphanTagsOutput, error) {
	if _, err := s.requireRoot(ctx, input.Authorization); err != nil {
		return nil, err
	}

	n, err := s.services.Tags.PurgeOrphanTags(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &PurgeOrphanTagsOutput{Body: PurgeOrphanTagsResponse{Purged: n}}, nil
}
