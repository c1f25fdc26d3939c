package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/catalog-server/internal/domain"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAggregate",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalogs/{user}",
		Summary:     "Get aggregated catalog",
		Description: "Returns the user's curated entries followed by discovered publications",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetAggregate)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCatalog",
		Method:      http.MethodDelete,
		Path:        "/api/v1/catalogs/{user}",
		Summary:     "Delete catalog",
		Description: "Soft-deletes every entry of the catalog. Hard deletes are root only and also drop the profile",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEntries",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalogs/{user}/entries",
		Summary:     "List catalog entries",
		Description: "Returns the visible catalog rows in insertion order; soft-deleted rows are omitted",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListEntries)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkEntries",
		Method:      http.MethodPost,
		Path:        "/api/v1/catalogs/{user}/entries/bulk",
		Summary:     "Add or remove publications",
		Description: "Adds (restores) or removes (soft-deletes) a batch of publications",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkEntries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalogs/{user}/entries/{publication}",
		Summary:     "Get catalog entry",
		Description: "Returns one catalog row with its tags per group",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsertEntry",
		Method:      http.MethodPut,
		Path:        "/api/v1/catalogs/{user}/entries/{publication}",
		Summary:     "Upsert catalog entry",
		Description: "Creates the row or updates only the supplied fields",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpsertEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/catalogs/{user}/entries/{publication}",
		Summary:     "Delete catalog entry",
		Description: "Soft-deletes the entry. With hard=true (root only) removes the row and its tag links",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "editEntry",
		Method:      http.MethodPut,
		Path:        "/api/v1/catalogs/{user}/entries/{publication}/tags",
		Summary:     "Edit entry",
		Description: "Sets the featured rank and replaces every tag group from its comma separated string",
		Tags:        []string{"Catalogs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEditEntry)
}

// === DTOs ===

// EntryResponse contains a catalog row in API responses.
type EntryResponse struct {
	UserID        string              `json:"user_id" doc:"Catalog owner"`
	PublicationID string              `json:"publication_id" doc:"Publication ID"`
	Deleted       bool                `json:"deleted" doc:"Soft-delete flag"`
	Featured      int                 `json:"featured" doc:"Featured rank"`
	Tags          map[string][]string `json:"tags,omitempty" doc:"Tag texts per group"`
	CreatedAt     time.Time           `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time           `json:"updated_at" doc:"Last update time"`
}

func entryResponse(e *domain.CatalogEntry) EntryResponse {
	return EntryResponse{
		UserID:        e.UserID,
		PublicationID: e.PublicationID,
		Deleted:       e.Deleted,
		Featured:      e.Featured,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// GetAggregateInput contains parameters for reading an aggregated catalog.
type GetAggregateInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Refresh       bool   `query:"refresh" doc:"Rebuild without consulting the cache"`
}

// AggregateOutput wraps the aggregated view for Huma.
type AggregateOutput struct {
	Body *domain.AggregatedView
}

// DeleteCatalogInput contains parameters for deleting a whole catalog.
type DeleteCatalogInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Hard          bool   `query:"hard" doc:"Remove rows instead of soft-deleting them (root only)"`
}

// DeleteCatalogResponse reports the number of affected rows.
type DeleteCatalogResponse struct {
	Affected     int64 `json:"affected" doc:"Catalog rows affected"`
	ProfileAttrs int   `json:"profile_attributes_deleted,omitempty" doc:"Profile attributes removed by a hard delete"`
}

// DeleteCatalogOutput wraps the delete response for Huma.
type DeleteCatalogOutput struct {
	Body DeleteCatalogResponse
}

// ListEntriesInput contains parameters for listing catalog rows.
type ListEntriesInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
}

// ListEntriesResponse contains catalog rows.
type ListEntriesResponse struct {
	Entries []EntryResponse `json:"entries" doc:"Catalog rows"`
}

// ListEntriesOutput wraps the list response for Huma.
type ListEntriesOutput struct {
	Body ListEntriesResponse
}

// Bulk actions.
const (
	bulkAdd    = "add"
	bulkRemove = "remove"
)

// BulkEntriesRequest is the request body for bulk add or remove.
type BulkEntriesRequest struct {
	Action         string   `json:"action" validate:"required,oneof=add remove" doc:"add or remove"`
	PublicationIDs []string `json:"publication_ids" validate:"required,min=1,dive,identifier" doc:"Publication IDs"`
}

// BulkEntriesInput wraps the bulk request for Huma.
type BulkEntriesInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Body          BulkEntriesRequest
}

// EntryInput contains parameters addressing one catalog entry.
type EntryInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Publication   string `path:"publication" doc:"Publication ID"`
}

// EntryOutput wraps one catalog row for Huma.
type EntryOutput struct {
	Body EntryResponse
}

// UpsertEntryRequest is the request body for an entry upsert.
type UpsertEntryRequest struct {
	Deleted  *bool `json:"deleted,omitempty" doc:"Soft-delete flag"`
	Featured *int  `json:"featured,omitempty" validate:"omitempty,gte=0" doc:"Featured rank"`
}

// UpsertEntryInput wraps the upsert request for Huma.
type UpsertEntryInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Body          UpsertEntryRequest
}

// DeleteEntryInput contains parameters for deleting an entry.
type DeleteEntryInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Hard          bool   `query:"hard" doc:"Remove the row and its tag links (root only)"`
}

// EditEntryRequest is the request body for the combined edit.
type EditEntryRequest struct {
	Featured *int `json:"featured,omitempty" validate:"omitempty,gte=0" doc:"Featured rank"`
	// Tags maps a group number to its comma separated tag string. Groups
	// missing from the map are cleared.
	Tags map[string]string `json:"tags,omitempty" doc:"Comma separated tag strings keyed by group number"`
}

// EditEntryInput wraps the edit request for Huma.
type EditEntryInput struct {
	Authorization string `header:"Authorization"`
	User          string `path:"user" doc:"Catalog owner"`
	Publication   string `path:"publication" doc:"Publication ID"`
	Body          EditEntryRequest
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleGetAggregate(ctx context.Context, input *GetAggregateInput) (*AggregateOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	get := s.services.Aggregates.GetAggregate
	if input.Refresh {
		get = s.services.Aggregates.Build
	}
	view, err := get(ctx, input.User)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &AggregateOutput{Body: view}, nil
}

func (s *Server) handleDeleteCatalog(ctx context.Context, input *DeleteCatalogInput) (*DeleteCatalogOutput, error) {
	identity, err := s.requireActor(ctx, input.Authorization, input.User)
	if err != nil {
		return nil, err
	}
	if input.Hard && !identity.Root {
		return nil, toAPIError(domainerrors.Forbidden("hard delete requires root"))
	}

	n, err := s.services.Catalog.DeleteCatalog(ctx, input.User, input.Hard)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp := DeleteCatalogResponse{Affected: n}

	if input.Hard {
		attrs, err := s.services.Profile.DeleteProfile(ctx, input.User)
		if err != nil {
			return nil, toAPIError(err)
		}
		resp.ProfileAttrs = attrs
	}

	s.logger.Info("catalog deleted", "user_id", input.User, "hard", input.Hard, "affected", n, "by", identity.UserID)
	return &DeleteCatalogOutput{Body: resp}, nil
}

func (s *Server) handleListEntries(ctx context.Context, input *ListEntriesInput) (*ListEntriesOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	entries, err := s.services.Catalog.List(ctx, input.User)
	if err != nil {
		return nil, toAPIError(err)
	}

	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse(e)
	}
	return &ListEntriesOutput{Body: ListEntriesResponse{Entries: resp}}, nil
}

func (s *Server) handleBulkEntries(ctx context.Context, input *BulkEntriesInput) (*MessageOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	var err error
	switch input.Body.Action {
	case bulkAdd:
		err = s.services.Catalog.AddPublications(ctx, input.User, input.Body.PublicationIDs)
	case bulkRemove:
		err = s.services.Catalog.RemovePublications(ctx, input.User, input.Body.PublicationIDs)
	}
	if err != nil {
		return nil, toAPIError(err)
	}

	verb := "added"
	if input.Body.Action == bulkRemove {
		verb = "removed"
	}
	msg := strconv.Itoa(len(input.Body.PublicationIDs)) + " publications " + verb
	return &MessageOutput{Body: MessageResponse{Message: msg}}, nil
}

func (s *Server) handleGetEntry(ctx context.Context, input *EntryInput) (*EntryOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}

	entry, found, err := s.services.Catalog.Get(ctx, input.User, input.Publication)
	if err != nil {
		return nil, toAPIError(err)
	}
	if !found {
		return nil, toAPIError(domainerrors.NotFound("catalog entry not found"))
	}

	resp := entryResponse(entry)
	resp.Tags = make(map[string][]string, s.services.Tags.Groups())
	for g := 1; g <= s.services.Tags.Groups(); g++ {
		tags, err := s.services.Tags.TagsForEntry(ctx, input.User, input.Publication, g)
		if err != nil {
			return nil, toAPIError(err)
		}
		texts := make([]string, len(tags))
		for i, t := range tags {
			texts[i] = t.Text
		}
		resp.Tags[strconv.Itoa(g)] = texts
	}
	return &EntryOutput{Body: resp}, nil
}

func (s *Server) handleUpsertEntry(ctx context.Context, input *UpsertEntryInput) (*EntryOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	fields := domain.EntryFields{Deleted: input.Body.Deleted, Featured: input.Body.Featured}
	if err := s.services.Catalog.Upsert(ctx, input.User, input.Publication, fields); err != nil {
		return nil, toAPIError(err)
	}

	entry, found, err := s.services.Catalog.Get(ctx, input.User, input.Publication)
	if err != nil {
		return nil, toAPIError(err)
	}
	if !found {
		return nil, toAPIError(domainerrors.Internal("entry missing after upsert"))
	}
	return &EntryOutput{Body: entryResponse(entry)}, nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, input *DeleteEntryInput) (*MessageOutput, error) {
	identity, err := s.requireActor(ctx, input.Authorization, input.User)
	if err != nil {
		return nil, err
	}

	if input.Hard {
		if !identity.Root {
			return nil, toAPIError(domainerrors.Forbidden("hard delete requires root"))
		}
		if err := s.services.Catalog.HardDelete(ctx, input.User, input.Publication); err != nil {
			return nil, toAPIError(err)
		}
		return &MessageOutput{Body: MessageResponse{Message: "Entry removed"}}, nil
	}

	if err := s.services.Catalog.SoftDelete(ctx, input.User, input.Publication); err != nil {
		return nil, toAPIError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Entry deleted"}}, nil
}

func (s *Server) handleEditEntry(ctx context.Context, input *EditEntryInput) (*EntryOutput, error) {
	if _, err := s.requireActor(ctx, input.Authorization, input.User); err != nil {
		return nil, err
	}
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	tagStrings := make(map[int]string, len(input.Body.Tags))
	for key, value := range input.Body.Tags {
		g, err := strconv.Atoi(key)
		if err != nil {
			return nil, toAPIError(domainerrors.ValidationWithDetails("tag group keys must be numbers", map[string]string{"group": key}))
		}
		tagStrings[g] = value
	}

	if err := s.services.Catalog.EditEntry(ctx, input.User, input.Publication, input.Body.Featured, tagStrings); err != nil {
		return nil, toAPIError(err)
	}

	return s.handleGetEntry(ctx, &EntryInput{
		Authorization: input.Authorization,
		User:          input.User,
		Publication:   input.Publication,
	})
}
