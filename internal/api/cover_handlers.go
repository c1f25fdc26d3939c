package api

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shelfwise/catalog-server/internal/domain"
	"github.com/shelfwise/catalog-server/internal/http/response"
	"github.com/shelfwise/catalog-server/internal/media/images"
)

// handleServeCover streams one stored rendition. Covers are immutable per
// reference, so responses carry a long cache lifetime and a content ETag.
func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	size := strings.TrimSuffix(chi.URLParam(r, "size"), ".jpg")

	if !images.ValidRef(ref) || !domain.ValidCoverSize(size) {
		response.Error(w, http.StatusBadRequest, "invalid cover reference or size", s.logger)
		return
	}
	if s.covers == nil {
		response.NotFound(w, "cover not found", s.logger)
		return
	}

	data, err := s.covers.Get(ref, domain.CoverSize(size))
	if err != nil {
		if errors.Is(err, images.ErrNotFound) {
			response.NotFound(w, "cover not found", s.logger)
			return
		}
		s.logger.Error("failed to read cover", "ref", ref, "size", size, "error", err)
		response.InternalError(w, "failed to read cover", s.logger)
		return
	}

	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(data))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", CacheOneWeek)
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("cover write interrupted", "ref", ref, "error", err)
	}
}
