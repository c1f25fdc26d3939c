package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shelfwise/catalog-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope. Errors become failure envelopes carrying their code and details.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Failure(body.Code, body.Message, body.Details), nil
	case error:
		code, _ := strconv.Atoi(status)
		return response.Failure(string(response.CodeForStatus(code)), body.Error(), nil), nil
	}

	if code, err := strconv.Atoi(status); err == nil && code >= http.StatusBadRequest {
		return response.Failure(string(response.CodeForStatus(code)), http.StatusText(code), v), nil
	}
	return response.Wrap(v), nil
}

// requestLogger logs one line per request at debug level, and at warn for
// server errors.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
