// Package response provides the JSON envelope shared by every HTTP response
// and helpers for handlers that write to http.ResponseWriter directly.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
	"github.com/shelfwise/catalog-server/internal/store"
)

// Version is the envelope schema version.
const Version = 1

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Wrap builds a success envelope around data.
func Wrap(data any) Envelope {
	return Envelope{V: Version, Success: true, Data: data}
}

// Failure builds an error envelope.
func Failure(code, message string, details any) Envelope {
	return Envelope{V: Version, Success: false, Error: message, Code: code, Details: details}
}

// JSON writes an envelope with the given status code. Statuses of 400 and
// above are written as failures carrying data as details.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	env := Wrap(data)
	if status >= http.StatusBadRequest {
		env = Failure(codeForStatus(status), http.StatusText(status), data)
	}
	write(w, status, env, logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, Failure(codeForStatus(status), message, nil), logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	w.Header().Set("Retry-After", "1")
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain and store errors keep their status; unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		write(w, domainErr.HTTPStatus(), Failure(string(domainErr.Code), domainErr.Message, domainErr.Details), logger)
		return
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		Error(w, storeErr.HTTPCode(), storeErr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}

// CodeForStatus maps an HTTP status onto a domain error code.
func CodeForStatus(status int) domainerrors.Code {
	return domainerrors.Code(codeForStatus(status))
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeStorage)
	default:
		return string(domainerrors.CodeInternal)
	}
}

func write(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
