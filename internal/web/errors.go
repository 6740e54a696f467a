package web

// errors.go provides unified error responses for the API.
//
// Every error is logged with its technical detail and the request ID, and
// the client receives the mapped user message with a support code:
//
//	{"error": "...", "message": "...", "action": "...", "code": "FILE001"}

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importjob"
	"github.com/JonMunkholm/solarimport/internal/logging"
	"github.com/JonMunkholm/solarimport/internal/parser"
	"github.com/JonMunkholm/solarimport/internal/store"
)

// Request errors raised by the handlers themselves.
var (
	ErrNoFile           = errors.New("no file provided")
	ErrInvalidMapping   = errors.New("invalid mapping")
	ErrInvalidBody      = errors.New("invalid request body")
	errRequestRateLimit = errors.New("request rate limit exceeded")
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form. A status of 0
// derives the status from err.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	msg := importer.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, importer.ErrSchemaNotFound),
		errors.Is(err, importjob.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, importer.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, importer.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrNoFile),
		errors.Is(err, ErrInvalidMapping),
		errors.Is(err, ErrInvalidBody),
		errors.Is(err, importjob.ErrInvalidPreset),
		errors.Is(err, importer.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, importer.ErrTooManyRows),
		errors.Is(err, parser.ErrInvalidCSV),
		errors.Is(err, parser.ErrInvalidSpreadsheet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, importjob.ErrRateLimited), errors.Is(err, errRequestRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, importjob.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
