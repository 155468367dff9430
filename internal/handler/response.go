package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/packvault/packvault/internal/ctxkeys"
	"github.com/packvault/packvault/internal/formdata"
	"github.com/packvault/packvault/internal/service"
	"github.com/packvault/packvault/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// statusFor maps a service error to the HTTP status reported to the client
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, formdata.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, validation.ErrFileTypeMismatch):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest
	}

	switch service.KindOf(err) {
	case service.KindClientInput:
		return http.StatusBadRequest
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Client errors carry the error text since it
// names the offending field or rule; server errors are logged and masked.
func respondError(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	status := statusFor(err)

	message := err.Error()
	switch {
	case status >= http.StatusInternalServerError:
		attrs = append(attrs, "error", err, "request_id", ctxkeys.RequestID(r.Context()))
		slog.Error("request failed", attrs...)
		message = "internal error"
	case errors.Is(err, context.Canceled):
		message = "request cancelled"
	default:
		attrs = append(attrs, "error", err, "status", status)
		slog.Debug("request rejected", attrs...)
	}

	writeJSON(w, status, errorResponse{Error: message})
}
