package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
)

// respondWithJSON writes payload without a trailing newline so an empty
// result is exactly "{}".
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		slog.Default().Error("Failed to write JSON response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message, details string) {
	respondWithJSON(w, code, GenericErrorResponse{Error: message, Details: details})
}

// mapErrorToHTTPStatus converts pipeline errors to an HTTP status and an
// error code for the response body.
func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoInput):
		return http.StatusBadRequest, "no_input"
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid_part_number"
	case errors.Is(err, domain.ErrCollaboratorFailure):
		return http.StatusBadGateway, "upstream_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
