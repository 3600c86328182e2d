package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
)

// maxRequestBodyBytes caps the JSON array of part numbers.
const maxRequestBodyBytes = 1 << 20

// CompatibilityChecker is implemented by app.CompatibilityService.
type CompatibilityChecker interface {
	CheckCompatibility(ctx context.Context, rawPartNumbers []string) (domain.ResultMap, error)
}

// CompatibilityHandler serves the client tools compatibility endpoint.
type CompatibilityHandler struct {
	service  CompatibilityChecker
	logger   *slog.Logger
	validate *validator.Validate
}

func NewCompatibilityHandler(service CompatibilityChecker, logger *slog.Logger, validate *validator.Validate) *CompatibilityHandler {
	return &CompatibilityHandler{
		service:  service,
		logger:   logger.With("handler", "compatibility"),
		validate: validate,
	}
}

func (h *CompatibilityHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/CheckCompatibility", h.CheckCompatibility)
}

// CheckCompatibility accepts a JSON array of part numbers and responds with
// a map from each unique, valid, non-excluded part number to its compatible
// parts. Any invalid entry rejects the whole request with 400.
func (h *CompatibilityHandler) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chimiddleware.GetReqID(ctx))

	var partNumbers []string
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&partNumbers); err != nil {
		logger.InfoContext(ctx, "Rejected malformed request body", "error", err)
		respondWithError(w, http.StatusBadRequest, "invalid_json", "expected a JSON array of part number strings: "+err.Error())
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		logger.InfoContext(ctx, "Rejected request body with trailing data")
		respondWithError(w, http.StatusBadRequest, "invalid_json", "expected a single JSON array of part number strings, found trailing data")
		return
	}

	if err := h.validate.VarCtx(ctx, partNumbers, "required,min=1"); err != nil {
		logger.InfoContext(ctx, "Rejected empty part number list")
		respondWithError(w, http.StatusBadRequest, "no_input", domain.ErrNoInput.Error())
		return
	}

	result, err := h.service.CheckCompatibility(ctx, partNumbers)
	if err != nil {
		status, code := mapErrorToHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Compatibility check failed", "error", err)
		}
		respondWithError(w, status, code, err.Error())
		return
	}
	if result == nil {
		result = domain.ResultMap{}
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Health reports liveness.
func (h *CompatibilityHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, HealthResponse{Status: "Client tools service is healthy"})
}
