package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
	"github.com/partstrader/client_tools/internal/platform/messagebroker"
)

// EventPublisher is the subset of messagebroker.NATSClient the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

var _ EventPublisher = (messagebroker.NATSClient)(nil)

// CompatibilityService validates part numbers, filters them through the
// exclusion list and looks up compatible parts for whatever is left.
// It holds no per-request state and is safe for concurrent use as long as
// its collaborators are.
type CompatibilityService struct {
	exclusions domain.ExclusionSource
	lookup     domain.CompatiblePartsLookup
	publisher  EventPublisher // nil disables event publication
	logger     *slog.Logger
}

// NewCompatibilityService wires the service. publisher may be nil.
func NewCompatibilityService(exclusions domain.ExclusionSource, lookup domain.CompatiblePartsLookup, publisher EventPublisher, logger *slog.Logger) *CompatibilityService {
	return &CompatibilityService{
		exclusions: exclusions,
		lookup:     lookup,
		publisher:  publisher,
		logger:     logger.With("component", "compatibility_service"),
	}
}

// CheckCompatibility runs the validate, deduplicate, exclude and lookup
// pipeline over rawPartNumbers.
//
// The first entry that fails validation aborts the whole batch with an
// *domain.InvalidPartError; no collaborator is called in that case and no
// partial result is returned. Exclusion or lookup failures come back as
// *domain.CollaboratorError. When every valid part is excluded the result is
// an empty, non-nil map.
func (s *CompatibilityService) CheckCompatibility(ctx context.Context, rawPartNumbers []string) (domain.ResultMap, error) {
	logger := s.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if len(rawPartNumbers) == 0 {
		compatibilityChecksCounter.WithLabelValues(outcomeNoInput).Inc()
		return nil, domain.ErrNoInput
	}

	parts, err := validateAndDedupe(rawPartNumbers)
	if err != nil {
		compatibilityChecksCounter.WithLabelValues(outcomeInvalidFormat).Inc()
		logger.InfoContext(ctx, "Rejected batch with invalid part number", "error", err, "batch_size", len(rawPartNumbers))
		return nil, err
	}

	loadStart := time.Now()
	records, err := s.exclusions.LoadExclusions(ctx)
	exclusionLoadDurationHist.Observe(time.Since(loadStart).Seconds())
	if err != nil {
		compatibilityChecksCounter.WithLabelValues(outcomeExclusionFailure).Inc()
		logger.ErrorContext(ctx, "Failed to load exclusion list", "error", err)
		return nil, &domain.CollaboratorError{Collaborator: collaboratorExclusionName, Err: err}
	}
	excluded := domain.NewExclusionSet(records)

	result := make(domain.ResultMap, len(parts))
	var excludedParts []string
	for _, part := range parts {
		if excluded.IsExcluded(part.PartNumber) {
			excludedParts = append(excludedParts, part.PartNumber)
			logger.DebugContext(ctx, "Part is on the exclusion list", "part_number", part.PartNumber)
			continue
		}

		lookupStart := time.Now()
		compatible, err := s.lookup.Lookup(ctx, part)
		lookupDurationHist.WithLabelValues(s.lookup.Name()).Observe(time.Since(lookupStart).Seconds())
		if err != nil {
			compatibilityChecksCounter.WithLabelValues(outcomeLookupFailure).Inc()
			logger.ErrorContext(ctx, "Compatible parts lookup failed", "part_number", part.PartNumber, "lookup", s.lookup.Name(), "error", err)
			return nil, &domain.CollaboratorError{Collaborator: s.lookup.Name(), PartNumber: part.PartNumber, Err: err}
		}
		if compatible == nil {
			compatible = []domain.PartItem{}
		}
		result[part.PartNumber] = compatible
	}
	partsExcludedCounter.Add(float64(len(excludedParts)))
	compatibilityChecksCounter.WithLabelValues(outcomeSuccess).Inc()

	logger.InfoContext(ctx, "Compatibility check complete",
		"requested", len(rawPartNumbers),
		"unique", len(parts),
		"excluded", len(excludedParts),
		"returned", len(result))

	s.publishChecked(ctx, logger, parts, excludedParts, result)
	return result, nil
}

// validateAndDedupe parses every entry in order, stopping at the first
// invalid one, and keeps the first occurrence of each part number.
func validateAndDedupe(rawPartNumbers []string) ([]domain.PartItem, error) {
	parts := make([]domain.PartItem, 0, len(rawPartNumbers))
	seen := make(map[string]struct{}, len(rawPartNumbers))
	for _, raw := range rawPartNumbers {
		part, err := domain.ParsePartNumber(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[part.PartNumber]; dup {
			continue
		}
		seen[part.PartNumber] = struct{}{}
		parts = append(parts, part)
	}
	return parts, nil
}

func (s *CompatibilityService) publishChecked(ctx context.Context, logger *slog.Logger, parts []domain.PartItem, excludedParts []string, result domain.ResultMap) {
	if s.publisher == nil {
		return
	}

	event := domain.CompatibilityCheckedEvent{
		EventID:        uuid.New(),
		RequestID:      chi_middleware.GetReqID(ctx),
		RequestedParts: make([]string, 0, len(parts)),
		ExcludedParts:  make([]string, 0, len(excludedParts)),
		ReturnedParts:  make([]string, 0, len(result)),
		CheckedAt:      time.Now().UTC(),
	}
	for _, p := range parts {
		event.RequestedParts = append(event.RequestedParts, p.PartNumber)
		if _, ok := result[p.PartNumber]; ok {
			event.ReturnedParts = append(event.ReturnedParts, p.PartNumber)
		}
	}
	event.ExcludedParts = append(event.ExcludedParts, excludedParts...)

	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal compatibility event", "error", err)
		return
	}
	// A lost audit event never fails the request.
	if err := s.publisher.Publish(ctx, domain.NATSCompatibilityCheckedV1, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish compatibility event", "subject", domain.NATSCompatibilityCheckedV1, "error", err)
	}
}
