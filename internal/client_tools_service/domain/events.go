package domain

import (
	"time"

	"github.com/google/uuid"
)

// NATSCompatibilityCheckedV1 is published after every successful check.
const NATSCompatibilityCheckedV1 = "parts.compatibility.checked.v1"

// CompatibilityCheckedEvent summarises one successful compatibility check.
type CompatibilityCheckedEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	RequestID      string    `json:"request_id,omitempty"`
	RequestedParts []string  `json:"requested_parts"`
	ExcludedParts  []string  `json:"excluded_parts"`
	ReturnedParts  []string  `json:"returned_parts"`
	CheckedAt      time.Time `json:"checked_at"`
}
