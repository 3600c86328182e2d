package domain

import (
	"context"
	"strings"
)

// ExclusionRecord is one entry of the exclusion reference list. Only
// PartNumber takes part in matching; the list may carry other fields.
type ExclusionRecord struct {
	PartNumber  string `json:"PartNumber" yaml:"PartNumber"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
}

// ExclusionSource loads the current exclusion list. Implementations must
// read the underlying resource on every call; the list is updated monthly
// and a request must never see a stale copy held over from an earlier one.
type ExclusionSource interface {
	LoadExclusions(ctx context.Context) ([]ExclusionRecord, error)
}

// ExclusionSet is a lowercase set of excluded part numbers.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from records. Entries are trimmed and
// lowercased; blank entries are skipped.
func NewExclusionSet(records []ExclusionRecord) ExclusionSet {
	set := make(ExclusionSet, len(records))
	for _, rec := range records {
		pn := strings.TrimSpace(rec.PartNumber)
		if pn == "" {
			continue
		}
		set[strings.ToLower(pn)] = struct{}{}
	}
	return set
}

// IsExcluded reports whether partNumber is on the list, ignoring case.
// Matching is exact on the whole part number.
func (s ExclusionSet) IsExcluded(partNumber string) bool {
	_, ok := s[strings.ToLower(partNumber)]
	return ok
}
