package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInput is returned when a request carries no part numbers.
	ErrNoInput = errors.New("no part numbers supplied")
	// ErrInvalidFormat is matched by every *InvalidPartError.
	ErrInvalidFormat = errors.New("part number format is invalid")
	// ErrCollaboratorFailure is matched by every *CollaboratorError.
	ErrCollaboratorFailure = errors.New("collaborator failure")
)

// InvalidPartError names the raw value that failed validation.
type InvalidPartError struct {
	PartNumber string
}

func (e *InvalidPartError) Error() string {
	return fmt.Sprintf("%q: format is invalid, expected 4 digits, a dash and at least 4 alphanumeric characters", e.PartNumber)
}

func (e *InvalidPartError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// CollaboratorError wraps a failure of the exclusion source or the lookup service.
type CollaboratorError struct {
	Collaborator string
	PartNumber   string // empty unless the failure is tied to one part
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.PartNumber != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Collaborator, e.PartNumber, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorFailure
}
