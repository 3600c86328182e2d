package domain

import "context"

// CompatiblePartsLookup finds parts interchangeable with a given part.
// The result includes the queried part itself, with Description,
// Availability and Price filled in.
type CompatiblePartsLookup interface {
	Lookup(ctx context.Context, part PartItem) ([]PartItem, error)
	Name() string
}
