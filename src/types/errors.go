package types

import "errors"

// Error taxonomy surfaced to external callers. Wrap with context at the
// call site; match with errors.Is at the boundary.
var (
	ErrInvalidFloor     = errors.New("invalid floor")
	ErrDuplicateRequest = errors.New("active request already exists for floor and direction")
	ErrNoAvailableUnit  = errors.New("no available elevator unit")
	ErrNoSuitableUnit   = errors.New("no suitable elevator unit")
	ErrUnitNotFound     = errors.New("elevator unit not found")
	ErrInvalidAlgorithm = errors.New("unknown scheduling algorithm")
)
