package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can branch on the condition
// without knowing which driver produced it.
//
// - ErrDuplicateKey: a unique constraint rejected the write; the row already exists
// - ErrNotFound: entity does not exist in the store
// - ErrUnavailable: service or resource temporarily unreachable
var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
)
