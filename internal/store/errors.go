package store

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint is violated,
	// including the (owner_id, canonical_key) race on ACTIVE claims.
	ErrConflict = errors.New("conflict")
)
