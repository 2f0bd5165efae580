// Package store holds errors shared by every persistence backend.
package store

import "errors"

// ErrConstraintViolation is returned by a repository when a write would break
// a uniqueness or reference constraint of the store.
var ErrConstraintViolation = errors.New("store constraint violation")
