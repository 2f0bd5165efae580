package student

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("student not found")

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Email  string
	Cohort string
}

// Repository defines the operations for persisting and retrieving Student entities.
type Repository interface {
	// Upsert creates the student or overwrites Name on the existing record.
	// Cohort and ExternalUserID are only written when they are valid, so an
	// upsert without them leaves the stored values untouched.
	Upsert(ctx context.Context, s *Student) error
	GetByEmail(ctx context.Context, email string) (*Student, error)
	// ListByExternalUserID returns every student carrying the given provider id.
	// More than one result is an integrity violation the caller must report.
	ListByExternalUserID(ctx context.Context, externalUserID string) ([]*Student, error)
	Delete(ctx context.Context, email string) error
	List(ctx context.Context, f Filter) ([]*Student, error)
}
