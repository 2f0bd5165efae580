package submission

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("submission not found")

// Repository defines the operations for persisting and retrieving Submission entities.
type Repository interface {
	// Upsert creates the submission or overwrites State, SubmittedAt and
	// ExternalID of the record with the same Key.
	Upsert(ctx context.Context, s *Submission) error
	Get(ctx context.Context, key Key) (*Submission, error)
	Delete(ctx context.Context, key Key) error
	ListByAssignment(ctx context.Context, assignmentExternalID string) ([]*Submission, error)
	ListByStudent(ctx context.Context, email string) ([]*Submission, error)
}
