package assignment

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("assignment not found")

// Repository defines the operations for persisting and retrieving Assignment entities.
type Repository interface {
	// Upsert creates the assignment or overwrites Title, Description, DueDate
	// and CourseExternalID of the existing record. A null Description or
	// DueDate overwrites the stored value: the provider representation is complete.
	Upsert(ctx context.Context, a *Assignment) error
	GetByExternalID(ctx context.Context, externalID string) (*Assignment, error)
	Delete(ctx context.Context, externalID string) error
	ListByCourse(ctx context.Context, courseExternalID string) ([]*Assignment, error)
}
