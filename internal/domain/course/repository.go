package course

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("course not found")

// Repository defines the operations for persisting and retrieving Course entities.
type Repository interface {
	// Upsert creates the course or overwrites Name and TeacherEmail of the
	// existing record with the same ExternalID.
	Upsert(ctx context.Context, c *Course) error
	GetByExternalID(ctx context.Context, externalID string) (*Course, error)
	Delete(ctx context.Context, externalID string) error
	// List returns all courses, or only those owned by teacherEmail when it is not empty.
	List(ctx context.Context, teacherEmail string) ([]*Course, error)
}
