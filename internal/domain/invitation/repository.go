package invitation

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("invitation not found")

// Repository defines the operations for persisting and retrieving Invitation entities.
type Repository interface {
	// Upsert creates the invitation or overwrites Role and Cohort of the existing one.
	Upsert(ctx context.Context, inv *Invitation) error
	GetByEmail(ctx context.Context, email string) (*Invitation, error)
	// List returns invitations newest first.
	List(ctx context.Context) ([]*Invitation, error)
	Delete(ctx context.Context, email string) error
	// Take atomically removes and returns the invitation for email.
	// Concurrent callers for the same email see at most one success.
	Take(ctx context.Context, email string) (*Invitation, error)
}
