package user

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Repository defines the operations for persisting and retrieving User entities.
type Repository interface {
	// Upsert creates the user or overwrites Name and Role of the existing record.
	Upsert(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, email string) error
}
