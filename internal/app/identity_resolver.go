package app

import (
	"context"
	"errors"
	"fmt"

	"classroom_sync/internal/domain/student"
)

var (
	// ErrIdentityNotFound means no local student carries the external user id.
	// Callers skip the dependent record: the roster sync that binds the id may
	// simply not have run for that user yet.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityConflict means more than one local student claims the id.
	ErrIdentityConflict = errors.New("identity conflict")
)

// IdentityResolver maps provider user ids to local student emails.
type IdentityResolver struct {
	students student.Repository
}

func NewIdentityResolver(students student.Repository) *IdentityResolver {
	return &IdentityResolver{students: students}
}

// Resolve returns the email of the only student bound to externalUserID.
func (r *IdentityResolver) Resolve(ctx context.Context, externalUserID string) (string, error) {
	if externalUserID == "" {
		return "", ErrIdentityNotFound
	}
	matches, err := r.students.ListByExternalUserID(ctx, externalUserID)
	if err != nil {
		return "", fmt.Errorf("resolving external user %s: %w", externalUserID, err)
	}
	switch len(matches) {
	case 0:
		return "", ErrIdentityNotFound
	case 1:
		return matches[0].Email, nil
	default:
		return "", fmt.Errorf("%w: external user %s is bound to %d students", ErrIdentityConflict, externalUserID, len(matches))
	}
}

// Claim checks that binding externalUserID to email would not make the id
// ambiguous. Rebinding the same pair is allowed.
func (r *IdentityResolver) Claim(ctx context.Context, externalUserID, email string) error {
	matches, err := r.students.ListByExternalUserID(ctx, externalUserID)
	if err != nil {
		return fmt.Errorf("checking external user %s: %w", externalUserID, err)
	}
	for _, m := range matches {
		if m.Email != email {
			return fmt.Errorf("%w: external user %s already belongs to %s", ErrIdentityConflict, externalUserID, m.Email)
		}
	}
	return nil
}
