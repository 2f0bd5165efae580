package memstore

import (
	"context"
	"sort"

	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/user"
)

type invitationRepository struct {
	db *DB
}

func NewInvitationRepository(db *DB) invitation.Repository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Upsert(_ context.Context, inv *invitation.Invitation) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	stored, ok := r.db.invitations[inv.Email]
	if !ok {
		stored = invitation.Invitation{Email: inv.Email, CreatedAt: r.db.now()}
	}
	stored.Role = inv.Role
	stored.Cohort = inv.Cohort
	r.db.invitations[inv.Email] = stored
	*inv = stored
	return nil
}

func (r *invitationRepository) GetByEmail(_ context.Context, email string) (*invitation.Invitation, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	inv, ok := r.db.invitations[email]
	if !ok {
		return nil, invitation.ErrNotFound
	}
	return &inv, nil
}

func (r *invitationRepository) List(_ context.Context) ([]*invitation.Invitation, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	invs := make([]*invitation.Invitation, 0, len(r.db.invitations))
	for _, inv := range r.db.invitations {
		inv := inv
		invs = append(invs, &inv)
	}
	sort.Slice(invs, func(i, j int) bool {
		if !invs[i].CreatedAt.Equal(invs[j].CreatedAt) {
			return invs[i].CreatedAt.After(invs[j].CreatedAt)
		}
		return invs[i].Email < invs[j].Email
	})
	return invs, nil
}

func (r *invitationRepository) Delete(_ context.Context, email string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.invitations[email]; !ok {
		return invitation.ErrNotFound
	}
	delete(r.db.invitations, email)
	return nil
}

func (r *invitationRepository) Take(_ context.Context, email string) (*invitation.Invitation, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	inv, ok := r.db.invitations[email]
	if !ok {
		return nil, invitation.ErrNotFound
	}
	delete(r.db.invitations, email)
	return &inv, nil
}

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(_ context.Context, u *user.User) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	now := r.db.now()
	stored, ok := r.db.users[u.Email]
	if !ok {
		stored = user.User{Email: u.Email, CreatedAt: now}
	}
	stored.Name = u.Name
	stored.Role = u.Role
	stored.UpdatedAt = now
	r.db.users[u.Email] = stored
	*u = stored
	return nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	u, ok := r.db.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) Delete(_ context.Context, email string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.users[email]; !ok {
		return user.ErrNotFound
	}
	delete(r.db.users, email)
	return nil
}
