package boltstore

import (
	"context"
	"sort"

	"go.etcd.io/bbolt"

	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/user"
)

type invitationRepository struct {
	s *Store
}

func (r *invitationRepository) Upsert(_ context.Context, inv *invitation.Invitation) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.invitations)
		stored, err := get[invitation.Invitation](b, inv.Email)
		if err != nil {
			return err
		}
		if stored == nil {
			stored = &invitation.Invitation{Email: inv.Email, CreatedAt: r.s.now()}
		}
		stored.Role = inv.Role
		stored.Cohort = inv.Cohort
		if err := put(b, inv.Email, stored); err != nil {
			return err
		}
		*inv = *stored
		return nil
	})
}

func (r *invitationRepository) GetByEmail(_ context.Context, email string) (*invitation.Invitation, error) {
	var out *invitation.Invitation
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = get[invitation.Invitation](tx.Bucket(buckets.invitations), email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, invitation.ErrNotFound
	}
	return out, nil
}

func (r *invitationRepository) List(_ context.Context) ([]*invitation.Invitation, error) {
	var out []*invitation.Invitation
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = listByPrefix[invitation.Invitation](tx.Bucket(buckets.invitations), "")
		return err
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *invitationRepository) Delete(_ context.Context, email string) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.invitations)
		if b.Get([]byte(email)) == nil {
			return invitation.ErrNotFound
		}
		return b.Delete([]byte(email))
	})
}

// Take runs in a single write transaction; bbolt allows one writer at a time.
func (r *invitationRepository) Take(_ context.Context, email string) (*invitation.Invitation, error) {
	var out *invitation.Invitation
	err := r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.invitations)
		inv, err := get[invitation.Invitation](b, email)
		if err != nil {
			return err
		}
		if inv == nil {
			return invitation.ErrNotFound
		}
		out = inv
		return b.Delete([]byte(email))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Upsert(_ context.Context, u *user.User) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.users)
		stored, err := get[user.User](b, u.Email)
		if err != nil {
			return err
		}
		now := r.s.now()
		if stored == nil {
			stored = &user.User{Email: u.Email, CreatedAt: now}
		}
		stored.Name = u.Name
		stored.Role = u.Role
		stored.UpdatedAt = now
		if err := put(b, u.Email, stored); err != nil {
			return err
		}
		*u = *stored
		return nil
	})
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	var out *user.User
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = get[user.User](tx.Bucket(buckets.users), email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, user.ErrNotFound
	}
	return out, nil
}

func (r *userRepository) Delete(_ context.Context, email string) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.users)
		if b.Get([]byte(email)) == nil {
			return user.ErrNotFound
		}
		return b.Delete([]byte(email))
	})
}
