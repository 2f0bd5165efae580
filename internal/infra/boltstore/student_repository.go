package boltstore

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
)

type studentRepository struct {
	s *Store
}

// Upsert keeps the stored cohort and external user id when s carries nulls.
// An external user id owned by another student is refused.
func (r *studentRepository) Upsert(_ context.Context, s *student.Student) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.students)
		idx := tx.Bucket(buckets.studentsByExternal)

		if s.ExternalUserID.Valid {
			if owner := idx.Get([]byte(s.ExternalUserID.String)); owner != nil && string(owner) != s.Email {
				return fmt.Errorf("%w: external user id %s already belongs to %s", store.ErrConstraintViolation, s.ExternalUserID.String, owner)
			}
		}

		stored, err := get[student.Student](b, s.Email)
		if err != nil {
			return err
		}
		now := r.s.now()
		if stored == nil {
			stored = &student.Student{Email: s.Email, CreatedAt: now}
		}
		stored.Name = s.Name
		if s.Cohort.Valid {
			stored.Cohort = s.Cohort
		}
		if s.ExternalUserID.Valid {
			if stored.ExternalUserID.Valid && stored.ExternalUserID.String != s.ExternalUserID.String {
				if err := idx.Delete([]byte(stored.ExternalUserID.String)); err != nil {
					return err
				}
			}
			stored.ExternalUserID = s.ExternalUserID
			if err := idx.Put([]byte(s.ExternalUserID.String), []byte(s.Email)); err != nil {
				return err
			}
		}
		stored.UpdatedAt = now
		if err := put(b, s.Email, stored); err != nil {
			return err
		}
		*s = *stored
		return nil
	})
}

func (r *studentRepository) GetByEmail(_ context.Context, email string) (*student.Student, error) {
	var out *student.Student
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = get[student.Student](tx.Bucket(buckets.students), email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, student.ErrNotFound
	}
	return out, nil
}

// ListByExternalUserID reads through the unique index, so it returns at most
// one student.
func (r *studentRepository) ListByExternalUserID(_ context.Context, externalUserID string) ([]*student.Student, error) {
	out := make([]*student.Student, 0, 1)
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		email := tx.Bucket(buckets.studentsByExternal).Get([]byte(externalUserID))
		if email == nil {
			return nil
		}
		s, err := get[student.Student](tx.Bucket(buckets.students), string(email))
		if err != nil || s == nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// Delete removes the student and their submissions.
func (r *studentRepository) Delete(_ context.Context, email string) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.students)
		stored, err := get[student.Student](b, email)
		if err != nil {
			return err
		}
		if stored == nil {
			return student.ErrNotFound
		}
		if stored.ExternalUserID.Valid {
			if err := tx.Bucket(buckets.studentsByExternal).Delete([]byte(stored.ExternalUserID.String)); err != nil {
				return err
			}
		}
		byStudent := tx.Bucket(buckets.submissionsByStudent)
		for _, assignmentID := range keysByPrefix(byStudent, email+keySep) {
			if err := tx.Bucket(buckets.submissions).Delete([]byte(compositeKey(assignmentID, email))); err != nil {
				return err
			}
			if err := byStudent.Delete([]byte(compositeKey(email, assignmentID))); err != nil {
				return err
			}
		}
		return b.Delete([]byte(email))
	})
}

func (r *studentRepository) List(_ context.Context, f student.Filter) ([]*student.Student, error) {
	var out []*student.Student
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		all, err := listByPrefix[student.Student](tx.Bucket(buckets.students), "")
		if err != nil {
			return err
		}
		out = make([]*student.Student, 0, len(all))
		for _, s := range all {
			if f.Email != "" && s.Email != f.Email {
				continue
			}
			if f.Cohort != "" && (!s.Cohort.Valid || s.Cohort.String != f.Cohort) {
				continue
			}
			out = append(out, s)
		}
		return nil
	})
	return out, err
}
