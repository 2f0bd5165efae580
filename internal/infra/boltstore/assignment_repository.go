package boltstore

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/store"
)

type assignmentRepository struct {
	s *Store
}

func (r *assignmentRepository) Upsert(_ context.Context, a *assignment.Assignment) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(buckets.courses).Get([]byte(a.CourseExternalID)) == nil {
			return fmt.Errorf("%w: course %s does not exist", store.ErrConstraintViolation, a.CourseExternalID)
		}
		b := tx.Bucket(buckets.assignments)
		stored, err := get[assignment.Assignment](b, a.ExternalID)
		if err != nil {
			return err
		}
		now := r.s.now()
		if stored == nil {
			stored = &assignment.Assignment{ExternalID: a.ExternalID, CreatedAt: now}
		}
		stored.CourseExternalID = a.CourseExternalID
		stored.Title = a.Title
		stored.Description = a.Description
		stored.DueDate = a.DueDate
		stored.UpdatedAt = now
		if err := put(b, a.ExternalID, stored); err != nil {
			return err
		}
		*a = *stored
		return nil
	})
}

func (r *assignmentRepository) GetByExternalID(_ context.Context, externalID string) (*assignment.Assignment, error) {
	var out *assignment.Assignment
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = get[assignment.Assignment](tx.Bucket(buckets.assignments), externalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, assignment.ErrNotFound
	}
	return out, nil
}

func (r *assignmentRepository) Delete(_ context.Context, externalID string) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(buckets.assignments).Get([]byte(externalID)) == nil {
			return assignment.ErrNotFound
		}
		return deleteAssignment(tx, externalID)
	})
}

func (r *assignmentRepository) ListByCourse(_ context.Context, courseExternalID string) ([]*assignment.Assignment, error) {
	var out []*assignment.Assignment
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		all, err := listByPrefix[assignment.Assignment](tx.Bucket(buckets.assignments), "")
		if err != nil {
			return err
		}
		out = make([]*assignment.Assignment, 0)
		for _, a := range all {
			if a.CourseExternalID == courseExternalID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

// deleteAssignment removes an assignment and its submissions inside tx.
func deleteAssignment(tx *bbolt.Tx, externalID string) error {
	subs := tx.Bucket(buckets.submissions)
	byStudent := tx.Bucket(buckets.submissionsByStudent)
	for _, email := range keysByPrefix(subs, externalID+keySep) {
		if err := subs.Delete([]byte(compositeKey(externalID, email))); err != nil {
			return err
		}
		if err := byStudent.Delete([]byte(compositeKey(email, externalID))); err != nil {
			return err
		}
	}
	return tx.Bucket(buckets.assignments).Delete([]byte(externalID))
}
