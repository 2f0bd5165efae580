package boltstore

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/submission"
)

type submissionRepository struct {
	s *Store
}

func submissionKey(k submission.Key) string {
	return compositeKey(k.AssignmentExternalID, k.StudentEmail)
}

func (r *submissionRepository) Upsert(_ context.Context, s *submission.Submission) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(buckets.assignments).Get([]byte(s.AssignmentExternalID)) == nil {
			return fmt.Errorf("%w: assignment %s does not exist", store.ErrConstraintViolation, s.AssignmentExternalID)
		}
		if tx.Bucket(buckets.students).Get([]byte(s.StudentEmail)) == nil {
			return fmt.Errorf("%w: student %s does not exist", store.ErrConstraintViolation, s.StudentEmail)
		}

		b := tx.Bucket(buckets.submissions)
		key := submissionKey(s.Key())
		stored, err := get[submission.Submission](b, key)
		if err != nil {
			return err
		}
		now := r.s.now()
		if stored == nil {
			stored = &submission.Submission{AssignmentExternalID: s.AssignmentExternalID, StudentEmail: s.StudentEmail, CreatedAt: now}
		}
		stored.ExternalID = s.ExternalID
		stored.State = s.State
		stored.SubmittedAt = s.SubmittedAt
		stored.UpdatedAt = now
		if err := put(b, key, stored); err != nil {
			return err
		}
		idx := compositeKey(s.StudentEmail, s.AssignmentExternalID)
		if err := tx.Bucket(buckets.submissionsByStudent).Put([]byte(idx), []byte(s.AssignmentExternalID)); err != nil {
			return err
		}
		*s = *stored
		return nil
	})
}

func (r *submissionRepository) Get(_ context.Context, key submission.Key) (*submission.Submission, error) {
	var out *submission.Submission
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = get[submission.Submission](tx.Bucket(buckets.submissions), submissionKey(key))
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, submission.ErrNotFound
	}
	return out, nil
}

func (r *submissionRepository) Delete(_ context.Context, key submission.Key) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.submissions)
		k := []byte(submissionKey(key))
		if b.Get(k) == nil {
			return submission.ErrNotFound
		}
		if err := tx.Bucket(buckets.submissionsByStudent).Delete([]byte(compositeKey(key.StudentEmail, key.AssignmentExternalID))); err != nil {
			return err
		}
		return b.Delete(k)
	})
}

func (r *submissionRepository) ListByAssignment(_ context.Context, assignmentExternalID string) ([]*submission.Submission, error) {
	var out []*submission.Submission
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = listByPrefix[submission.Submission](tx.Bucket(buckets.submissions), assignmentExternalID+keySep)
		return err
	})
	return out, err
}

func (r *submissionRepository) ListByStudent(_ context.Context, email string) ([]*submission.Submission, error) {
	out := make([]*submission.Submission, 0)
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		subs := tx.Bucket(buckets.submissions)
		for _, assignmentID := range keysByPrefix(tx.Bucket(buckets.submissionsByStudent), email+keySep) {
			s, err := get[submission.Submission](subs, compositeKey(assignmentID, email))
			if err != nil {
				return err
			}
			if s != nil {
				out = append(out, s)
			}
		}
		return nil
	})
	return out, err
}
