package memstore

import (
	"context"
	"fmt"
	"sort"

	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/submission"
)

type submissionRepository struct {
	db *DB
}

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Upsert(_ context.Context, s *submission.Submission) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.assignments[s.AssignmentExternalID]; !ok {
		return fmt.Errorf("%w: assignment %s does not exist", store.ErrConstraintViolation, s.AssignmentExternalID)
	}
	if _, ok := r.db.students[s.StudentEmail]; !ok {
		return fmt.Errorf("%w: student %s does not exist", store.ErrConstraintViolation, s.StudentEmail)
	}

	now := r.db.now()
	key := s.Key()
	stored, ok := r.db.submissions[key]
	if !ok {
		stored = submission.Submission{
			AssignmentExternalID: s.AssignmentExternalID,
			StudentEmail:         s.StudentEmail,
			CreatedAt:            now,
		}
	}
	stored.ExternalID = s.ExternalID
	stored.State = s.State
	stored.SubmittedAt = s.SubmittedAt
	stored.UpdatedAt = now
	r.db.submissions[key] = stored
	*s = stored
	return nil
}

func (r *submissionRepository) Get(_ context.Context, key submission.Key) (*submission.Submission, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	s, ok := r.db.submissions[key]
	if !ok {
		return nil, submission.ErrNotFound
	}
	return &s, nil
}

func (r *submissionRepository) Delete(_ context.Context, key submission.Key) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.submissions[key]; !ok {
		return submission.ErrNotFound
	}
	delete(r.db.submissions, key)
	return nil
}

func (r *submissionRepository) ListByAssignment(_ context.Context, assignmentExternalID string) ([]*submission.Submission, error) {
	return r.list(func(s submission.Submission) bool { return s.AssignmentExternalID == assignmentExternalID }), nil
}

func (r *submissionRepository) ListByStudent(_ context.Context, email string) ([]*submission.Submission, error) {
	return r.list(func(s submission.Submission) bool { return s.StudentEmail == email }), nil
}

func (r *submissionRepository) list(keep func(submission.Submission) bool) []*submission.Submission {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var subs []*submission.Submission
	for _, s := range r.db.submissions {
		if keep(s) {
			s := s
			subs = append(subs, &s)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].AssignmentExternalID != subs[j].AssignmentExternalID {
			return subs[i].AssignmentExternalID < subs[j].AssignmentExternalID
		}
		return subs[i].StudentEmail < subs[j].StudentEmail
	})
	return subs
}
