package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
)

// Reconciler merges provider state into the local store by natural key.
// Every upsert is idempotent, and upserts that share a natural key are
// serialized so concurrent course workers cannot race on the same record.
type Reconciler struct {
	courses     course.Repository
	students    student.Repository
	assignments assignment.Repository
	submissions submission.Repository
	resolver    *IdentityResolver
	locks       *keyedMutex
	logger      *logrus.Entry
}

func NewReconciler(
	cr course.Repository,
	sr student.Repository,
	ar assignment.Repository,
	subr submission.Repository,
	resolver *IdentityResolver,
	logger *logrus.Entry,
) *Reconciler {
	return &Reconciler{
		courses:     cr,
		students:    sr,
		assignments: ar,
		submissions: subr,
		resolver:    resolver,
		locks:       newKeyedMutex(),
		logger:      logger.WithField("component", "reconciler"),
	}
}

func (r *Reconciler) UpsertCourse(ctx context.Context, c course.Course) (*course.Course, error) {
	if c.ExternalID == "" {
		return nil, errors.New("course external id is empty")
	}
	unlock := r.locks.Lock("course:" + c.ExternalID)
	defer unlock()

	if err := r.courses.Upsert(ctx, &c); err != nil {
		return nil, fmt.Errorf("upserting course %s: %w", c.ExternalID, err)
	}
	return &c, nil
}

// UpsertStudent writes the roster member keyed by email. s.Cohort only
// applies when the student is new: later syncs never move a student to
// another cohort. A non-null ExternalUserID must not be bound to another
// student already.
func (r *Reconciler) UpsertStudent(ctx context.Context, s student.Student) (*student.Student, error) {
	if s.Email == "" {
		return nil, errors.New("student email is empty")
	}
	unlock := r.locks.Lock("student:" + s.Email)
	defer unlock()

	if s.ExternalUserID.Valid {
		if err := r.resolver.Claim(ctx, s.ExternalUserID.String, s.Email); err != nil {
			return nil, err
		}
	}

	if s.Cohort.Valid {
		_, err := r.students.GetByEmail(ctx, s.Email)
		switch {
		case err == nil:
			s.Cohort.Valid = false
			s.Cohort.String = ""
		case errors.Is(err, student.ErrNotFound):
		default:
			return nil, fmt.Errorf("loading student %s: %w", s.Email, err)
		}
	}

	if err := r.students.Upsert(ctx, &s); err != nil {
		return nil, fmt.Errorf("upserting student %s: %w", s.Email, err)
	}
	return &s, nil
}

func (r *Reconciler) UpsertAssignment(ctx context.Context, a assignment.Assignment) (*assignment.Assignment, error) {
	if a.ExternalID == "" {
		return nil, errors.New("assignment external id is empty")
	}
	unlock := r.locks.Lock("assignment:" + a.ExternalID)
	defer unlock()

	if err := r.assignments.Upsert(ctx, &a); err != nil {
		return nil, fmt.Errorf("upserting assignment %s: %w", a.ExternalID, err)
	}
	return &a, nil
}

func (r *Reconciler) UpsertSubmission(ctx context.Context, s submission.Submission) (*submission.Submission, error) {
	if s.AssignmentExternalID == "" || s.StudentEmail == "" {
		return nil, errors.New("submission key is incomplete")
	}
	unlock := r.locks.Lock("submission:" + s.AssignmentExternalID + "|" + s.StudentEmail)
	defer unlock()

	if err := r.submissions.Upsert(ctx, &s); err != nil {
		return nil, fmt.Errorf("upserting submission %s/%s: %w", s.AssignmentExternalID, s.StudentEmail, err)
	}
	r.logger.WithFields(logrus.Fields{
		"assignment_id": s.AssignmentExternalID,
		"student":       s.StudentEmail,
		"state":         s.State,
	}).Debug("submission reconciled")
	return &s, nil
}
