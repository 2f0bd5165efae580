package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/classroom"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
)

var (
	ErrMissingCredentials  = errors.New("sync credentials are missing")
	ErrProviderUnavailable = errors.New("classroom provider unavailable")
)

// SyncOptions bounds the work of a sync run.
type SyncOptions struct {
	Workers         int
	RequestTimeout  time.Duration
	DueDateLocation *time.Location
}

// SyncService pulls courses, rosters, coursework and submissions from the
// classroom provider and reconciles them into the local store.
type SyncService struct {
	providers  classroom.ProviderFactory
	reconciler *Reconciler
	resolver   *IdentityResolver
	opts       SyncOptions
	logger     *logrus.Entry
	now        func() time.Time
}

func NewSyncService(
	providers classroom.ProviderFactory,
	reconciler *Reconciler,
	resolver *IdentityResolver,
	opts SyncOptions,
	logger *logrus.Entry,
) *SyncService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DueDateLocation == nil {
		opts.DueDateLocation = time.UTC
	}
	return &SyncService{
		providers:  providers,
		reconciler: reconciler,
		resolver:   resolver,
		opts:       opts,
		logger:     logger.WithField("component", "sync"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Sync runs one full reconciliation with cred. Failures confined to one item
// are recorded in the result and the run continues. A missing credential is
// reported before anything is fetched, and a provider that cannot list
// courses fails the run with ErrProviderUnavailable. Cancelling ctx stops new
// fetches; writes already started are allowed to finish.
func (s *SyncService) Sync(ctx context.Context, cred classroom.Credential) (*SyncResult, error) {
	if cred.Empty() {
		return nil, ErrMissingCredentials
	}

	result := newSyncResult(uuid.NewString(), s.now())
	log := s.logger.WithField("run_id", result.RunID)
	log.Info("sync started")

	provider, err := s.providers(ctx, cred)
	if err != nil {
		result.finish(s.now())
		log.WithError(err).Error("failed to build classroom provider")
		return result, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var courses []classroom.Course
	err = s.fetch(ctx, func(ctx context.Context) error {
		var err error
		courses, err = provider.ListCourses(ctx)
		return err
	})
	if err != nil {
		result.finish(s.now())
		log.WithError(err).Error("failed to list courses")
		return result, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	result.Courses = len(courses)

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for _, c := range courses {
		if ctx.Err() != nil {
			break
		}
		c := c
		g.Go(func() error {
			s.syncCourse(ctx, provider, c, result, log.WithField("course_id", c.ID))
			return nil
		})
	}
	_ = g.Wait()
	result.finish(s.now())

	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("sync interrupted")
		return result, fmt.Errorf("sync interrupted: %w", err)
	}
	log.WithFields(logrus.Fields{
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"errors":    len(result.Errors),
	}).Info("sync finished")
	return result, nil
}

func (s *SyncService) syncCourse(ctx context.Context, provider classroom.Provider, c classroom.Course, result *SyncResult, log *logrus.Entry) {
	if ctx.Err() != nil {
		return
	}
	// Writes must not be torn by caller cancellation.
	writeCtx := context.WithoutCancel(ctx)

	teacherEmail := course.UnknownTeacher
	var teachers []classroom.Profile
	err := s.fetch(ctx, func(ctx context.Context) error {
		var err error
		teachers, err = provider.ListTeachers(ctx, c.ID)
		return err
	})
	switch {
	case ctx.Err() != nil:
		return
	case err != nil:
		log.WithError(err).Warn("failed to list teachers, owner left unknown")
		result.fail(KindTeacher, c.ID, err)
	default:
		// The first teacher with a visible email owns the course.
		for _, t := range teachers {
			if t.Email != "" {
				teacherEmail = normalizeEmail(t.Email)
				break
			}
		}
	}

	if _, err := s.reconciler.UpsertCourse(writeCtx, course.Course{ExternalID: c.ID, Name: c.Name, TeacherEmail: teacherEmail}); err != nil {
		log.WithError(err).Error("failed to upsert course")
		result.fail(KindCourse, c.ID, err)
		return
	}
	result.processed(KindCourse)

	s.syncRoster(ctx, writeCtx, provider, c, result, log)

	var works []classroom.CourseWork
	err = s.fetch(ctx, func(ctx context.Context) error {
		var err error
		works, err = provider.ListCourseWork(ctx, c.ID)
		return err
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.WithError(err).Warn("failed to list coursework")
		result.fail(KindAssignment, c.ID, err)
		return
	}

	for _, w := range works {
		if ctx.Err() != nil {
			return
		}
		s.syncCourseWork(ctx, writeCtx, provider, c, w, result, log.WithField("coursework_id", w.ID))
	}
}

func (s *SyncService) syncRoster(ctx, writeCtx context.Context, provider classroom.Provider, c classroom.Course, result *SyncResult, log *logrus.Entry) {
	var members []classroom.Profile
	err := s.fetch(ctx, func(ctx context.Context) error {
		var err error
		members, err = provider.ListStudents(ctx, c.ID)
		return err
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.WithError(err).Warn("failed to list students")
		result.fail(KindStudent, c.ID, err)
		return
	}

	for _, m := range members {
		email := normalizeEmail(m.Email)
		if email == "" {
			log.WithField("user_id", m.UserID).Debug("student without email skipped")
			result.skipped(KindStudent)
			continue
		}
		st := student.Student{
			Email:  email,
			Name:   m.FullName,
			Cohort: sql.NullString{String: c.Name, Valid: c.Name != ""},
		}
		if m.UserID != "" {
			st.ExternalUserID = sql.NullString{String: m.UserID, Valid: true}
		}
		if st.Name == "" {
			st.Name = email
		}
		if _, err := s.reconciler.UpsertStudent(writeCtx, st); err != nil {
			log.WithError(err).WithField("student", email).Error("failed to upsert student")
			result.fail(KindStudent, email, err)
			continue
		}
		result.processed(KindStudent)
	}
}

func (s *SyncService) syncCourseWork(ctx, writeCtx context.Context, provider classroom.Provider, c classroom.Course, w classroom.CourseWork, result *SyncResult, log *logrus.Entry) {
	a := assignment.Assignment{
		ExternalID:       w.ID,
		CourseExternalID: c.ID,
		Title:            w.Title,
		Description:      sql.NullString{String: w.Description, Valid: w.Description != ""},
	}
	if w.DueDate != nil {
		a.DueDate = assignment.NormalizeDueDate(w.DueDate.Year, w.DueDate.Month, w.DueDate.Day, s.opts.DueDateLocation)
	}
	if _, err := s.reconciler.UpsertAssignment(writeCtx, a); err != nil {
		log.WithError(err).Error("failed to upsert assignment")
		result.fail(KindAssignment, w.ID, err)
		return
	}
	result.processed(KindAssignment)

	var subs []classroom.StudentSubmission
	err := s.fetch(ctx, func(ctx context.Context) error {
		var err error
		subs, err = provider.ListSubmissions(ctx, c.ID, w.ID)
		return err
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.WithError(err).Warn("failed to list submissions")
		result.fail(KindSubmission, w.ID, err)
		return
	}

	for _, sub := range subs {
		email, err := s.resolver.Resolve(writeCtx, sub.UserID)
		if errors.Is(err, ErrIdentityNotFound) {
			log.WithField("user_id", sub.UserID).Debug("submission for unknown user skipped")
			result.skipped(KindSubmission)
			continue
		}
		if err != nil {
			log.WithError(err).WithField("user_id", sub.UserID).Error("failed to resolve submission owner")
			result.fail(KindSubmission, w.ID+"/"+sub.UserID, err)
			continue
		}

		record := submission.Submission{
			AssignmentExternalID: w.ID,
			StudentEmail:         email,
			ExternalID:           sub.ID,
			State:                submission.State(sub.State),
		}
		if !sub.UpdateTime.IsZero() {
			record.SubmittedAt = sql.NullTime{Time: sub.UpdateTime.UTC(), Valid: true}
		}
		if record.State == "" {
			record.State = submission.StateUnspecified
		}
		if _, err := s.reconciler.UpsertSubmission(writeCtx, record); err != nil {
			log.WithError(err).WithField("student", email).Error("failed to upsert submission")
			result.fail(KindSubmission, w.ID+"/"+email, err)
			continue
		}
		result.processed(KindSubmission)
	}
}

// fetch runs one provider call under the per-request timeout.
func (s *SyncService) fetch(ctx context.Context, call func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.opts.RequestTimeout <= 0 {
		return call(ctx)
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	return call(reqCtx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
