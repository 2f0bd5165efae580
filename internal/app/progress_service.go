package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/progress"
	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
	"classroom_sync/internal/domain/user"
)

var ErrForbidden = errors.New("forbidden")

// Viewer is the authenticated user a query runs on behalf of.
type Viewer struct {
	Email string
	Role  user.Role
}

// Query holds the optional filters of a progress listing. Teacher is only
// honoured for coordinators.
type Query struct {
	Cohort  string
	Teacher string
}

// StudentProgress is a student annotated with delivery metrics.
type StudentProgress struct {
	Student  *student.Student
	Progress progress.Summary
}

// AssignmentDetail is an assignment with its reconciled submissions.
type AssignmentDetail struct {
	Assignment  *assignment.Assignment
	Submissions []*submission.Submission
}

// CourseDetail is a course with its assignments.
type CourseDetail struct {
	Course      *course.Course
	Assignments []AssignmentDetail
}

// ProgressService answers metric queries with role based visibility.
type ProgressService struct {
	courses     course.Repository
	students    student.Repository
	assignments assignment.Repository
	submissions submission.Repository
	logger      *logrus.Entry
}

func NewProgressService(repos store.Repositories, logger *logrus.Entry) *ProgressService {
	return &ProgressService{
		courses:     repos.Courses,
		students:    repos.Students,
		assignments: repos.Assignments,
		submissions: repos.Submissions,
		logger:      logger.WithField("component", "progress"),
	}
}

// ListStudents returns the students visible to viewer with their metrics.
// Students only see themselves, teachers see every student but only the
// submissions of their own courses, and coordinators may scope by teacher.
func (s *ProgressService) ListStudents(ctx context.Context, viewer Viewer, q Query) ([]StudentProgress, error) {
	filter := student.Filter{Cohort: q.Cohort}
	var scope progress.Scope
	switch viewer.Role {
	case user.RoleStudent:
		filter.Email = viewer.Email
	case user.RoleTeacher:
		scope.TeacherEmail = viewer.Email
	case user.RoleCoordinator:
		scope.TeacherEmail = q.Teacher
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, viewer.Role)
	}

	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}

	lookup := newRecordLookup(s.assignments, s.courses)
	out := make([]StudentProgress, 0, len(students))
	for _, st := range students {
		records, err := s.recordsFor(ctx, st.Email, lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, StudentProgress{Student: st, Progress: progress.Aggregate(records, scope)})
	}
	s.logger.WithFields(logrus.Fields{
		"viewer":   viewer.Email,
		"role":     viewer.Role,
		"students": len(out),
	}).Debug("progress listed")
	return out, nil
}

// StudentSummary returns the unscoped metrics of one student.
func (s *ProgressService) StudentSummary(ctx context.Context, email string) (*StudentProgress, error) {
	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	records, err := s.recordsFor(ctx, st.Email, newRecordLookup(s.assignments, s.courses))
	if err != nil {
		return nil, err
	}
	return &StudentProgress{Student: st, Progress: progress.Aggregate(records, progress.Scope{})}, nil
}

// ListCourses returns the courses visible to viewer with assignments and
// submissions nested. Students get no courses.
func (s *ProgressService) ListCourses(ctx context.Context, viewer Viewer, q Query) ([]CourseDetail, error) {
	var teacher string
	switch viewer.Role {
	case user.RoleStudent:
		return []CourseDetail{}, nil
	case user.RoleTeacher:
		teacher = viewer.Email
	case user.RoleCoordinator:
		teacher = q.Teacher
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, viewer.Role)
	}

	courses, err := s.courses.List(ctx, teacher)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	out := make([]CourseDetail, 0, len(courses))
	for _, c := range courses {
		works, err := s.assignments.ListByCourse(ctx, c.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("listing assignments of course %s: %w", c.ExternalID, err)
		}
		detail := CourseDetail{Course: c, Assignments: make([]AssignmentDetail, 0, len(works))}
		for _, a := range works {
			subs, err := s.submissions.ListByAssignment(ctx, a.ExternalID)
			if err != nil {
				return nil, fmt.Errorf("listing submissions of assignment %s: %w", a.ExternalID, err)
			}
			detail.Assignments = append(detail.Assignments, AssignmentDetail{Assignment: a, Submissions: subs})
		}
		out = append(out, detail)
	}
	return out, nil
}

func (s *ProgressService) recordsFor(ctx context.Context, email string, lookup *recordLookup) ([]progress.Record, error) {
	subs, err := s.submissions.ListByStudent(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing submissions of %s: %w", email, err)
	}
	records := make([]progress.Record, 0, len(subs))
	for _, sub := range subs {
		a, c, err := lookup.get(ctx, sub.AssignmentExternalID)
		if errors.Is(err, assignment.ErrNotFound) || errors.Is(err, course.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, progress.Record{
			StudentEmail:         sub.StudentEmail,
			AssignmentExternalID: sub.AssignmentExternalID,
			State:                sub.State,
			SubmittedAt:          sub.SubmittedAt,
			DueDate:              a.DueDate,
			CourseExternalID:     c.ExternalID,
			TeacherEmail:         c.TeacherEmail,
		})
	}
	return records, nil
}

// recordLookup caches assignment and course reads for one request.
type recordLookup struct {
	assignments assignment.Repository
	courses     course.Repository
	byWork      map[string]*assignment.Assignment
	byCourse    map[string]*course.Course
}

func newRecordLookup(ar assignment.Repository, cr course.Repository) *recordLookup {
	return &recordLookup{
		assignments: ar,
		courses:     cr,
		byWork:      make(map[string]*assignment.Assignment),
		byCourse:    make(map[string]*course.Course),
	}
}

func (l *recordLookup) get(ctx context.Context, assignmentID string) (*assignment.Assignment, *course.Course, error) {
	a, ok := l.byWork[assignmentID]
	if !ok {
		var err error
		a, err = l.assignments.GetByExternalID(ctx, assignmentID)
		if err != nil {
			return nil, nil, err
		}
		l.byWork[assignmentID] = a
	}
	c, ok := l.byCourse[a.CourseExternalID]
	if !ok {
		var err error
		c, err = l.courses.GetByExternalID(ctx, a.CourseExternalID)
		if err != nil {
			return nil, nil, err
		}
		l.byCourse[a.CourseExternalID] = c
	}
	return a, c, nil
}
