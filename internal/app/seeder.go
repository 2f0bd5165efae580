package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
	"classroom_sync/internal/domain/user"
)

// Seeder loads demo data so the API can be explored without a classroom
// account. Running it again refreshes the same records.
type Seeder struct {
	reconciler *Reconciler
	repos      store.Repositories
	loc        *time.Location
	logger     *logrus.Entry
}

func NewSeeder(reconciler *Reconciler, repos store.Repositories, loc *time.Location, logger *logrus.Entry) *Seeder {
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{
		reconciler: reconciler,
		repos:      repos,
		loc:        loc,
		logger:     logger.WithField("component", "seeder"),
	}
}

const (
	SeedCoordinatorEmail = "coordinator@example.com"
	SeedTeacherEmail     = "teacher1@example.com"
)

type seedSubmission struct {
	assignmentID string
	email        string
	state        submission.State
	submittedDay *int // days from now, nil when never submitted
}

func day(n int) *int { return &n }

// Seed writes two courses, three assignments, three students and nine
// submissions with due dates relative to now.
func (s *Seeder) Seed(ctx context.Context, now time.Time) error {
	s.logger.Info("Seeding demo data...")

	users := []user.User{
		{Email: SeedCoordinatorEmail, Name: "Coordinator User", Role: user.RoleCoordinator},
		{Email: SeedTeacherEmail, Name: "Teacher One", Role: user.RoleTeacher},
	}
	students := []student.Student{
		{Email: "alice@student.com", Name: "Alice Student", Cohort: sql.NullString{String: "Cohort A", Valid: true}},
		{Email: "bob@student.com", Name: "Bob Student", Cohort: sql.NullString{String: "Cohort A", Valid: true}},
		{Email: "carol@student.com", Name: "Carol Student", Cohort: sql.NullString{String: "Cohort B", Valid: true}},
	}
	for _, st := range students {
		users = append(users, user.User{Email: st.Email, Name: st.Name, Role: user.RoleStudent})
		st := st
		if err := s.repos.Students.Upsert(ctx, &st); err != nil {
			return fmt.Errorf("seeding student %s: %w", st.Email, err)
		}
	}
	for _, u := range users {
		u := u
		if err := s.repos.Users.Upsert(ctx, &u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
	}

	courses := []course.Course{
		{ExternalID: "mock-course-1", Name: "Intro to Web Dev", TeacherEmail: SeedTeacherEmail},
		{ExternalID: "mock-course-2", Name: "JavaScript Basics", TeacherEmail: SeedTeacherEmail},
	}
	for _, c := range courses {
		if _, err := s.reconciler.UpsertCourse(ctx, c); err != nil {
			return err
		}
	}

	works := []assignment.Assignment{
		{ExternalID: "mock-cw-1", CourseExternalID: "mock-course-1", Title: "Landing Page", Description: nullString("Build a simple landing page"), DueDate: s.dueIn(now, -5)},
		{ExternalID: "mock-cw-2", CourseExternalID: "mock-course-1", Title: "Form Handling", Description: nullString("Handle form submit and validation"), DueDate: s.dueIn(now, -2)},
		{ExternalID: "mock-cw-3", CourseExternalID: "mock-course-2", Title: "Array Methods", Description: nullString("Map/Filter/Reduce exercises"), DueDate: s.dueIn(now, 3)},
	}
	for _, a := range works {
		if _, err := s.reconciler.UpsertAssignment(ctx, a); err != nil {
			return err
		}
	}

	subs := []seedSubmission{
		{"mock-cw-1", "alice@student.com", submission.StateTurnedIn, day(-6)},
		{"mock-cw-2", "alice@student.com", submission.StateTurnedIn, day(-1)},
		{"mock-cw-3", "alice@student.com", submission.StateNew, nil},
		{"mock-cw-1", "bob@student.com", submission.StateCreated, nil},
		{"mock-cw-2", "bob@student.com", submission.StateReturned, day(-2)},
		{"mock-cw-3", "bob@student.com", submission.StateTurnedIn, day(2)},
		{"mock-cw-1", "carol@student.com", submission.StateTurnedIn, day(-4)},
		{"mock-cw-2", "carol@student.com", submission.StateNew, nil},
		{"mock-cw-3", "carol@student.com", submission.StateReclaimedByStudent, day(1)},
	}
	for _, sub := range subs {
		record := submission.Submission{AssignmentExternalID: sub.assignmentID, StudentEmail: sub.email, State: sub.state}
		if sub.submittedDay != nil {
			at := s.atDay(now, *sub.submittedDay).Add(23*time.Hour + 59*time.Minute)
			record.SubmittedAt = sql.NullTime{Time: at, Valid: true}
		}
		if _, err := s.reconciler.UpsertSubmission(ctx, record); err != nil {
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"courses":     len(courses),
		"assignments": len(works),
		"students":    len(students),
		"submissions": len(subs),
	}).Info("Demo data seeded successfully.")
	return nil
}

func (s *Seeder) atDay(now time.Time, days int) time.Time {
	local := now.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day()+days, 0, 0, 0, 0, s.loc)
}

func (s *Seeder) dueIn(now time.Time, days int) sql.NullTime {
	d := s.atDay(now, days)
	return assignment.NormalizeDueDate(d.Year(), int(d.Month()), d.Day(), s.loc)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
