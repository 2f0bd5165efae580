package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_sync/internal/domain/classroom"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
)

func TestSyncRequiresCredentials(t *testing.T) {
	ts := newTestStack()
	built := false
	svc := NewSyncService(func(context.Context, classroom.Credential) (classroom.Provider, error) {
		built = true
		return newFakeProvider(), nil
	}, ts.reconciler, ts.resolver, SyncOptions{Workers: 1}, testLogger())

	result, err := svc.Sync(context.Background(), classroom.Credential{AccessToken: "  "})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Nil(t, result)
	assert.False(t, built)
}

func TestSyncProviderUnavailable(t *testing.T) {
	ts := newTestStack()
	p := newFakeProvider()
	p.errs["courses"] = errors.New("connection refused")

	result, err := ts.syncService(p, 2).Sync(context.Background(), testCred)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	require.NotNil(t, result)
	assert.False(t, result.FinishedAt.IsZero())
	assert.Equal(t, []string{"courses"}, p.Calls())
}

func TestSyncReconcilesFixture(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()

	result, err := ts.syncService(webDevFixture(), 2).Sync(ctx, testCred)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Courses)
	assert.Equal(t, 1, result.Processed[KindCourse])
	assert.Equal(t, 2, result.Processed[KindStudent])
	assert.Equal(t, 2, result.Processed[KindAssignment])
	assert.Equal(t, 3, result.Processed[KindSubmission])
	assert.Equal(t, 1, result.Skipped[KindSubmission])
	assert.Empty(t, result.Errors)
	assert.True(t, result.Partial())

	c, err := ts.repos.Courses.GetByExternalID(ctx, "c-web")
	require.NoError(t, err)
	assert.Equal(t, "teacher@edu.com", c.TeacherEmail)

	alice, err := ts.repos.Students.GetByEmail(ctx, "alice@student.com")
	require.NoError(t, err)
	assert.Equal(t, "Web Development", alice.Cohort.String)
	assert.Equal(t, "u-alice", alice.ExternalUserID.String)

	html, err := ts.repos.Assignments.GetByExternalID(ctx, "cw-html")
	require.NoError(t, err)
	require.True(t, html.DueDate.Valid)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999000, time.UTC), html.DueDate.Time)

	css, err := ts.repos.Assignments.GetByExternalID(ctx, "cw-css")
	require.NoError(t, err)
	assert.False(t, css.DueDate.Valid)
	assert.Equal(t, "Flexbox", css.Description.String)

	sub, err := ts.repos.Submissions.Get(ctx, submission.Key{AssignmentExternalID: "cw-html", StudentEmail: "alice@student.com"})
	require.NoError(t, err)
	assert.Equal(t, submission.StateTurnedIn, sub.State)
	assert.True(t, sub.SubmittedAt.Valid)

	bob, err := ts.repos.Submissions.Get(ctx, submission.Key{AssignmentExternalID: "cw-html", StudentEmail: "bob@student.com"})
	require.NoError(t, err)
	assert.False(t, bob.SubmittedAt.Valid)
}

func TestSyncIsIdempotent(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	p := webDevFixture()
	svc := ts.syncService(p, 4)

	_, err := svc.Sync(ctx, testCred)
	require.NoError(t, err)
	first := ts.db.Counts()

	p.submissions["c-web/cw-html"][1].State = "TURNED_IN"
	p.submissions["c-web/cw-html"][1].UpdateTime = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	_, err = svc.Sync(ctx, testCred)
	require.NoError(t, err)

	assert.Equal(t, first, ts.db.Counts())
	bob, err := ts.repos.Submissions.Get(ctx, submission.Key{AssignmentExternalID: "cw-html", StudentEmail: "bob@student.com"})
	require.NoError(t, err)
	assert.Equal(t, submission.StateTurnedIn, bob.State)
	assert.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC), bob.SubmittedAt.Time)
}

func TestSyncSkipsUnresolvableUser(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()

	_, err := ts.syncService(webDevFixture(), 1).Sync(ctx, testCred)
	require.NoError(t, err)

	subs, err := ts.repos.Submissions.ListByAssignment(ctx, "cw-html")
	require.NoError(t, err)
	for _, s := range subs {
		assert.NotContains(t, s.StudentEmail, "ghost")
	}
	assert.Len(t, subs, 2)
}

func TestSyncKeepsExistingCohort(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	require.NoError(t, ts.repos.Students.Upsert(ctx, &student.Student{
		Email:  "alice@student.com",
		Name:   "Alice",
		Cohort: sql.NullString{String: "Cohort A", Valid: true},
	}))

	_, err := ts.syncService(webDevFixture(), 1).Sync(ctx, testCred)
	require.NoError(t, err)

	alice, err := ts.repos.Students.GetByEmail(ctx, "alice@student.com")
	require.NoError(t, err)
	assert.Equal(t, "Cohort A", alice.Cohort.String)
	assert.Equal(t, "u-alice", alice.ExternalUserID.String)
}

func TestSyncRefusesSharedExternalID(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	p := webDevFixture()
	p.students["c-web"] = append(p.students["c-web"], classroom.Profile{UserID: "u-alice", Email: "impostor@student.com", FullName: "Impostor"})

	result, err := ts.syncService(p, 1).Sync(ctx, testCred)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, KindStudent, result.Errors[0].Kind)
	assert.ErrorIs(t, result.Errors[0], ErrIdentityConflict)
	_, err = ts.repos.Students.GetByEmail(ctx, "impostor@student.com")
	assert.ErrorIs(t, err, student.ErrNotFound)

	email, err := ts.resolver.Resolve(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@student.com", email)
}

func TestSyncContinuesPastItemFailures(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	p := webDevFixture()
	p.courses = append(p.courses, classroom.Course{ID: "c-db", Name: "Databases"})
	p.students["c-db"] = []classroom.Profile{{UserID: "u-carol", Email: "carol@student.com", FullName: "Carol"}}
	p.courseWork["c-db"] = []classroom.CourseWork{{ID: "cw-sql", Title: "SQL"}}
	p.errs["teachers:c-db"] = errors.New("503 backend error")
	p.errs["submissions:c-web/cw-css"] = errors.New("deadline exceeded")

	result, err := ts.syncService(p, 2).Sync(ctx, testCred)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed[KindCourse])
	assert.Equal(t, 3, result.Processed[KindAssignment])
	assert.Equal(t, 2, result.Processed[KindSubmission])
	assert.Len(t, result.Errors, 2)

	db, err := ts.repos.Courses.GetByExternalID(ctx, "c-db")
	require.NoError(t, err)
	assert.Equal(t, course.UnknownTeacher, db.TeacherEmail)

	_, err = ts.repos.Submissions.Get(ctx, submission.Key{AssignmentExternalID: "cw-css", StudentEmail: "alice@student.com"})
	assert.ErrorIs(t, err, submission.ErrNotFound)
}

func TestSyncStopsFetchingWhenCancelled(t *testing.T) {
	ts := newTestStack()
	p := webDevFixture()
	p.courses = append(p.courses, classroom.Course{ID: "c-db", Name: "Databases"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.onCall = func(call string) {
		if call == "teachers:c-web" {
			cancel()
		}
	}

	result, err := ts.syncService(p, 1).Sync(ctx, testCred)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, []string{"courses", "teachers:c-web"}, p.Calls())
	assert.Equal(t, 0, ts.db.Counts()["courses"])
}

func TestSyncCourseOwnerIsFirstTeacherWithEmail(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	p := webDevFixture()
	p.teachers["c-web"] = []classroom.Profile{
		{UserID: "t-hidden", FullName: "Co-teacher without visible email"},
		{UserID: "t-1", Email: "Teacher@Edu.com", FullName: "Teacher"},
	}

	_, err := ts.syncService(p, 1).Sync(ctx, testCred)
	require.NoError(t, err)
	c, err := ts.repos.Courses.GetByExternalID(ctx, "c-web")
	require.NoError(t, err)
	assert.Equal(t, "teacher@edu.com", c.TeacherEmail)

	p.teachers["c-web"] = []classroom.Profile{{UserID: "t-hidden"}}
	_, err = ts.syncService(p, 1).Sync(ctx, testCred)
	require.NoError(t, err)
	c, err = ts.repos.Courses.GetByExternalID(ctx, "c-web")
	require.NoError(t, err)
	assert.Equal(t, course.UnknownTeacher, c.TeacherEmail)
}
