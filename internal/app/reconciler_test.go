package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
)

func TestIdentityResolver(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	require.NoError(t, ts.repos.Students.Upsert(ctx, &student.Student{
		Email:          "alice@student.com",
		Name:           "Alice",
		ExternalUserID: sql.NullString{String: "u-alice", Valid: true},
	}))

	email, err := ts.resolver.Resolve(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@student.com", email)

	_, err = ts.resolver.Resolve(ctx, "u-nobody")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
	_, err = ts.resolver.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	assert.NoError(t, ts.resolver.Claim(ctx, "u-alice", "alice@student.com"))
	assert.ErrorIs(t, ts.resolver.Claim(ctx, "u-alice", "bob@student.com"), ErrIdentityConflict)
}

func TestReconcilerUpsertsAreIdempotent(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	due := assignment.NormalizeDueDate(2024, 3, 10, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := ts.reconciler.UpsertCourse(ctx, course.Course{ExternalID: "c-1", Name: "Web", TeacherEmail: "t@edu.com"})
		require.NoError(t, err)
		_, err = ts.reconciler.UpsertStudent(ctx, student.Student{Email: "a@x.com", Name: "A"})
		require.NoError(t, err)
		_, err = ts.reconciler.UpsertAssignment(ctx, assignment.Assignment{ExternalID: "cw-1", CourseExternalID: "c-1", Title: "HTML", DueDate: due})
		require.NoError(t, err)
		_, err = ts.reconciler.UpsertSubmission(ctx, submission.Submission{AssignmentExternalID: "cw-1", StudentEmail: "a@x.com", State: submission.StateNew})
		require.NoError(t, err)
	}

	counts := ts.db.Counts()
	assert.Equal(t, 1, counts["courses"])
	assert.Equal(t, 1, counts["students"])
	assert.Equal(t, 1, counts["assignments"])
	assert.Equal(t, 1, counts["submissions"])
}

func TestReconcilerOverwritesProvidedFields(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	_, err := ts.reconciler.UpsertCourse(ctx, course.Course{ExternalID: "c-1", Name: "Web", TeacherEmail: "t@edu.com"})
	require.NoError(t, err)

	_, err = ts.reconciler.UpsertAssignment(ctx, assignment.Assignment{
		ExternalID:       "cw-1",
		CourseExternalID: "c-1",
		Title:            "HTML",
		Description:      sql.NullString{String: "Tags", Valid: true},
		DueDate:          assignment.NormalizeDueDate(2024, 3, 10, time.UTC),
	})
	require.NoError(t, err)

	got, err := ts.reconciler.UpsertAssignment(ctx, assignment.Assignment{ExternalID: "cw-1", CourseExternalID: "c-1", Title: "HTML 5"})
	require.NoError(t, err)
	assert.Equal(t, "HTML 5", got.Title)
	assert.False(t, got.Description.Valid)
	assert.False(t, got.DueDate.Valid)
}

func TestReconcilerSurfacesConstraintViolations(t *testing.T) {
	ts := newTestStack()
	_, err := ts.reconciler.UpsertSubmission(context.Background(), submission.Submission{
		AssignmentExternalID: "cw-missing",
		StudentEmail:         "a@x.com",
		State:                submission.StateNew,
	})
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestReconcilerConcurrentSameKey(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	_, err := ts.reconciler.UpsertCourse(ctx, course.Course{ExternalID: "c-1", Name: "Web"})
	require.NoError(t, err)
	_, err = ts.reconciler.UpsertAssignment(ctx, assignment.Assignment{ExternalID: "cw-1", CourseExternalID: "c-1", Title: "HTML"})
	require.NoError(t, err)
	_, err = ts.reconciler.UpsertStudent(ctx, student.Student{Email: "a@x.com", Name: "A"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ts.reconciler.UpsertSubmission(ctx, submission.Submission{
				AssignmentExternalID: "cw-1",
				StudentEmail:         "a@x.com",
				ExternalID:           fmt.Sprintf("s-%d", i),
				State:                submission.StateTurnedIn,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ts.db.Counts()["submissions"])
	assert.Equal(t, 0, ts.reconciler.locks.size())
}
