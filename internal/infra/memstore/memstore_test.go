package memstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
	"classroom_sync/internal/domain/user"
)

func TestStudentUpsertKeepsOmittedFields(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewDB())

	require.NoError(t, repo.Upsert(ctx, &student.Student{
		Email:          "alice@student.com",
		Name:           "Alice",
		Cohort:         sql.NullString{String: "Cohort A", Valid: true},
		ExternalUserID: sql.NullString{String: "gc-1", Valid: true},
	}))
	require.NoError(t, repo.Upsert(ctx, &student.Student{Email: "alice@student.com", Name: "Alice S."}))

	got, err := repo.GetByEmail(ctx, "alice@student.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice S.", got.Name)
	assert.Equal(t, "Cohort A", got.Cohort.String)
	assert.Equal(t, "gc-1", got.ExternalUserID.String)
}

func TestStudentUpsertRejectsSharedExternalID(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewDB())
	ext := sql.NullString{String: "gc-1", Valid: true}

	require.NoError(t, repo.Upsert(ctx, &student.Student{Email: "a@x.com", Name: "A", ExternalUserID: ext}))
	err := repo.Upsert(ctx, &student.Student{Email: "b@x.com", Name: "B", ExternalUserID: ext})
	assert.ErrorIs(t, err, store.ErrConstraintViolation)

	matches, err := repo.ListByExternalUserID(ctx, "gc-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a@x.com", matches[0].Email)
}

func TestSubmissionRequiresParents(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	subs := NewSubmissionRepository(db)

	err := subs.Upsert(ctx, &submission.Submission{AssignmentExternalID: "cw-1", StudentEmail: "a@x.com", State: submission.StateNew})
	assert.ErrorIs(t, err, store.ErrConstraintViolation)

	err = NewAssignmentRepository(db).Upsert(ctx, &assignment.Assignment{ExternalID: "cw-1", CourseExternalID: "c-1", Title: "T"})
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestCourseDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	courses := NewCourseRepository(db)
	assignments := NewAssignmentRepository(db)
	students := NewStudentRepository(db)
	subs := NewSubmissionRepository(db)

	require.NoError(t, courses.Upsert(ctx, &course.Course{ExternalID: "c-1", Name: "Web", TeacherEmail: "t@x.com"}))
	require.NoError(t, assignments.Upsert(ctx, &assignment.Assignment{ExternalID: "cw-1", CourseExternalID: "c-1", Title: "T"}))
	require.NoError(t, students.Upsert(ctx, &student.Student{Email: "a@x.com", Name: "A"}))
	require.NoError(t, subs.Upsert(ctx, &submission.Submission{AssignmentExternalID: "cw-1", StudentEmail: "a@x.com", State: submission.StateNew}))

	require.NoError(t, courses.Delete(ctx, "c-1"))
	counts := db.Counts()
	assert.Equal(t, 0, counts["assignments"])
	assert.Equal(t, 0, counts["submissions"])
	assert.Equal(t, 1, counts["students"])
	assert.ErrorIs(t, courses.Delete(ctx, "c-1"), course.ErrNotFound)
}

func TestInvitationTakeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewInvitationRepository(NewDB())
	require.NoError(t, repo.Upsert(ctx, &invitation.Invitation{Email: "a@x.com", Role: user.RoleTeacher}))

	inv, err := repo.Take(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, inv.Role)

	_, err = repo.Take(ctx, "a@x.com")
	assert.ErrorIs(t, err, invitation.ErrNotFound)
}
