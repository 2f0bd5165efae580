package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/user"
)

type failingStudents struct {
	student.Repository
	err error
}

func (f failingStudents) Upsert(context.Context, *student.Student) error {
	return f.err
}

func newAccountStack() (*testStack, *InvitationService, *AccountService) {
	ts := newTestStack()
	invitations := NewInvitationService(ts.repos.Invitations, testLogger())
	accounts := NewAccountService(ts.repos.Users, ts.repos.Students, invitations, testLogger())
	return ts, invitations, accounts
}

func TestInvitationCreateValidates(t *testing.T) {
	_, invitations, _ := newAccountStack()
	ctx := context.Background()

	_, err := invitations.Create(ctx, NewInvitation{Email: "not-an-email", Role: "teacher"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "email", verrs[0].Field())

	_, err = invitations.Create(ctx, NewInvitation{Email: "x@y.com", Role: "admin"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "role", verrs[0].Field())

	inv, err := invitations.Create(ctx, NewInvitation{Email: " New@Teacher.com ", Role: "teacher"})
	require.NoError(t, err)
	assert.Equal(t, "new@teacher.com", inv.Email)
	assert.False(t, inv.Cohort.Valid)
}

func TestInvitationUpsertAndDelete(t *testing.T) {
	_, invitations, _ := newAccountStack()
	ctx := context.Background()

	_, err := invitations.Create(ctx, NewInvitation{Email: "a@x.com", Role: "teacher"})
	require.NoError(t, err)
	_, err = invitations.Create(ctx, NewInvitation{Email: "a@x.com", Role: "student", Cohort: "Cohort A"})
	require.NoError(t, err)

	list, err := invitations.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, user.RoleStudent, list[0].Role)
	assert.Equal(t, "Cohort A", list[0].Cohort.String)

	require.NoError(t, invitations.Delete(ctx, "A@x.com"))
	assert.ErrorIs(t, invitations.Delete(ctx, "a@x.com"), ErrInvitationNotFound)
}

func TestInvitationClaimedAtMostOnce(t *testing.T) {
	_, invitations, _ := newAccountStack()
	ctx := context.Background()
	_, err := invitations.Create(ctx, NewInvitation{Email: "a@x.com", Role: "coordinator"})
	require.NoError(t, err)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := invitations.Claim(ctx, "a@x.com"); err == nil {
				atomic.AddInt32(&wins, 1)
			} else {
				assert.ErrorIs(t, err, ErrInvitationNotFound)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestLoginDefaultsToStudent(t *testing.T) {
	_, _, accounts := newAccountStack()
	u, err := accounts.Login(context.Background(), "Someone@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", u.Email)
	assert.Equal(t, "someone@example.com", u.Name)
	assert.Equal(t, user.RoleStudent, u.Role)
}

func TestLoginAppliesInvitationOnce(t *testing.T) {
	ts, invitations, accounts := newAccountStack()
	ctx := context.Background()
	_, err := invitations.Create(ctx, NewInvitation{Email: "dana@student.com", Role: "student", Cohort: "Cohort C"})
	require.NoError(t, err)

	u, err := accounts.Login(ctx, "dana@student.com", "Dana")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, u.Role)

	st, err := ts.repos.Students.GetByEmail(ctx, "dana@student.com")
	require.NoError(t, err)
	assert.Equal(t, "Cohort C", st.Cohort.String)
	assert.Equal(t, 0, ts.db.Counts()["invitations"])

	_, err = accounts.SetRole(ctx, "dana@student.com", user.RoleTeacher)
	require.NoError(t, err)
	u, err = accounts.Login(ctx, "dana@student.com", "Dana D.")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, u.Role)
	assert.Equal(t, "Dana D.", u.Name)
}

func TestLoginKeepsInvitationWhenApplyingFails(t *testing.T) {
	ts := newTestStack()
	ctx := context.Background()
	invitations := NewInvitationService(ts.repos.Invitations, testLogger())
	_, err := invitations.Create(ctx, NewInvitation{Email: "dana@student.com", Role: "student", Cohort: "Cohort C"})
	require.NoError(t, err)

	dbDown := errors.New("connection reset")
	broken := NewAccountService(ts.repos.Users, failingStudents{Repository: ts.repos.Students, err: dbDown}, invitations, testLogger())
	_, err = broken.Login(ctx, "dana@student.com", "Dana")
	require.ErrorIs(t, err, dbDown)

	list, err := invitations.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dana@student.com", list[0].Email)
	_, err = ts.repos.Users.GetByEmail(ctx, "dana@student.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	accounts := NewAccountService(ts.repos.Users, ts.repos.Students, invitations, testLogger())
	u, err := accounts.Login(ctx, "dana@student.com", "Dana")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, u.Role)
	st, err := ts.repos.Students.GetByEmail(ctx, "dana@student.com")
	require.NoError(t, err)
	assert.Equal(t, "Cohort C", st.Cohort.String)
	list, err = invitations.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoginInvitationOverridesExistingRole(t *testing.T) {
	_, invitations, accounts := newAccountStack()
	ctx := context.Background()
	_, err := accounts.Login(ctx, "t@edu.com", "T")
	require.NoError(t, err)
	_, err = invitations.Create(ctx, NewInvitation{Email: "t@edu.com", Role: "teacher"})
	require.NoError(t, err)

	u, err := accounts.Login(ctx, "t@edu.com", "T")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, u.Role)
}

func TestDevLogin(t *testing.T) {
	ts, _, accounts := newAccountStack()
	ctx := context.Background()

	u, err := accounts.DevLogin(ctx, DevLogin{Email: "eve@student.com", Cohort: "Cohort A"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, u.Role)
	st, err := ts.repos.Students.GetByEmail(ctx, "eve@student.com")
	require.NoError(t, err)
	assert.Equal(t, "Cohort A", st.Cohort.String)

	u, err = accounts.DevLogin(ctx, DevLogin{Email: "boss@example.com", Role: "coordinator"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleCoordinator, u.Role)
	_, err = ts.repos.Students.GetByEmail(ctx, "boss@example.com")
	assert.Error(t, err)

	_, err = accounts.DevLogin(ctx, DevLogin{Email: "x@y.com", Role: "root"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = accounts.SetRole(ctx, "boss@example.com", "root")
	assert.Error(t, err)
}
