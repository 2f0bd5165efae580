// Package memstore is an in-memory keyed store. Each entity kind is a map
// from natural key to record, guarded by a single lock so reference checks
// across kinds stay consistent.
package memstore

import (
	"sync"
	"time"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
	"classroom_sync/internal/domain/user"
)

type DB struct {
	mutex       sync.RWMutex
	courses     map[string]course.Course
	students    map[string]student.Student
	assignments map[string]assignment.Assignment
	submissions map[submission.Key]submission.Submission
	invitations map[string]invitation.Invitation
	users       map[string]user.User
	now         func() time.Time
}

func NewDB() *DB {
	return &DB{
		courses:     make(map[string]course.Course),
		students:    make(map[string]student.Student),
		assignments: make(map[string]assignment.Assignment),
		submissions: make(map[submission.Key]submission.Submission),
		invitations: make(map[string]invitation.Invitation),
		users:       make(map[string]user.User),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Counts reports the number of rows per kind. Tests use it to assert that
// repeated syncs create no duplicates.
func (db *DB) Counts() map[string]int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return map[string]int{
		"courses":     len(db.courses),
		"students":    len(db.students),
		"assignments": len(db.assignments),
		"submissions": len(db.submissions),
		"invitations": len(db.invitations),
		"users":       len(db.users),
	}
}

// NewRepositories returns every repository backed by db.
func NewRepositories(db *DB) store.Repositories {
	return store.Repositories{
		Courses:     NewCourseRepository(db),
		Students:    NewStudentRepository(db),
		Assignments: NewAssignmentRepository(db),
		Submissions: NewSubmissionRepository(db),
		Invitations: NewInvitationRepository(db),
		Users:       NewUserRepository(db),
	}
}
