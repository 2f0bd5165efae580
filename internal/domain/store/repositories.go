package store

import (
	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/submission"
	"classroom_sync/internal/domain/user"
)

// Repositories bundles one repository per entity kind of a single backend.
type Repositories struct {
	Courses     course.Repository
	Students    student.Repository
	Assignments assignment.Repository
	Submissions submission.Repository
	Invitations invitation.Repository
	Users       user.Repository
}
