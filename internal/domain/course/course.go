package course

import (
	"time"
)

// UnknownTeacher is stored as TeacherEmail when the provider lists no teacher
// with a visible email for the course.
const UnknownTeacher = "unknown"

// Course is a classroom course mirrored from the provider.
type Course struct {
	ExternalID   string // Natural key, issued by the provider
	Name         string
	TeacherEmail string // Owning teacher, used for ownership scoping
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
