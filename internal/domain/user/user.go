package user

import "time"

// Role decides which progress data a user may see.
type Role string

const (
	RoleStudent     Role = "student"
	RoleTeacher     Role = "teacher"
	RoleCoordinator Role = "coordinator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleCoordinator:
		return true
	}
	return false
}

// User is a local account. Email is the natural key.
type User struct {
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
