// Package classroom describes the external classroom provider the sync job
// pulls from. Implementations live under internal/infra/classroom.
package classroom

import (
	"context"
	"strings"
	"time"
)

// Credential is the OAuth material for one sync run. It is passed explicitly
// into every sync and never stored process-wide.
type Credential struct {
	AccessToken  string
	RefreshToken string
}

func (c Credential) Empty() bool {
	return strings.TrimSpace(c.AccessToken) == "" && strings.TrimSpace(c.RefreshToken) == ""
}

type Course struct {
	ID   string
	Name string
}

// Profile is a course member (teacher or student) with its nested profile fields.
type Profile struct {
	UserID   string
	Email    string
	FullName string
}

// Date is a calendar date without time of day. Zero fields mean "unset".
type Date struct {
	Year  int
	Month int
	Day   int
}

type CourseWork struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	DueDate     *Date
}

type StudentSubmission struct {
	ID           string
	CourseID     string
	CourseWorkID string
	UserID       string
	State        string
	UpdateTime   time.Time // Zero when the provider sent none
}

// Provider exposes the list operations of the classroom platform. Every call
// follows all result pages before returning.
type Provider interface {
	ListCourses(ctx context.Context) ([]Course, error)
	ListTeachers(ctx context.Context, courseID string) ([]Profile, error)
	ListStudents(ctx context.Context, courseID string) ([]Profile, error)
	ListCourseWork(ctx context.Context, courseID string) ([]CourseWork, error)
	ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]StudentSubmission, error)
}

// ProviderFactory builds a Provider bound to one credential.
type ProviderFactory func(ctx context.Context, cred Credential) (Provider, error)
