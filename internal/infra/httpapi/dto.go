package httpapi

import (
	"database/sql"
	"time"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/progress"
	"classroom_sync/internal/domain/submission"
	"classroom_sync/internal/domain/user"
)

type userResponse struct {
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  user.Role `json:"role"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
	Dev   bool         `json:"dev,omitempty"`
}

type studentResponse struct {
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Cohort   *string          `json:"cohort"`
	Progress progress.Summary `json:"progress"`
}

type submissionResponse struct {
	StudentEmail string           `json:"studentEmail"`
	State        submission.State `json:"state"`
	SubmittedAt  *time.Time       `json:"submittedAt"`
}

type assignmentResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description *string              `json:"description"`
	DueDate     *time.Time           `json:"dueDate"`
	Submissions []submissionResponse `json:"submissions"`
}

type courseResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	TeacherEmail string               `json:"teacherEmail"`
	Assignments  []assignmentResponse `json:"assignments"`
}

type invitationResponse struct {
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	Cohort    *string   `json:"cohort"`
	CreatedAt time.Time `json:"createdAt"`
}

type syncRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type loginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name, Role: u.Role}
}

func toStudentResponses(list []app.StudentProgress) []studentResponse {
	out := make([]studentResponse, 0, len(list))
	for _, sp := range list {
		out = append(out, studentResponse{
			Email:    sp.Student.Email,
			Name:     sp.Student.Name,
			Cohort:   nullString(sp.Student.Cohort),
			Progress: sp.Progress,
		})
	}
	return out
}

func toCourseResponses(list []app.CourseDetail) []courseResponse {
	out := make([]courseResponse, 0, len(list))
	for _, cd := range list {
		cr := courseResponse{
			ID:           cd.Course.ExternalID,
			Name:         cd.Course.Name,
			TeacherEmail: cd.Course.TeacherEmail,
			Assignments:  make([]assignmentResponse, 0, len(cd.Assignments)),
		}
		for _, ad := range cd.Assignments {
			ar := assignmentResponse{
				ID:          ad.Assignment.ExternalID,
				Title:       ad.Assignment.Title,
				Description: nullString(ad.Assignment.Description),
				DueDate:     nullTime(ad.Assignment.DueDate),
				Submissions: make([]submissionResponse, 0, len(ad.Submissions)),
			}
			for _, s := range ad.Submissions {
				ar.Submissions = append(ar.Submissions, submissionResponse{
					StudentEmail: s.StudentEmail,
					State:        s.State,
					SubmittedAt:  nullTime(s.SubmittedAt),
				})
			}
			cr.Assignments = append(cr.Assignments, ar)
		}
		out = append(out, cr)
	}
	return out
}

func toInvitationResponse(inv *invitation.Invitation) invitationResponse {
	return invitationResponse{Email: inv.Email, Role: inv.Role, Cohort: nullString(inv.Cohort), CreatedAt: inv.CreatedAt}
}
