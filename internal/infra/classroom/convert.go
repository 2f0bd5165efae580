package classroom

import (
	"time"

	"github.com/sirupsen/logrus"
	gclassroom "google.golang.org/api/classroom/v1"

	domain "classroom_sync/internal/domain/classroom"
)

func toProfile(userID string, p *gclassroom.UserProfile) domain.Profile {
	out := domain.Profile{UserID: userID}
	if p == nil {
		return out
	}
	if out.UserID == "" {
		out.UserID = p.Id
	}
	out.Email = p.EmailAddress
	if p.Name != nil {
		out.FullName = p.Name.FullName
	}
	return out
}

func toCourseWork(w *gclassroom.CourseWork) domain.CourseWork {
	out := domain.CourseWork{
		ID:          w.Id,
		CourseID:    w.CourseId,
		Title:       w.Title,
		Description: w.Description,
	}
	if d := w.DueDate; d != nil && d.Year > 0 && d.Month > 0 && d.Day > 0 {
		out.DueDate = &domain.Date{Year: int(d.Year), Month: int(d.Month), Day: int(d.Day)}
	}
	return out
}

func toSubmission(s *gclassroom.StudentSubmission, logger *logrus.Entry) domain.StudentSubmission {
	out := domain.StudentSubmission{
		ID:           s.Id,
		CourseID:     s.CourseId,
		CourseWorkID: s.CourseWorkId,
		UserID:       s.UserId,
		State:        s.State,
	}
	if s.UpdateTime != "" {
		t, err := time.Parse(time.RFC3339Nano, s.UpdateTime)
		if err != nil {
			logger.WithError(err).WithField("submission_id", s.Id).Warn("unparsable submission update time")
		} else {
			out.UpdateTime = t.UTC()
		}
	}
	return out
}
