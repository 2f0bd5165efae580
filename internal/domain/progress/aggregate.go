package progress

import (
	"database/sql"
	"math"

	"classroom_sync/internal/domain/submission"
)

// Record is a submission joined with the assignment and course data needed to
// classify and scope it.
type Record struct {
	StudentEmail         string
	AssignmentExternalID string
	State                submission.State
	SubmittedAt          sql.NullTime
	DueDate              sql.NullTime
	CourseExternalID     string
	TeacherEmail         string
}

// Scope restricts aggregation to the courses of one teacher. The zero value
// keeps every record.
type Scope struct {
	TeacherEmail string
}

func (s Scope) includes(r Record) bool {
	return s.TeacherEmail == "" || r.TeacherEmail == s.TeacherEmail
}

// Summary is a student's delivery metrics.
type Summary struct {
	Total                  int `json:"total"`
	Delivered              int `json:"delivered"`
	Late                   int `json:"late"`
	Missing                int `json:"missing"`
	Resubmission           int `json:"resubmission"`
	Unclassified           int `json:"unclassified"`
	DeliveredPercentage    int `json:"deliveredPercentage"`
	LatePercentage         int `json:"latePercentage"`
	MissingPercentage      int `json:"missingPercentage"`
	ResubmissionPercentage int `json:"resubmissionPercentage"`
}

// Aggregate folds records into a Summary. Records outside scope are ignored.
func Aggregate(records []Record, scope Scope) Summary {
	var sum Summary
	for _, r := range records {
		if !scope.includes(r) {
			continue
		}
		sum.Total++
		switch Classify(r.State, r.SubmittedAt, r.DueDate) {
		case Delivered:
			sum.Delivered++
		case Late:
			sum.Late++
		case Missing:
			sum.Missing++
		case Resubmission:
			sum.Resubmission++
		case Unclassified:
			sum.Unclassified++
		}
	}
	sum.DeliveredPercentage = percentage(sum.Delivered, sum.Total)
	sum.LatePercentage = percentage(sum.Late, sum.Total)
	sum.MissingPercentage = percentage(sum.Missing, sum.Total)
	sum.ResubmissionPercentage = percentage(sum.Resubmission, sum.Total)
	return sum
}

func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
