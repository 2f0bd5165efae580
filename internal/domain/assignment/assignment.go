package assignment

import (
	"database/sql"
	"time"
)

// Assignment is a piece of coursework mirrored from the provider.
type Assignment struct {
	ExternalID       string // Natural key, issued by the provider
	CourseExternalID string // Owning course
	Title            string
	Description      sql.NullString
	DueDate          sql.NullTime // Canonical due instant, see NormalizeDueDate
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeDueDate turns a calendar date without time of day into the
// canonical due instant: the last microsecond of that day in loc, the finest
// precision Postgres keeps.
// A zero year, month or day means the provider sent no due date. Dates that
// do not exist on the calendar, such as February 30, are treated the same way
// instead of rolling over into the next month.
func NormalizeDueDate(year, month, day int, loc *time.Location) sql.NullTime {
	if year <= 0 || month <= 0 || month > 12 || day <= 0 {
		return sql.NullTime{}
	}
	if loc == nil {
		loc = time.UTC
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return sql.NullTime{}
	}
	startOfNextDay := time.Date(year, time.Month(month), day+1, 0, 0, 0, 0, loc)
	return sql.NullTime{Time: startOfNextDay.Add(-time.Microsecond), Valid: true}
}
