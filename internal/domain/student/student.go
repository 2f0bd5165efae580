package student

import (
	"database/sql"
	"time"
)

// Student is a roster member. Email is the natural key.
type Student struct {
	Email          string
	Name           string
	Cohort         sql.NullString // Locally assigned or inferred from the first course seen
	ExternalUserID sql.NullString // Provider user id, only used for identity resolution
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
