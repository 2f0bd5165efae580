package invitation

import (
	"database/sql"
	"time"

	"classroom_sync/internal/domain/user"
)

// Invitation pre-provisions the role (and, for students, the cohort) of an
// account that has not logged in yet. It is consumed on first login.
type Invitation struct {
	Email     string
	Role      user.Role
	Cohort    sql.NullString
	CreatedAt time.Time
}
