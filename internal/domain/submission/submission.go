package submission

import (
	"database/sql"
	"time"
)

// State is the provider's submission state.
type State string

const (
	StateUnspecified        State = "SUBMISSION_STATE_UNSPECIFIED"
	StateNew                State = "NEW"
	StateCreated            State = "CREATED"
	StateTurnedIn           State = "TURNED_IN"
	StateReturned           State = "RETURNED"
	StateReclaimedByStudent State = "RECLAIMED_BY_STUDENT"
)

// Key is the natural key of a submission: one record per student per assignment.
type Key struct {
	AssignmentExternalID string
	StudentEmail         string
}

// Submission is a student's submission for one assignment.
type Submission struct {
	AssignmentExternalID string
	StudentEmail         string
	ExternalID           string // Provider id, informational only
	State                State
	SubmittedAt          sql.NullTime
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (s *Submission) Key() Key {
	return Key{AssignmentExternalID: s.AssignmentExternalID, StudentEmail: s.StudentEmail}
}
