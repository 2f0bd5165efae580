package progress

import (
	"database/sql"

	"classroom_sync/internal/domain/submission"
)

// Category is the delivery bucket a submission falls into.
type Category string

const (
	Delivered    Category = "DELIVERED"
	Late         Category = "LATE"
	Missing      Category = "MISSING"
	Resubmission Category = "RESUBMISSION"
	// Unclassified holds turned-in work whose assignment has no due date:
	// it is neither on time, late nor missing.
	Unclassified Category = "UNCLASSIFIED"
)

// Classify computes the delivery category of a single submission.
// Every submission maps to exactly one category. Rules, in order:
//
//  1. RETURNED or RECLAIMED_BY_STUDENT is a Resubmission, whatever the timestamps.
//  2. TURNED_IN with both timestamps is Delivered when submittedAt <= dueDate, else Late.
//  3. TURNED_IN with a timestamp but no due date is Unclassified.
//  4. Anything else is Missing: NEW, CREATED, TURNED_IN without a timestamp
//     and states the provider may add later.
func Classify(state submission.State, submittedAt, dueDate sql.NullTime) Category {
	switch state {
	case submission.StateReturned, submission.StateReclaimedByStudent:
		return Resubmission
	case submission.StateTurnedIn:
		if !submittedAt.Valid {
			return Missing
		}
		if !dueDate.Valid {
			return Unclassified
		}
		if submittedAt.Time.After(dueDate.Time) {
			return Late
		}
		return Delivered
	default:
		return Missing
	}
}
