package progress

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"classroom_sync/internal/domain/submission"
)

func record(state submission.State, submittedAt, dueDate sql.NullTime, teacher string) Record {
	return Record{
		StudentEmail: "alice@student.com",
		State:        state,
		SubmittedAt:  submittedAt,
		DueDate:      dueDate,
		TeacherEmail: teacher,
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Aggregate(nil, Scope{}))
}

func TestAggregateCountsAndPercentages(t *testing.T) {
	records := []Record{
		record(submission.StateTurnedIn, at(due.AddDate(0, 0, -1)), at(due), "t1@example.com"),
		record(submission.StateTurnedIn, at(due.AddDate(0, 0, 1)), at(due), "t1@example.com"),
		record(submission.StateNew, sql.NullTime{}, at(due), "t1@example.com"),
	}

	sum := Aggregate(records, Scope{})
	assert.Equal(t, Summary{
		Total:               3,
		Delivered:           1,
		Late:                1,
		Missing:             1,
		DeliveredPercentage: 33,
		LatePercentage:      33,
		MissingPercentage:   33,
	}, sum)
}

func TestAggregateRoundsHalfUp(t *testing.T) {
	records := make([]Record, 0, 8)
	records = append(records, record(submission.StateTurnedIn, at(due), at(due), ""))
	for i := 0; i < 7; i++ {
		records = append(records, record(submission.StateCreated, sql.NullTime{}, at(due), ""))
	}

	sum := Aggregate(records, Scope{})
	assert.Equal(t, 13, sum.DeliveredPercentage) // 12.5
	assert.Equal(t, 88, sum.MissingPercentage)   // 87.5
}

func TestAggregateScopesByTeacher(t *testing.T) {
	records := []Record{
		record(submission.StateTurnedIn, at(due), at(due), "t1@example.com"),
		record(submission.StateNew, sql.NullTime{}, at(due), "t2@example.com"),
		record(submission.StateReturned, sql.NullTime{}, at(due), "t2@example.com"),
	}

	sum := Aggregate(records, Scope{TeacherEmail: "t2@example.com"})
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 0, sum.Delivered)
	assert.Equal(t, 1, sum.Missing)
	assert.Equal(t, 1, sum.Resubmission)
	assert.Equal(t, 50, sum.ResubmissionPercentage)

	none := Aggregate(records, Scope{TeacherEmail: "nobody@example.com"})
	assert.Equal(t, Summary{}, none)
}

// Every combination of state and timestamp presence lands in exactly one
// bucket, so the buckets always add up to the number of submissions.
func TestAggregateBucketsPartitionSubmissions(t *testing.T) {
	states := []submission.State{
		submission.StateUnspecified, submission.StateNew, submission.StateCreated,
		submission.StateTurnedIn, submission.StateReturned, submission.StateReclaimedByStudent,
		submission.State("SOMETHING_NEW"),
	}
	times := []sql.NullTime{{}, at(due.AddDate(0, 0, -1)), at(due.AddDate(0, 0, 1))}
	dueDates := []sql.NullTime{{}, at(due)}

	var records []Record
	for _, s := range states {
		for _, ts := range times {
			for _, d := range dueDates {
				r := record(s, ts, d, "")
				records = append(records, r)

				single := Aggregate([]Record{r}, Scope{})
				buckets := single.Delivered + single.Late + single.Missing + single.Resubmission + single.Unclassified
				assert.Equal(t, 1, buckets, "state %s submitted %v due %v", s, ts.Valid, d.Valid)
			}
		}
	}

	sum := Aggregate(records, Scope{})
	assert.Equal(t, len(records), sum.Total)
	assert.Equal(t, sum.Total, sum.Delivered+sum.Late+sum.Missing+sum.Resubmission+sum.Unclassified)
	for _, p := range []int{sum.DeliveredPercentage, sum.LatePercentage, sum.MissingPercentage, sum.ResubmissionPercentage} {
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestAggregateIgnoresRecordOrder(t *testing.T) {
	records := []Record{
		record(submission.StateTurnedIn, at(due), at(due), ""),
		record(submission.StateReturned, sql.NullTime{}, at(due), ""),
		record(submission.StateNew, sql.NullTime{}, sql.NullTime{}, ""),
	}
	reversed := []Record{records[2], records[1], records[0]}
	assert.Equal(t, Aggregate(records, Scope{}), Aggregate(reversed, Scope{}))
}
