package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// EntityKind names the kind of record a sync counter or error refers to.
type EntityKind string

const (
	KindCourse     EntityKind = "course"
	KindTeacher    EntityKind = "teacher"
	KindStudent    EntityKind = "student"
	KindAssignment EntityKind = "assignment"
	KindSubmission EntityKind = "submission"
)

// ItemError is a failure confined to one item of a sync batch.
type ItemError struct {
	Kind    EntityKind `json:"kind"`
	Key     string     `json:"key"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// SyncResult reports what one sync run did. Counters are keyed by entity kind.
// It is safe for concurrent use while the run is in progress.
type SyncResult struct {
	RunID      string             `json:"runId"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Courses    int                `json:"courses"`
	Processed  map[EntityKind]int `json:"processed"`
	Skipped    map[EntityKind]int `json:"skipped"`
	Errors     []ItemError        `json:"errors"`

	mu sync.Mutex
}

func newSyncResult(runID string, startedAt time.Time) *SyncResult {
	return &SyncResult{
		RunID:     runID,
		StartedAt: startedAt,
		Processed: make(map[EntityKind]int),
		Skipped:   make(map[EntityKind]int),
		Errors:    []ItemError{},
	}
}

func (r *SyncResult) processed(kind EntityKind) {
	r.mu.Lock()
	r.Processed[kind]++
	r.mu.Unlock()
}

func (r *SyncResult) skipped(kind EntityKind) {
	r.mu.Lock()
	r.Skipped[kind]++
	r.mu.Unlock()
}

func (r *SyncResult) fail(kind EntityKind, key string, err error) {
	r.mu.Lock()
	r.Errors = append(r.Errors, ItemError{Kind: kind, Key: key, Message: err.Error(), Err: err})
	r.mu.Unlock()
}

func (r *SyncResult) finish(at time.Time) {
	r.mu.Lock()
	r.FinishedAt = at
	r.mu.Unlock()
}

// Partial reports whether anything was skipped or failed.
func (r *SyncResult) Partial() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Errors) > 0 {
		return true
	}
	for _, n := range r.Skipped {
		if n > 0 {
			return true
		}
	}
	return false
}

// Summary renders the counters as a short human readable report.
func (r *SyncResult) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Sync %s: %d courses in %s\n", r.RunID, r.Courses, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	kinds := []EntityKind{KindCourse, KindStudent, KindAssignment, KindSubmission}
	for _, k := range kinds {
		fmt.Fprintf(&b, "%s: %d processed, %d skipped\n", k, r.Processed[k], r.Skipped[k])
	}
	if len(r.Errors) > 0 {
		byKind := make(map[EntityKind]int)
		for _, e := range r.Errors {
			byKind[e.Kind]++
		}
		names := make([]string, 0, len(byKind))
		for k, n := range byKind {
			names = append(names, fmt.Sprintf("%s=%d", k, n))
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "errors: %d (%s)\n", len(r.Errors), strings.Join(names, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
