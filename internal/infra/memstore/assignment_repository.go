package memstore

import (
	"context"
	"fmt"
	"sort"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/store"
)

type assignmentRepository struct {
	db *DB
}

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Upsert(_ context.Context, a *assignment.Assignment) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.courses[a.CourseExternalID]; !ok {
		return fmt.Errorf("%w: course %s does not exist", store.ErrConstraintViolation, a.CourseExternalID)
	}

	now := r.db.now()
	stored, ok := r.db.assignments[a.ExternalID]
	if !ok {
		stored = assignment.Assignment{ExternalID: a.ExternalID, CreatedAt: now}
	}
	stored.CourseExternalID = a.CourseExternalID
	stored.Title = a.Title
	stored.Description = a.Description
	stored.DueDate = a.DueDate
	stored.UpdatedAt = now
	r.db.assignments[a.ExternalID] = stored
	*a = stored
	return nil
}

func (r *assignmentRepository) GetByExternalID(_ context.Context, externalID string) (*assignment.Assignment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	a, ok := r.db.assignments[externalID]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	return &a, nil
}

func (r *assignmentRepository) Delete(_ context.Context, externalID string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.assignments[externalID]; !ok {
		return assignment.ErrNotFound
	}
	r.db.deleteAssignmentLocked(externalID)
	return nil
}

func (r *assignmentRepository) ListByCourse(_ context.Context, courseExternalID string) ([]*assignment.Assignment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var assignments []*assignment.Assignment
	for _, a := range r.db.assignments {
		if a.CourseExternalID == courseExternalID {
			a := a
			assignments = append(assignments, &a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ExternalID < assignments[j].ExternalID })
	return assignments, nil
}

// deleteAssignmentLocked removes an assignment and its submissions. The
// caller holds the write lock.
func (db *DB) deleteAssignmentLocked(externalID string) {
	for key := range db.submissions {
		if key.AssignmentExternalID == externalID {
			delete(db.submissions, key)
		}
	}
	delete(db.assignments, externalID)
}
