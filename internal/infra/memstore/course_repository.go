package memstore

import (
	"context"
	"sort"

	"classroom_sync/internal/domain/course"
)

type courseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Upsert(_ context.Context, c *course.Course) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	now := r.db.now()
	stored, ok := r.db.courses[c.ExternalID]
	if !ok {
		stored = course.Course{ExternalID: c.ExternalID, CreatedAt: now}
	}
	stored.Name = c.Name
	stored.TeacherEmail = c.TeacherEmail
	stored.UpdatedAt = now
	r.db.courses[c.ExternalID] = stored
	*c = stored
	return nil
}

func (r *courseRepository) GetByExternalID(_ context.Context, externalID string) (*course.Course, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	c, ok := r.db.courses[externalID]
	if !ok {
		return nil, course.ErrNotFound
	}
	return &c, nil
}

func (r *courseRepository) Delete(_ context.Context, externalID string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.courses[externalID]; !ok {
		return course.ErrNotFound
	}
	for id, a := range r.db.assignments {
		if a.CourseExternalID == externalID {
			r.db.deleteAssignmentLocked(id)
		}
	}
	delete(r.db.courses, externalID)
	return nil
}

func (r *courseRepository) List(_ context.Context, teacherEmail string) ([]*course.Course, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	courses := make([]*course.Course, 0, len(r.db.courses))
	for _, c := range r.db.courses {
		if teacherEmail != "" && c.TeacherEmail != teacherEmail {
			continue
		}
		c := c
		courses = append(courses, &c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ExternalID < courses[j].ExternalID })
	return courses, nil
}
