package boltstore

import (
	"context"
	"encoding/json"

	"go.etcd.io/bbolt"

	"classroom_sync/internal/domain/assignment"
	"classroom_sync/internal/domain/course"
)

type courseRepository struct {
	s *Store
}

func (r *courseRepository) Upsert(_ context.Context, c *course.Course) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.courses)
		stored, err := get[course.Course](b, c.ExternalID)
		if err != nil {
			return err
		}
		now := r.s.now()
		if stored == nil {
			stored = &course.Course{ExternalID: c.ExternalID, CreatedAt: now}
		}
		stored.Name = c.Name
		stored.TeacherEmail = c.TeacherEmail
		stored.UpdatedAt = now
		if err := put(b, c.ExternalID, stored); err != nil {
			return err
		}
		*c = *stored
		return nil
	})
}

func (r *courseRepository) GetByExternalID(_ context.Context, externalID string) (*course.Course, error) {
	var out *course.Course
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = get[course.Course](tx.Bucket(buckets.courses), externalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, course.ErrNotFound
	}
	return out, nil
}

// Delete removes the course with its assignments and their submissions.
func (r *courseRepository) Delete(_ context.Context, externalID string) error {
	return r.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(buckets.courses)
		if b.Get([]byte(externalID)) == nil {
			return course.ErrNotFound
		}
		var owned []string
		err := tx.Bucket(buckets.assignments).ForEach(func(k, v []byte) error {
			var a assignment.Assignment
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			if a.CourseExternalID == externalID {
				owned = append(owned, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range owned {
			if err := deleteAssignment(tx, id); err != nil {
				return err
			}
		}
		return b.Delete([]byte(externalID))
	})
}

func (r *courseRepository) List(_ context.Context, teacherEmail string) ([]*course.Course, error) {
	var out []*course.Course
	err := r.s.db.View(func(tx *bbolt.Tx) error {
		all, err := listByPrefix[course.Course](tx.Bucket(buckets.courses), "")
		if err != nil {
			return err
		}
		out = make([]*course.Course, 0, len(all))
		for _, c := range all {
			if teacherEmail == "" || c.TeacherEmail == teacherEmail {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}
