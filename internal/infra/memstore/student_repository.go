package memstore

import (
	"context"
	"fmt"
	"sort"

	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/domain/student"
)

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Upsert(_ context.Context, s *student.Student) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if s.ExternalUserID.Valid {
		for email, other := range r.db.students {
			if email != s.Email && other.ExternalUserID.Valid && other.ExternalUserID.String == s.ExternalUserID.String {
				return fmt.Errorf("%w: external user id %s already belongs to %s", store.ErrConstraintViolation, s.ExternalUserID.String, email)
			}
		}
	}

	now := r.db.now()
	stored, ok := r.db.students[s.Email]
	if !ok {
		stored = student.Student{Email: s.Email, CreatedAt: now}
	}
	stored.Name = s.Name
	if s.Cohort.Valid {
		stored.Cohort = s.Cohort
	}
	if s.ExternalUserID.Valid {
		stored.ExternalUserID = s.ExternalUserID
	}
	stored.UpdatedAt = now
	r.db.students[s.Email] = stored
	*s = stored
	return nil
}

func (r *studentRepository) GetByEmail(_ context.Context, email string) (*student.Student, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	s, ok := r.db.students[email]
	if !ok {
		return nil, student.ErrNotFound
	}
	return &s, nil
}

func (r *studentRepository) ListByExternalUserID(_ context.Context, externalUserID string) ([]*student.Student, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var matches []*student.Student
	for _, s := range r.db.students {
		if s.ExternalUserID.Valid && s.ExternalUserID.String == externalUserID {
			s := s
			matches = append(matches, &s)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Email < matches[j].Email })
	return matches, nil
}

func (r *studentRepository) Delete(_ context.Context, email string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.students[email]; !ok {
		return student.ErrNotFound
	}
	for key := range r.db.submissions {
		if key.StudentEmail == email {
			delete(r.db.submissions, key)
		}
	}
	delete(r.db.students, email)
	return nil
}

func (r *studentRepository) List(_ context.Context, f student.Filter) ([]*student.Student, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	students := make([]*student.Student, 0, len(r.db.students))
	for _, s := range r.db.students {
		if f.Email != "" && s.Email != f.Email {
			continue
		}
		if f.Cohort != "" && (!s.Cohort.Valid || s.Cohort.String != f.Cohort) {
			continue
		}
		s := s
		students = append(students, &s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Email < students[j].Email })
	return students, nil
}
