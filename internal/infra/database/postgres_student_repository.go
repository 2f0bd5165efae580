package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom_sync/internal/domain/student"
)

type PostgresStudentRepository struct {
	db *sql.DB
}

func NewPostgresStudentRepository(db *sql.DB) *PostgresStudentRepository {
	return &PostgresStudentRepository{db: db}
}

const studentColumns = `email, name, cohort, external_user_id, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }, s *student.Student) error {
	return row.Scan(&s.Email, &s.Name, &s.Cohort, &s.ExternalUserID, &s.CreatedAt, &s.UpdatedAt)
}

// Upsert keeps the stored cohort and external user id when s carries nulls.
func (r *PostgresStudentRepository) Upsert(ctx context.Context, s *student.Student) error {
	query := `INSERT INTO students (email, name, cohort, external_user_id)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (email) DO UPDATE
               SET name = EXCLUDED.name,
                   cohort = COALESCE(EXCLUDED.cohort, students.cohort),
                   external_user_id = COALESCE(EXCLUDED.external_user_id, students.external_user_id),
                   updated_at = NOW()
               RETURNING ` + studentColumns
	if err := scanStudent(r.db.QueryRowContext(ctx, query, s.Email, s.Name, s.Cohort, s.ExternalUserID), s); err != nil {
		return mapError("error upserting student", err)
	}
	return nil
}

func (r *PostgresStudentRepository) GetByEmail(ctx context.Context, email string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	s := &student.Student{}
	if err := scanStudent(r.db.QueryRowContext(ctx, query, email), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, student.ErrNotFound
		}
		return nil, fmt.Errorf("error getting student by email: %w", err)
	}
	return s, nil
}

func (r *PostgresStudentRepository) ListByExternalUserID(ctx context.Context, externalUserID string) ([]*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE external_user_id = $1 ORDER BY email`
	return r.list(ctx, query, externalUserID)
}

func (r *PostgresStudentRepository) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}
	return requireAffected(res, student.ErrNotFound)
}

func (r *PostgresStudentRepository) List(ctx context.Context, f student.Filter) ([]*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
               WHERE ($1 = '' OR email = $1) AND ($2 = '' OR cohort = $2)
               ORDER BY email`
	return r.list(ctx, query, f.Email, f.Cohort)
}

func (r *PostgresStudentRepository) list(ctx context.Context, query string, args ...any) ([]*student.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	students := make([]*student.Student, 0)
	for rows.Next() {
		s := &student.Student{}
		if err := scanStudent(rows, s); err != nil {
			return nil, fmt.Errorf("error scanning student: %w", err)
		}
		students = append(students, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}
	return students, nil
}
