package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom_sync/internal/domain/course"
)

type PostgresCourseRepository struct {
	db *sql.DB
}

func NewPostgresCourseRepository(db *sql.DB) *PostgresCourseRepository {
	return &PostgresCourseRepository{db: db}
}

const courseColumns = `external_id, name, teacher_email, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }, c *course.Course) error {
	return row.Scan(&c.ExternalID, &c.Name, &c.TeacherEmail, &c.CreatedAt, &c.UpdatedAt)
}

func (r *PostgresCourseRepository) Upsert(ctx context.Context, c *course.Course) error {
	query := `INSERT INTO courses (external_id, name, teacher_email)
               VALUES ($1, $2, $3)
               ON CONFLICT (external_id) DO UPDATE
               SET name = EXCLUDED.name, teacher_email = EXCLUDED.teacher_email, updated_at = NOW()
               RETURNING ` + courseColumns
	if err := scanCourse(r.db.QueryRowContext(ctx, query, c.ExternalID, c.Name, c.TeacherEmail), c); err != nil {
		return mapError("error upserting course", err)
	}
	return nil
}

func (r *PostgresCourseRepository) GetByExternalID(ctx context.Context, externalID string) (*course.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE external_id = $1`
	c := &course.Course{}
	if err := scanCourse(r.db.QueryRowContext(ctx, query, externalID), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, course.ErrNotFound
		}
		return nil, fmt.Errorf("error getting course by external ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCourseRepository) Delete(ctx context.Context, externalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE external_id = $1`, externalID)
	if err != nil {
		return fmt.Errorf("error deleting course: %w", err)
	}
	return requireAffected(res, course.ErrNotFound)
}

func (r *PostgresCourseRepository) List(ctx context.Context, teacherEmail string) ([]*course.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses
               WHERE ($1 = '' OR teacher_email = $1)
               ORDER BY external_id`
	rows, err := r.db.QueryContext(ctx, query, teacherEmail)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*course.Course, 0)
	for rows.Next() {
		c := &course.Course{}
		if err := scanCourse(rows, c); err != nil {
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}
	return courses, nil
}

// requireAffected returns notFound when res touched no row.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
