package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom_sync/internal/domain/assignment"
)

type PostgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

const assignmentColumns = `external_id, course_external_id, title, description, due_date, created_at, updated_at`

func scanAssignment(row interface{ Scan(...any) error }, a *assignment.Assignment) error {
	return row.Scan(&a.ExternalID, &a.CourseExternalID, &a.Title, &a.Description, &a.DueDate, &a.CreatedAt, &a.UpdatedAt)
}

func (r *PostgresAssignmentRepository) Upsert(ctx context.Context, a *assignment.Assignment) error {
	query := `INSERT INTO assignments (external_id, course_external_id, title, description, due_date)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT (external_id) DO UPDATE
               SET course_external_id = EXCLUDED.course_external_id,
                   title = EXCLUDED.title,
                   description = EXCLUDED.description,
                   due_date = EXCLUDED.due_date,
                   updated_at = NOW()
               RETURNING ` + assignmentColumns
	row := r.db.QueryRowContext(ctx, query, a.ExternalID, a.CourseExternalID, a.Title, a.Description, a.DueDate)
	if err := scanAssignment(row, a); err != nil {
		return mapError("error upserting assignment", err)
	}
	return nil
}

func (r *PostgresAssignmentRepository) GetByExternalID(ctx context.Context, externalID string) (*assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE external_id = $1`
	a := &assignment.Assignment{}
	if err := scanAssignment(r.db.QueryRowContext(ctx, query, externalID), a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assignment.ErrNotFound
		}
		return nil, fmt.Errorf("error getting assignment by external ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAssignmentRepository) Delete(ctx context.Context, externalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE external_id = $1`, externalID)
	if err != nil {
		return fmt.Errorf("error deleting assignment: %w", err)
	}
	return requireAffected(res, assignment.ErrNotFound)
}

func (r *PostgresAssignmentRepository) ListByCourse(ctx context.Context, courseExternalID string) ([]*assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE course_external_id = $1 ORDER BY external_id`
	rows, err := r.db.QueryContext(ctx, query, courseExternalID)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]*assignment.Assignment, 0)
	for rows.Next() {
		a := &assignment.Assignment{}
		if err := scanAssignment(rows, a); err != nil {
			return nil, fmt.Errorf("error scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}
