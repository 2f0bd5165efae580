package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom_sync/internal/domain/submission"
)

type PostgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) *PostgresSubmissionRepository {
	return &PostgresSubmissionRepository{db: db}
}

const submissionColumns = `assignment_external_id, student_email, external_id, state, submitted_at, created_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }, s *submission.Submission) error {
	return row.Scan(&s.AssignmentExternalID, &s.StudentEmail, &s.ExternalID, &s.State, &s.SubmittedAt, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PostgresSubmissionRepository) Upsert(ctx context.Context, s *submission.Submission) error {
	query := `INSERT INTO submissions (assignment_external_id, student_email, external_id, state, submitted_at)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT (assignment_external_id, student_email) DO UPDATE
               SET external_id = EXCLUDED.external_id,
                   state = EXCLUDED.state,
                   submitted_at = EXCLUDED.submitted_at,
                   updated_at = NOW()
               RETURNING ` + submissionColumns
	row := r.db.QueryRowContext(ctx, query, s.AssignmentExternalID, s.StudentEmail, s.ExternalID, s.State, s.SubmittedAt)
	if err := scanSubmission(row, s); err != nil {
		return mapError("error upserting submission", err)
	}
	return nil
}

func (r *PostgresSubmissionRepository) Get(ctx context.Context, key submission.Key) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
               WHERE assignment_external_id = $1 AND student_email = $2`
	s := &submission.Submission{}
	if err := scanSubmission(r.db.QueryRowContext(ctx, query, key.AssignmentExternalID, key.StudentEmail), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, submission.ErrNotFound
		}
		return nil, fmt.Errorf("error getting submission: %w", err)
	}
	return s, nil
}

func (r *PostgresSubmissionRepository) Delete(ctx context.Context, key submission.Key) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE assignment_external_id = $1 AND student_email = $2`,
		key.AssignmentExternalID, key.StudentEmail)
	if err != nil {
		return fmt.Errorf("error deleting submission: %w", err)
	}
	return requireAffected(res, submission.ErrNotFound)
}

func (r *PostgresSubmissionRepository) ListByAssignment(ctx context.Context, assignmentExternalID string) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_external_id = $1 ORDER BY student_email`
	return r.list(ctx, query, assignmentExternalID)
}

func (r *PostgresSubmissionRepository) ListByStudent(ctx context.Context, email string) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_email = $1 ORDER BY assignment_external_id`
	return r.list(ctx, query, email)
}

func (r *PostgresSubmissionRepository) list(ctx context.Context, query string, arg string) ([]*submission.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]*submission.Submission, 0)
	for rows.Next() {
		s := &submission.Submission{}
		if err := scanSubmission(rows, s); err != nil {
			return nil, fmt.Errorf("error scanning submission: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return subs, nil
}
