package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		external_id   TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		teacher_email TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS courses_teacher_email_idx ON courses (teacher_email)`,
	`CREATE TABLE IF NOT EXISTS students (
		email            TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		cohort           TEXT,
		external_user_id TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS students_external_user_id_key
		ON students (external_user_id) WHERE external_user_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS assignments (
		external_id        TEXT PRIMARY KEY,
		course_external_id TEXT NOT NULL REFERENCES courses (external_id) ON DELETE CASCADE,
		title              TEXT NOT NULL,
		description        TEXT,
		due_date           TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS assignments_course_idx ON assignments (course_external_id)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		assignment_external_id TEXT NOT NULL REFERENCES assignments (external_id) ON DELETE CASCADE,
		student_email          TEXT NOT NULL REFERENCES students (email) ON DELETE CASCADE,
		external_id            TEXT NOT NULL DEFAULT '',
		state                  TEXT NOT NULL,
		submitted_at           TIMESTAMPTZ,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (assignment_external_id, student_email)
	)`,
	`CREATE INDEX IF NOT EXISTS submissions_student_idx ON submissions (student_email)`,
	`CREATE TABLE IF NOT EXISTS users (
		email      TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL CHECK (role IN ('student', 'teacher', 'coordinator')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS invitations (
		email      TEXT PRIMARY KEY,
		role       TEXT NOT NULL CHECK (role IN ('student', 'teacher', 'coordinator')),
		cohort     TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables and indexes used by the repositories.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
