package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver

	"classroom_sync/internal/domain/store"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
	pingTimeout            = 5 * time.Second
)

// Postgres error codes mapped to store errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	notNullViolation    = "23502"
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewRepositories returns every repository backed by db.
func NewRepositories(db *sql.DB) store.Repositories {
	return store.Repositories{
		Courses:     NewPostgresCourseRepository(db),
		Students:    NewPostgresStudentRepository(db),
		Assignments: NewPostgresAssignmentRepository(db),
		Submissions: NewPostgresSubmissionRepository(db),
		Invitations: NewPostgresInvitationRepository(db),
		Users:       NewPostgresUserRepository(db),
	}
}

// mapError turns constraint failures into store.ErrConstraintViolation and
// wraps everything else with op.
func mapError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation, foreignKeyViolation, notNullViolation:
			return fmt.Errorf("%s: %w: %s (%s)", op, store.ErrConstraintViolation, pqErr.Message, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
