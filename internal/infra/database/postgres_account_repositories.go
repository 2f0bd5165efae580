package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/user"
)

type PostgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) *PostgresInvitationRepository {
	return &PostgresInvitationRepository{db: db}
}

const invitationColumns = `email, role, cohort, created_at`

func scanInvitation(row interface{ Scan(...any) error }, inv *invitation.Invitation) error {
	return row.Scan(&inv.Email, &inv.Role, &inv.Cohort, &inv.CreatedAt)
}

func (r *PostgresInvitationRepository) Upsert(ctx context.Context, inv *invitation.Invitation) error {
	query := `INSERT INTO invitations (email, role, cohort)
               VALUES ($1, $2, $3)
               ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, cohort = EXCLUDED.cohort
               RETURNING ` + invitationColumns
	if err := scanInvitation(r.db.QueryRowContext(ctx, query, inv.Email, inv.Role, inv.Cohort), inv); err != nil {
		return mapError("error upserting invitation", err)
	}
	return nil
}

func (r *PostgresInvitationRepository) GetByEmail(ctx context.Context, email string) (*invitation.Invitation, error) {
	inv := &invitation.Invitation{}
	err := scanInvitation(r.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE email = $1`, email), inv)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrNotFound
		}
		return nil, fmt.Errorf("error getting invitation: %w", err)
	}
	return inv, nil
}

func (r *PostgresInvitationRepository) List(ctx context.Context) ([]*invitation.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+invitationColumns+` FROM invitations ORDER BY created_at DESC, email`)
	if err != nil {
		return nil, fmt.Errorf("error listing invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]*invitation.Invitation, 0)
	for rows.Next() {
		inv := &invitation.Invitation{}
		if err := scanInvitation(rows, inv); err != nil {
			return nil, fmt.Errorf("error scanning invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}
	return invitations, nil
}

func (r *PostgresInvitationRepository) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("error deleting invitation: %w", err)
	}
	return requireAffected(res, invitation.ErrNotFound)
}

// Take deletes and returns the invitation in one statement, so only one of
// several concurrent callers gets the row.
func (r *PostgresInvitationRepository) Take(ctx context.Context, email string) (*invitation.Invitation, error) {
	inv := &invitation.Invitation{}
	err := scanInvitation(r.db.QueryRowContext(ctx, `DELETE FROM invitations WHERE email = $1 RETURNING `+invitationColumns, email), inv)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrNotFound
		}
		return nil, fmt.Errorf("error taking invitation: %w", err)
	}
	return inv, nil
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Upsert(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (email, name, role)
               VALUES ($1, $2, $3)
               ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, updated_at = NOW()
               RETURNING email, name, role, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, u.Email, u.Name, u.Role).Scan(&u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapError("error upserting user", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, `SELECT email, name, role, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return requireAffected(res, user.ErrNotFound)
}
