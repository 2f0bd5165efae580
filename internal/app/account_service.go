package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/domain/student"
	"classroom_sync/internal/domain/user"
)

// DevLogin is the input of AccountService.DevLogin.
type DevLogin struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"max=200"`
	Role   string `json:"role" validate:"omitempty,role"`
	Cohort string `json:"cohort" validate:"omitempty,max=120"`
}

// AccountService keeps local accounts and applies pending invitations on
// first login.
type AccountService struct {
	users       user.Repository
	students    student.Repository
	invitations *InvitationService
	logger      *logrus.Entry
}

func NewAccountService(users user.Repository, students student.Repository, invitations *InvitationService, logger *logrus.Entry) *AccountService {
	return &AccountService{
		users:       users,
		students:    students,
		invitations: invitations,
		logger:      logger.WithField("component", "accounts"),
	}
}

// Login records a verified identity. New accounts start as students and keep
// their role afterwards. A pending invitation overrides the role once and,
// for students, assigns its cohort.
func (s *AccountService) Login(ctx context.Context, email, name string) (*user.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("login email is empty")
	}
	name = displayName(name, email)

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		u = &user.User{Email: email, Role: user.RoleStudent}
	case err != nil:
		return nil, fmt.Errorf("loading user %s: %w", email, err)
	}
	u.Name = name

	// The invitation is consumed only after everything it grants is stored.
	inv, err := s.invitations.Pending(ctx, email)
	switch {
	case errors.Is(err, ErrInvitationNotFound):
		inv = nil
	case err != nil:
		s.logger.WithError(err).WithField("email", email).Warn("failed to load invitation")
		inv = nil
	default:
		u.Role = inv.Role
		if inv.Role == user.RoleStudent {
			st := &student.Student{Email: email, Name: name, Cohort: inv.Cohort}
			if err := s.students.Upsert(ctx, st); err != nil {
				return nil, fmt.Errorf("creating student %s from invitation: %w", email, err)
			}
		}
	}

	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user %s: %w", email, err)
	}

	if inv != nil {
		_, err := s.invitations.Claim(ctx, email)
		if err != nil && !errors.Is(err, ErrInvitationNotFound) {
			s.logger.WithError(err).WithField("email", email).Warn("invitation applied but not consumed")
		}
	}
	s.logger.WithFields(logrus.Fields{"email": u.Email, "role": u.Role}).Info("user logged in")
	return u, nil
}

// DevLogin impersonates an account with an explicit role. Students also get a
// roster record carrying the cohort.
func (s *AccountService) DevLogin(ctx context.Context, in DevLogin) (*user.User, error) {
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = string(user.RoleStudent)
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	u := &user.User{Email: in.Email, Name: displayName(in.Name, in.Email), Role: user.Role(in.Role)}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user %s: %w", in.Email, err)
	}
	if u.Role == user.RoleStudent {
		cohort := strings.TrimSpace(in.Cohort)
		st := &student.Student{Email: u.Email, Name: u.Name, Cohort: sql.NullString{String: cohort, Valid: cohort != ""}}
		if err := s.students.Upsert(ctx, st); err != nil {
			return nil, fmt.Errorf("saving student %s: %w", in.Email, err)
		}
	}
	s.logger.WithFields(logrus.Fields{"email": u.Email, "role": u.Role}).Warn("dev login")
	return u, nil
}

// SetRole switches the role of an existing account.
func (s *AccountService) SetRole(ctx context.Context, email string, role user.Role) (*user.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user %s: %w", u.Email, err)
	}
	return u, nil
}

func (s *AccountService) Get(ctx context.Context, email string) (*user.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return email
}
