package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/domain/invitation"
	"classroom_sync/internal/domain/user"
)

var ErrInvitationNotFound = errors.New("invitation not found")

// NewInvitation is the input of InvitationService.Create.
type NewInvitation struct {
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,role"`
	Cohort string `json:"cohort" validate:"omitempty,max=120"`
}

// InvitationService manages pre-provisioned roles for accounts that have not
// logged in yet.
type InvitationService struct {
	invitations invitation.Repository
	logger      *logrus.Entry
}

func NewInvitationService(repo invitation.Repository, logger *logrus.Entry) *InvitationService {
	return &InvitationService{invitations: repo, logger: logger.WithField("component", "invitations")}
}

// Create validates ni and upserts the invitation keyed by email.
func (s *InvitationService) Create(ctx context.Context, ni NewInvitation) (*invitation.Invitation, error) {
	ni.Email = normalizeEmail(ni.Email)
	ni.Cohort = strings.TrimSpace(ni.Cohort)
	if err := validate.Struct(ni); err != nil {
		return nil, err
	}
	inv := &invitation.Invitation{
		Email:  ni.Email,
		Role:   user.Role(ni.Role),
		Cohort: sql.NullString{String: ni.Cohort, Valid: ni.Cohort != ""},
	}
	if err := s.invitations.Upsert(ctx, inv); err != nil {
		return nil, fmt.Errorf("saving invitation for %s: %w", ni.Email, err)
	}
	s.logger.WithFields(logrus.Fields{"email": inv.Email, "role": inv.Role}).Info("invitation saved")
	return inv, nil
}

// List returns pending invitations, newest first.
func (s *InvitationService) List(ctx context.Context) ([]*invitation.Invitation, error) {
	return s.invitations.List(ctx)
}

func (s *InvitationService) Delete(ctx context.Context, email string) error {
	err := s.invitations.Delete(ctx, normalizeEmail(email))
	if errors.Is(err, invitation.ErrNotFound) {
		return ErrInvitationNotFound
	}
	return err
}

// Pending returns the invitation for email without consuming it.
func (s *InvitationService) Pending(ctx context.Context, email string) (*invitation.Invitation, error) {
	inv, err := s.invitations.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, invitation.ErrNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading invitation for %s: %w", email, err)
	}
	return inv, nil
}

// Claim consumes the invitation for email. A second claim for the same
// invitation returns ErrInvitationNotFound.
func (s *InvitationService) Claim(ctx context.Context, email string) (*invitation.Invitation, error) {
	inv, err := s.invitations.Take(ctx, normalizeEmail(email))
	if errors.Is(err, invitation.ErrNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claiming invitation for %s: %w", email, err)
	}
	s.logger.WithFields(logrus.Fields{"email": inv.Email, "role": inv.Role}).Info("invitation claimed")
	return inv, nil
}
