package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/repository"
)

// AdminService handles the signup approval back office
type AdminService struct {
	parents *repository.ParentRepository
	email   *EmailService
	log     *logrus.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(parents *repository.ParentRepository, email *EmailService, log *logrus.Logger) *AdminService {
	return &AdminService{parents: parents, email: email, log: log}
}

// PendingSignups lists accounts awaiting approval
func (s *AdminService) PendingSignups() ([]models.Parent, error) {
	return s.parents.GetPendingParents()
}

// ListParents lists all accounts
func (s *AdminService) ListParents() ([]models.Parent, error) {
	return s.parents.GetAllParents()
}

// ApproveSignup approves an account and notifies the parent
func (s *AdminService) ApproveSignup(ctx context.Context, parentID int64) error {
	parent, err := s.parents.GetParentByID(parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrProfileNotFound
	}

	if err := s.parents.SetApproved(parentID, true); err != nil {
		return err
	}

	if err := s.email.SendSignupApproved(ctx, parent.Email, parent.Name); err != nil {
		s.log.WithError(err).Warn("failed to send approval email")
	}
	return nil
}

// RejectSignup deletes an unapproved account
func (s *AdminService) RejectSignup(parentID int64) error {
	parent, err := s.parents.GetParentByID(parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return ErrProfileNotFound
	}
	return s.parents.DeleteParent(parentID)
}

// BootstrapAdmin grants admin and approval to the configured address
// if such an account exists. Run at startup.
func (s *AdminService) BootstrapAdmin(email string) error {
	if email == "" {
		return nil
	}
	parent, err := s.parents.GetParentByEmail(email)
	if err != nil {
		return err
	}
	if parent == nil {
		return nil
	}
	if !parent.IsApproved {
		if err := s.parents.SetApproved(parent.ID, true); err != nil {
			return err
		}
	}
	if !parent.IsAdmin {
		if err := s.parents.SetAdmin(parent.ID, true); err != nil {
			return err
		}
	}
	s.log.WithField("email", email).Info("admin account bootstrapped")
	return nil
}
