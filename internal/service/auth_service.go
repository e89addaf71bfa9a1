package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"playdates/internal/models"
	"playdates/internal/repository"
	"playdates/internal/security"
	"playdates/internal/validation"
)

// Auth errors
var (
	ErrEmailTaken         = errors.New("email address already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotApproved = errors.New("account is awaiting approval")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// AuthService handles account registration, login and sessions
type AuthService struct {
	parents         *repository.ParentRepository
	email           *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(parents *repository.ParentRepository, email *EmailService, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		parents:         parents,
		email:           email,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new parent account. New accounts start unapproved
// and cannot sign in until an admin approves them.
func (s *AuthService) Register(email, password, name string) (*models.Parent, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.parents.GetParentByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.parents.CreateParent(email, hash, name)
}

// Login verifies credentials and returns the parent
func (s *AuthService) Login(email, password string) (*models.Parent, error) {
	parent, err := s.parents.GetParentByEmail(email)
	if err != nil {
		return nil, err
	}
	if parent == nil || !security.CheckPassword(password, parent.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !parent.IsApproved {
		return nil, ErrAccountNotApproved
	}
	return parent, nil
}

// OAuthLogin signs in or registers a parent via an OAuth identity.
// An existing account with the same email is linked; a brand new
// account starts unapproved like any other signup.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.Parent, error) {
	parent, err := s.parents.GetParentByOAuth(provider, subject)
	if err != nil {
		return nil, err
	}

	if parent == nil {
		parent, err = s.parents.GetParentByEmail(email)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			if err := s.parents.LinkOAuthProvider(parent.ID, provider, subject); err != nil {
				return nil, err
			}
		} else {
			parent, err = s.parents.CreateParent(email, "", name)
			if err != nil {
				return nil, err
			}
			if err := s.parents.LinkOAuthProvider(parent.ID, provider, subject); err != nil {
				return nil, err
			}
		}
	}

	if !parent.IsApproved {
		return nil, ErrAccountNotApproved
	}
	return parent, nil
}

// CreateSession creates a new session for a parent
func (s *AuthService) CreateSession(parentID int64) (*models.Session, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)
	return s.parents.CreateSession(sessionID, parentID, expiresAt)
}

// GetParentBySession resolves a session id to a parent, nil if the
// session is unknown or expired. Expired sessions are deleted.
func (s *AuthService) GetParentBySession(sessionID string) (*models.Parent, error) {
	session, err := s.parents.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if session.IsExpired() {
		_ = s.parents.DeleteSession(sessionID)
		return nil, nil
	}
	return s.parents.GetParentByID(session.ParentID)
}

// Logout deletes a session
func (s *AuthService) Logout(sessionID string) error {
	return s.parents.DeleteSession(sessionID)
}

// RequestPasswordReset creates a reset token and emails it. Unknown
// emails are ignored silently so the endpoint cannot be used to probe
// for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	parent, err := s.parents.GetParentByEmail(email)
	if err != nil {
		return err
	}
	if parent == nil {
		return nil
	}

	token := uuid.New().String()
	expiresAt := time.Now().Add(1 * time.Hour)
	if err := s.parents.CreatePasswordResetToken(token, parent.ID, expiresAt); err != nil {
		return err
	}

	return s.email.SendPasswordReset(ctx, parent.Email, parent.Name, token)
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	resetToken, err := s.parents.GetPasswordResetToken(token)
	if err != nil {
		return err
	}
	if resetToken == nil || resetToken.Used || resetToken.IsExpired() {
		return ErrInvalidResetToken
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.parents.UpdatePassword(resetToken.ParentID, hash); err != nil {
		return err
	}
	return s.parents.MarkPasswordResetTokenAsUsed(token)
}

// CleanupExpired removes expired sessions and reset tokens; run
// periodically from the server
func (s *AuthService) CleanupExpired() error {
	if err := s.parents.DeleteExpiredSessions(); err != nil {
		return err
	}
	return s.parents.DeleteExpiredPasswordResetTokens()
}
