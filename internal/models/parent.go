package models

import "time"

// Parent represents a parent account in the system
type Parent struct {
	ID            int64
	Email         string
	PasswordHash  string
	Name          string
	Bio           string
	City          string
	ZipCode       string
	AvatarURL     string
	Interests     []string
	OAuthProvider string
	OAuthSubject  string
	IsAdmin       bool
	IsApproved    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents an authenticated session
type Session struct {
	ID        string
	ParentID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetToken represents a token for password reset
type PasswordResetToken struct {
	Token     string
	ParentID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
