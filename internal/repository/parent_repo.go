package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"playdates/internal/database"
	"playdates/internal/models"
)

// ParentRepository handles database operations for parent accounts
type ParentRepository struct {
	db *database.DB
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db *database.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentColumns = `id, email, password_hash, name, bio, city, zip_code, avatar_url,
	oauth_provider, oauth_subject, is_admin, is_approved, created_at, updated_at`

func scanParent(row interface{ Scan(...interface{}) error }) (*models.Parent, error) {
	parent := &models.Parent{}
	err := row.Scan(
		&parent.ID,
		&parent.Email,
		&parent.PasswordHash,
		&parent.Name,
		&parent.Bio,
		&parent.City,
		&parent.ZipCode,
		&parent.AvatarURL,
		&parent.OAuthProvider,
		&parent.OAuthSubject,
		&parent.IsAdmin,
		&parent.IsApproved,
		&parent.CreatedAt,
		&parent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// CreateParent creates a new parent account
func (r *ParentRepository) CreateParent(email, passwordHash, name string) (*models.Parent, error) {
	query := `
		INSERT INTO parents (email, password_hash, name, bio, city, zip_code, avatar_url, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, '', '', '', '', '', '')
	`
	id, err := r.db.ExecReturningID(query, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}

	return &models.Parent{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// GetParentByID retrieves a parent by ID
func (r *ParentRepository) GetParentByID(id int64) (*models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE id = ?"
	parent, err := scanParent(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return parent, nil
}

// GetParentByEmail retrieves a parent by email
func (r *ParentRepository) GetParentByEmail(email string) (*models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE email = ?"
	parent, err := scanParent(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent by email: %w", err)
	}
	return parent, nil
}

// GetParentByOAuth retrieves a parent by OAuth provider and subject
func (r *ParentRepository) GetParentByOAuth(provider, subject string) (*models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE oauth_provider = ? AND oauth_subject = ?"
	parent, err := scanParent(r.db.QueryRow(query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent by oauth: %w", err)
	}
	return parent, nil
}

// LinkOAuthProvider attaches an OAuth identity to an existing account
func (r *ParentRepository) LinkOAuthProvider(parentID int64, provider, subject string) error {
	query := "UPDATE parents SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, provider, subject, parentID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

// GetParentsByIDs retrieves parents for a set of ids in one query
func (r *ParentRepository) GetParentsByIDs(ids []int64) ([]models.Parent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT " + parentColumns + " FROM parents WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		parent, err := scanParent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, *parent)
	}

	return parents, rows.Err()
}

// GetAllParents retrieves all parent accounts
func (r *ParentRepository) GetAllParents() ([]models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents ORDER BY name ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		parent, err := scanParent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, *parent)
	}

	return parents, rows.Err()
}

// GetApprovedParents retrieves all approved parent accounts
func (r *ParentRepository) GetApprovedParents() ([]models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE is_approved = ? ORDER BY name ASC"
	rows, err := r.db.Query(query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		parent, err := scanParent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, *parent)
	}

	return parents, rows.Err()
}

// GetPendingParents retrieves accounts awaiting signup approval
func (r *ParentRepository) GetPendingParents() ([]models.Parent, error) {
	query := "SELECT " + parentColumns + " FROM parents WHERE is_approved = ? ORDER BY created_at ASC"
	rows, err := r.db.Query(query, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		parent, err := scanParent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, *parent)
	}

	return parents, rows.Err()
}

// SetApproved updates the signup approval flag
func (r *ParentRepository) SetApproved(parentID int64, approved bool) error {
	query := "UPDATE parents SET is_approved = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, approved, parentID)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	return nil
}

// SetAdmin updates the admin flag
func (r *ParentRepository) SetAdmin(parentID int64, isAdmin bool) error {
	query := "UPDATE parents SET is_admin = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, isAdmin, parentID)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	return nil
}

// UpdateProfile updates a parent's profile fields
func (r *ParentRepository) UpdateProfile(parentID int64, name, bio, city, zipCode, avatarURL string) error {
	query := `
		UPDATE parents
		SET name = ?, bio = ?, city = ?, zip_code = ?, avatar_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, name, bio, city, zipCode, avatarURL, parentID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdatePassword updates a parent's password hash
func (r *ParentRepository) UpdatePassword(parentID int64, passwordHash string) error {
	query := "UPDATE parents SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, passwordHash, parentID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteParent deletes a parent account and, via cascades, their
// children, connections, messages and roster entries
func (r *ParentRepository) DeleteParent(parentID int64) error {
	query := "DELETE FROM parents WHERE id = ?"
	_, err := r.db.Exec(query, parentID)
	if err != nil {
		return fmt.Errorf("failed to delete parent: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a parent
func (r *ParentRepository) CreateSession(sessionID string, parentID int64, expiresAt time.Time) (*models.Session, error) {
	query := "INSERT INTO sessions (id, parent_id, expires_at) VALUES (?, ?, ?)"
	_, err := r.db.Exec(query, sessionID, parentID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		ParentID:  parentID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID
func (r *ParentRepository) GetSession(sessionID string) (*models.Session, error) {
	query := "SELECT id, parent_id, expires_at, created_at FROM sessions WHERE id = ?"
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.ParentID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session
func (r *ParentRepository) DeleteSession(sessionID string) error {
	query := "DELETE FROM sessions WHERE id = ?"
	_, err := r.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *ParentRepository) DeleteExpiredSessions() error {
	query := "DELETE FROM sessions WHERE expires_at < ?"
	_, err := r.db.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// CreatePasswordResetToken creates a password reset token
func (r *ParentRepository) CreatePasswordResetToken(token string, parentID int64, expiresAt time.Time) error {
	query := "INSERT INTO password_reset_tokens (token, parent_id, expires_at) VALUES (?, ?, ?)"
	_, err := r.db.Exec(query, token, parentID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a reset token
func (r *ParentRepository) GetPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	query := "SELECT token, parent_id, expires_at, created_at, used FROM password_reset_tokens WHERE token = ?"
	resetToken := &models.PasswordResetToken{}
	err := r.db.QueryRow(query, token).Scan(
		&resetToken.Token,
		&resetToken.ParentID,
		&resetToken.ExpiresAt,
		&resetToken.CreatedAt,
		&resetToken.Used,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return resetToken, nil
}

// MarkPasswordResetTokenAsUsed flags a reset token as consumed
func (r *ParentRepository) MarkPasswordResetTokenAsUsed(token string) error {
	query := "UPDATE password_reset_tokens SET used = ? WHERE token = ?"
	_, err := r.db.Exec(query, true, token)
	if err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	return nil
}

// DeleteParentPasswordResetTokens removes all reset tokens for a parent
func (r *ParentRepository) DeleteParentPasswordResetTokens(parentID int64) error {
	query := "DELETE FROM password_reset_tokens WHERE parent_id = ?"
	_, err := r.db.Exec(query, parentID)
	if err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}

// DeleteExpiredPasswordResetTokens removes expired reset tokens
func (r *ParentRepository) DeleteExpiredPasswordResetTokens() error {
	query := "DELETE FROM password_reset_tokens WHERE expires_at < ?"
	_, err := r.db.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return nil
}
