package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playdates/internal/database"
	"playdates/internal/models"
)

// ChildRepository handles database operations for children
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild creates a new child profile under a parent
func (r *ChildRepository) CreateChild(parentID int64, name, age, bio string) (*models.Child, error) {
	query := "INSERT INTO children (parent_id, name, age, bio) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, parentID, name, age, bio)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return &models.Child{
		ID:        id,
		ParentID:  parentID,
		Name:      name,
		Age:       age,
		Bio:       bio,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// GetChildByID retrieves a child by ID
func (r *ChildRepository) GetChildByID(id int64) (*models.Child, error) {
	query := "SELECT id, parent_id, name, age, bio, created_at, updated_at FROM children WHERE id = ?"
	child := &models.Child{}
	err := r.db.QueryRow(query, id).Scan(
		&child.ID,
		&child.ParentID,
		&child.Name,
		&child.Age,
		&child.Bio,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetParentChildren retrieves all children belonging to a parent
func (r *ChildRepository) GetParentChildren(parentID int64) ([]models.Child, error) {
	query := `
		SELECT id, parent_id, name, age, bio, created_at, updated_at
		FROM children
		WHERE parent_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var child models.Child
		err := rows.Scan(
			&child.ID,
			&child.ParentID,
			&child.Name,
			&child.Age,
			&child.Bio,
			&child.CreatedAt,
			&child.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}

	return children, rows.Err()
}

// UpdateChild updates a child's profile fields
func (r *ChildRepository) UpdateChild(id int64, name, age, bio string) error {
	query := "UPDATE children SET name = ?, age = ?, bio = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, name, age, bio, id)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// DeleteChild removes a child profile
func (r *ChildRepository) DeleteChild(id int64) error {
	query := "DELETE FROM children WHERE id = ?"
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}
