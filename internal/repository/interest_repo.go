package repository

import (
	"database/sql"
	"fmt"

	"playdates/internal/database"
	"playdates/internal/models"
)

// InterestRepository handles database operations for the shared interest catalog
type InterestRepository struct {
	db *database.DB
}

// NewInterestRepository creates a new interest repository
func NewInterestRepository(db *database.DB) *InterestRepository {
	return &InterestRepository{db: db}
}

// UpsertByName inserts an interest if missing and returns its id.
// The upsert is atomic so concurrent callers racing on the same name
// both end up with the single canonical row.
func (r *InterestRepository) UpsertByName(name string) (int64, error) {
	dialect := r.db.GetDialect()
	query := "INSERT INTO interests (name) VALUES (?) " + dialect.UpsertClause("name")
	if _, err := r.db.Exec(query, name); err != nil {
		return 0, fmt.Errorf("failed to upsert interest: %w", err)
	}

	var id int64
	err := r.db.QueryRow("SELECT id FROM interests WHERE name = ?", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get interest id: %w", err)
	}
	return id, nil
}

// GetInterestByName retrieves an interest by its name
func (r *InterestRepository) GetInterestByName(name string) (*models.Interest, error) {
	interest := &models.Interest{}
	err := r.db.QueryRow("SELECT id, name FROM interests WHERE name = ?", name).Scan(&interest.ID, &interest.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interest: %w", err)
	}
	return interest, nil
}

// ListInterests retrieves the full interest catalog
func (r *InterestRepository) ListInterests() ([]models.Interest, error) {
	rows, err := r.db.Query("SELECT id, name FROM interests ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}
	defer rows.Close()

	var interests []models.Interest
	for rows.Next() {
		var interest models.Interest
		if err := rows.Scan(&interest.ID, &interest.Name); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		interests = append(interests, interest)
	}

	return interests, rows.Err()
}

// SetParentInterests replaces a parent's interest set
func (r *InterestRepository) SetParentInterests(parentID int64, interestIDs []int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM parent_interests WHERE parent_id = ?", parentID); err != nil {
		return fmt.Errorf("failed to clear parent interests: %w", err)
	}
	for _, interestID := range interestIDs {
		_, err := tx.Exec("INSERT INTO parent_interests (parent_id, interest_id) VALUES (?, ?)", parentID, interestID)
		if err != nil {
			return fmt.Errorf("failed to insert parent interest: %w", err)
		}
	}

	return tx.Commit()
}

// SetChildInterests replaces a child's interest set
func (r *InterestRepository) SetChildInterests(childID int64, interestIDs []int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM child_interests WHERE child_id = ?", childID); err != nil {
		return fmt.Errorf("failed to clear child interests: %w", err)
	}
	for _, interestID := range interestIDs {
		_, err := tx.Exec("INSERT INTO child_interests (child_id, interest_id) VALUES (?, ?)", childID, interestID)
		if err != nil {
			return fmt.Errorf("failed to insert child interest: %w", err)
		}
	}

	return tx.Commit()
}

// GetParentInterestNames retrieves a parent's interest names
func (r *InterestRepository) GetParentInterestNames(parentID int64) ([]string, error) {
	query := `
		SELECT i.name
		FROM interests i
		JOIN parent_interests pi ON pi.interest_id = i.id
		WHERE pi.parent_id = ?
		ORDER BY i.name ASC
	`
	return r.queryNames(query, parentID)
}

// GetChildInterestNames retrieves a child's interest names
func (r *InterestRepository) GetChildInterestNames(childID int64) ([]string, error) {
	query := `
		SELECT i.name
		FROM interests i
		JOIN child_interests ci ON ci.interest_id = i.id
		WHERE ci.child_id = ?
		ORDER BY i.name ASC
	`
	return r.queryNames(query, childID)
}

func (r *InterestRepository) queryNames(query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interest names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan interest name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
