package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playdates/internal/database"
	"playdates/internal/models"
)

// PlaydateRepository handles database operations for playdates.
// The coordinates columns are optional (added by a later migration);
// the repository probes for them once at construction and adjusts its
// queries so it works against either schema.
type PlaydateRepository struct {
	db     *database.DB
	hasGeo bool
}

// NewPlaydateRepository creates a new playdate repository
func NewPlaydateRepository(db *database.DB) *PlaydateRepository {
	return &PlaydateRepository{
		db:     db,
		hasGeo: db.HasColumns("playdates", "latitude", "longitude"),
	}
}

// HasGeoColumns reports whether the playdates table carries coordinates
func (r *PlaydateRepository) HasGeoColumns() bool {
	return r.hasGeo
}

func (r *PlaydateRepository) selectColumns() string {
	cols := `id, creator_id, title, description, location, start_time, end_time,
		max_participants, is_cancelled, created_at, updated_at`
	if r.hasGeo {
		cols += ", latitude, longitude"
	}
	return cols
}

func (r *PlaydateRepository) scanPlaydate(row interface{ Scan(...interface{}) error }) (*models.Playdate, error) {
	playdate := &models.Playdate{}
	dest := []interface{}{
		&playdate.ID,
		&playdate.CreatorID,
		&playdate.Title,
		&playdate.Description,
		&playdate.Location,
		&playdate.StartTime,
		&playdate.EndTime,
		&playdate.MaxParticipants,
		&playdate.IsCancelled,
		&playdate.CreatedAt,
		&playdate.UpdatedAt,
	}
	if r.hasGeo {
		dest = append(dest, &playdate.Latitude, &playdate.Longitude)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return playdate, nil
}

// CreatePlaydate creates a new playdate
func (r *PlaydateRepository) CreatePlaydate(p *models.Playdate) (int64, error) {
	var query string
	var args []interface{}
	if r.hasGeo {
		query = `
			INSERT INTO playdates (creator_id, title, description, location, start_time, end_time, max_participants, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		args = []interface{}{p.CreatorID, p.Title, p.Description, p.Location, p.StartTime, p.EndTime, p.MaxParticipants, p.Latitude, p.Longitude}
	} else {
		query = `
			INSERT INTO playdates (creator_id, title, description, location, start_time, end_time, max_participants)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		args = []interface{}{p.CreatorID, p.Title, p.Description, p.Location, p.StartTime, p.EndTime, p.MaxParticipants}
	}

	id, err := r.db.ExecReturningID(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create playdate: %w", err)
	}
	return id, nil
}

// GetPlaydateByID retrieves a playdate by ID
func (r *PlaydateRepository) GetPlaydateByID(id int64) (*models.Playdate, error) {
	query := "SELECT " + r.selectColumns() + " FROM playdates WHERE id = ?"
	playdate, err := r.scanPlaydate(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playdate: %w", err)
	}
	return playdate, nil
}

// GetUpcomingPlaydates retrieves playdates that have not yet ended and
// are not cancelled, soonest first
func (r *PlaydateRepository) GetUpcomingPlaydates(now time.Time) ([]models.Playdate, error) {
	query := `
		SELECT ` + r.selectColumns() + `
		FROM playdates
		WHERE end_time > ? AND is_cancelled = ?
		ORDER BY start_time ASC
	`
	return r.queryPlaydates(query, now, false)
}

// GetPastPlaydates retrieves playdates that have ended, most recent
// first. Cancelled playdates that have since ended are included; only
// the upcoming query filters them out.
func (r *PlaydateRepository) GetPastPlaydates(now time.Time, limit int) ([]models.Playdate, error) {
	query := `
		SELECT ` + r.selectColumns() + `
		FROM playdates
		WHERE end_time <= ?
		ORDER BY start_time DESC
	`
	args := []interface{}{now}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryPlaydates(query, args...)
}

func (r *PlaydateRepository) queryPlaydates(query string, args ...interface{}) ([]models.Playdate, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playdates: %w", err)
	}
	defer rows.Close()

	var playdates []models.Playdate
	for rows.Next() {
		playdate, err := r.scanPlaydate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playdate: %w", err)
		}
		playdates = append(playdates, *playdate)
	}

	return playdates, rows.Err()
}

// UpdatePlaydate updates a playdate's details
func (r *PlaydateRepository) UpdatePlaydate(p *models.Playdate) error {
	var query string
	var args []interface{}
	if r.hasGeo {
		query = `
			UPDATE playdates
			SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?,
				max_participants = ?, latitude = ?, longitude = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
		args = []interface{}{p.Title, p.Description, p.Location, p.StartTime, p.EndTime, p.MaxParticipants, p.Latitude, p.Longitude, p.ID}
	} else {
		query = `
			UPDATE playdates
			SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?,
				max_participants = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
		args = []interface{}{p.Title, p.Description, p.Location, p.StartTime, p.EndTime, p.MaxParticipants, p.ID}
	}

	_, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update playdate: %w", err)
	}
	return nil
}

// CancelPlaydate marks a playdate as cancelled
func (r *PlaydateRepository) CancelPlaydate(id int64) error {
	query := "UPDATE playdates SET is_cancelled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, true, id)
	if err != nil {
		return fmt.Errorf("failed to cancel playdate: %w", err)
	}
	return nil
}

// DeletePlaydate removes a playdate and, via cascades, its roster entries
func (r *PlaydateRepository) DeletePlaydate(id int64) error {
	query := "DELETE FROM playdates WHERE id = ?"
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete playdate: %w", err)
	}
	return nil
}
