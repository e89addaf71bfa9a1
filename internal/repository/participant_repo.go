package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"playdates/internal/database"
	"playdates/internal/models"
)

// ParticipantRepository handles database operations for playdate rosters.
// The child id set is stored as a comma-separated id string on the row.
type ParticipantRepository struct {
	q database.DBTX
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db}
}

// WithTx returns a copy of the repository that runs inside the given
// transaction. Roster updates are read-modify-write and use this so
// concurrent joins cannot clobber each other.
func (r *ParticipantRepository) WithTx(tx *database.Tx) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

func childIDsToString(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func parseChildIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid child id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

const participantColumns = "id, playdate_id, guardian_id, child_ids, primary_child_id, created_at, updated_at"

func scanParticipant(row interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	participant := &models.Participant{}
	var childIDs string
	err := row.Scan(
		&participant.ID,
		&participant.PlaydateID,
		&participant.GuardianID,
		&childIDs,
		&participant.PrimaryChildID,
		&participant.CreatedAt,
		&participant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	participant.ChildIDs, err = parseChildIDs(childIDs)
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// CreateParticipant inserts a roster entry for a guardian
func (r *ParticipantRepository) CreateParticipant(playdateID, guardianID int64, childIDs []int64, primaryChildID int64) (int64, error) {
	query := `
		INSERT INTO participants (playdate_id, guardian_id, child_ids, primary_child_id)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.q.ExecReturningID(query, playdateID, guardianID, childIDsToString(childIDs), primaryChildID)
	if err != nil {
		return 0, fmt.Errorf("failed to create participant: %w", err)
	}
	return id, nil
}

// GetParticipantByID retrieves a roster entry by ID
func (r *ParticipantRepository) GetParticipantByID(id int64) (*models.Participant, error) {
	query := "SELECT " + participantColumns + " FROM participants WHERE id = ?"
	participant, err := scanParticipant(r.q.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// GetByPlaydateAndGuardian retrieves a guardian's roster entry on a
// playdate, nil if they have not joined
func (r *ParticipantRepository) GetByPlaydateAndGuardian(playdateID, guardianID int64) (*models.Participant, error) {
	query := "SELECT " + participantColumns + " FROM participants WHERE playdate_id = ? AND guardian_id = ?"
	participant, err := scanParticipant(r.q.QueryRow(query, playdateID, guardianID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// GetForPlaydate retrieves all roster entries for a playdate
func (r *ParticipantRepository) GetForPlaydate(playdateID int64) ([]models.Participant, error) {
	query := "SELECT " + participantColumns + " FROM participants WHERE playdate_id = ? ORDER BY created_at ASC"
	rows, err := r.q.Query(query, playdateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, *participant)
	}

	return participants, rows.Err()
}

// GetForGuardian retrieves all roster entries for a guardian
func (r *ParticipantRepository) GetForGuardian(guardianID int64) ([]models.Participant, error) {
	query := "SELECT " + participantColumns + " FROM participants WHERE guardian_id = ?"
	rows, err := r.q.Query(query, guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, *participant)
	}

	return participants, rows.Err()
}

// UpdateChildren replaces the child set and primary child on an entry
func (r *ParticipantRepository) UpdateChildren(id int64, childIDs []int64, primaryChildID int64) error {
	query := "UPDATE participants SET child_ids = ?, primary_child_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.q.Exec(query, childIDsToString(childIDs), primaryChildID, id)
	if err != nil {
		return fmt.Errorf("failed to update participant children: %w", err)
	}
	return nil
}

// DeleteParticipant removes a roster entry
func (r *ParticipantRepository) DeleteParticipant(id int64) error {
	query := "DELETE FROM participants WHERE id = ?"
	_, err := r.q.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return nil
}

// CountsByPlaydate returns the number of roster entries per playdate
// for the given playdate ids in one query
func (r *ParticipantRepository) CountsByPlaydate(playdateIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	if len(playdateIDs) == 0 {
		return counts, nil
	}

	placeholders := make([]string, len(playdateIDs))
	args := make([]interface{}, len(playdateIDs))
	for i, id := range playdateIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `
		SELECT playdate_id, COUNT(*)
		FROM participants
		WHERE playdate_id IN (` + strings.Join(placeholders, ", ") + `)
		GROUP BY playdate_id
	`
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var playdateID int64
		var count int
		if err := rows.Scan(&playdateID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan participant count: %w", err)
		}
		counts[playdateID] = count
	}

	return counts, rows.Err()
}

// CountForPlaydate returns the number of roster entries on one playdate
func (r *ParticipantRepository) CountForPlaydate(playdateID int64) (int, error) {
	var count int
	err := r.q.QueryRow("SELECT COUNT(*) FROM participants WHERE playdate_id = ?", playdateID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}
