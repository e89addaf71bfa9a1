package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playdates/internal/database"
	"playdates/internal/models"
)

// ConnectionRepository handles database operations for parent-to-parent connections
type ConnectionRepository struct {
	db *database.DB
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *database.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = "id, requester_id, recipient_id, status, created_at, updated_at"

func scanConnection(row interface{ Scan(...interface{}) error }) (*models.Connection, error) {
	conn := &models.Connection{}
	err := row.Scan(
		&conn.ID,
		&conn.RequesterID,
		&conn.RecipientID,
		&conn.Status,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// CreateConnection creates a new pending connection request
func (r *ConnectionRepository) CreateConnection(requesterID, recipientID int64) (*models.Connection, error) {
	query := "INSERT INTO connections (requester_id, recipient_id, status) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, requesterID, recipientID, models.ConnectionPending)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return &models.Connection{
		ID:          id,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.ConnectionPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// GetConnectionByID retrieves a connection by ID
func (r *ConnectionRepository) GetConnectionByID(id int64) (*models.Connection, error) {
	query := "SELECT " + connectionColumns + " FROM connections WHERE id = ?"
	conn, err := scanConnection(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// GetConnectionBetween retrieves the connection between two parents in
// either direction, regardless of status
func (r *ConnectionRepository) GetConnectionBetween(parentA, parentB int64) (*models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE (requester_id = ? AND recipient_id = ?)
		   OR (requester_id = ? AND recipient_id = ?)
		ORDER BY created_at DESC
		LIMIT 1
	`
	conn, err := scanConnection(r.db.QueryRow(query, parentA, parentB, parentB, parentA))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection between parents: %w", err)
	}
	return conn, nil
}

// UpdateConnectionStatus updates a connection's status
func (r *ConnectionRepository) UpdateConnectionStatus(id int64, status string) error {
	query := "UPDATE connections SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	return nil
}

// GetConnectionsForParent retrieves connections involving a parent,
// optionally filtered by status (empty status means all)
func (r *ConnectionRepository) GetConnectionsForParent(parentID int64, status string) ([]models.Connection, error) {
	query := "SELECT " + connectionColumns + " FROM connections WHERE (requester_id = ? OR recipient_id = ?)"
	args := []interface{}{parentID, parentID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var connections []models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, *conn)
	}

	return connections, rows.Err()
}

// GetPendingReceived retrieves pending requests awaiting a parent's response
func (r *ConnectionRepository) GetPendingReceived(parentID int64) ([]models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE recipient_id = ? AND status = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, parentID, models.ConnectionPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending connections: %w", err)
	}
	defer rows.Close()

	var connections []models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, *conn)
	}

	return connections, rows.Err()
}

// GetAcceptedPeerIDs returns the ids of every parent connected to the
// given parent, whichever side sent the original request
func (r *ConnectionRepository) GetAcceptedPeerIDs(parentID int64) ([]int64, error) {
	query := `
		SELECT requester_id, recipient_id
		FROM connections
		WHERE (requester_id = ? OR recipient_id = ?) AND status = ?
	`
	rows, err := r.db.Query(query, parentID, parentID, models.ConnectionAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted connections: %w", err)
	}
	defer rows.Close()

	var peers []int64
	for rows.Next() {
		var requesterID, recipientID int64
		if err := rows.Scan(&requesterID, &recipientID); err != nil {
			return nil, fmt.Errorf("failed to scan connection peers: %w", err)
		}
		if requesterID == parentID {
			peers = append(peers, recipientID)
		} else {
			peers = append(peers, requesterID)
		}
	}

	return peers, rows.Err()
}
