package repository

import (
	"fmt"
	"time"

	"playdates/internal/database"
	"playdates/internal/models"
)

// MessageRepository handles database operations for direct messages
type MessageRepository struct {
	db *database.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage stores a new message
func (r *MessageRepository) CreateMessage(senderID, recipientID int64, content string) (*models.Message, error) {
	query := "INSERT INTO messages (sender_id, recipient_id, content) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, senderID, recipientID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &models.Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now(),
	}, nil
}

// GetConversation retrieves the messages between two parents, oldest first
func (r *MessageRepository) GetConversation(parentA, parentB int64, limit int) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = ? AND recipient_id = ?)
		   OR (sender_id = ? AND recipient_id = ?)
		ORDER BY created_at ASC
	`
	args := []interface{}{parentA, parentB, parentB, parentA}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Content,
			&msg.IsRead,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// MarkConversationRead marks every message from sender to recipient as
// read. Re-marking already read messages is a no-op.
func (r *MessageRepository) MarkConversationRead(recipientID, senderID int64) error {
	query := "UPDATE messages SET is_read = ? WHERE recipient_id = ? AND sender_id = ? AND is_read = ?"
	_, err := r.db.Exec(query, true, recipientID, senderID, false)
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// CountUnread counts unread messages addressed to a parent
func (r *MessageRepository) CountUnread(parentID int64) (int, error) {
	query := "SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND is_read = ?"
	var count int
	err := r.db.QueryRow(query, parentID, false).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// CountUnreadBySender counts unread messages per sender for a parent
func (r *MessageRepository) CountUnreadBySender(parentID int64) (map[int64]int, error) {
	query := `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE recipient_id = ? AND is_read = ?
		GROUP BY sender_id
	`
	rows, err := r.db.Query(query, parentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread by sender: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var senderID int64
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		counts[senderID] = count
	}

	return counts, rows.Err()
}
