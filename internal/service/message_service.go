package service

import (
	"errors"
	"fmt"
	"strings"

	"playdates/internal/database"
	"playdates/internal/models"
	"playdates/internal/repository"
)

// Messaging errors
var (
	ErrNotConnected = errors.New("messaging requires an accepted connection")
	ErrEmptyMessage = errors.New("message content is empty")
)

// MessageService handles direct messaging between connected parents.
// Every send is gated on an accepted connection between the parties.
type MessageService struct {
	db          *database.DB
	messages    *repository.MessageRepository
	connections *ConnectionService
}

// NewMessageService creates a new message service
func NewMessageService(db *database.DB, messages *repository.MessageRepository, connections *ConnectionService) *MessageService {
	return &MessageService{
		db:          db,
		messages:    messages,
		connections: connections,
	}
}

// Send stores a message from sender to recipient. The pair must have
// an accepted connection and the content must pass the blocklist.
func (s *MessageService) Send(senderID, recipientID int64, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	connected, err := s.connections.AreConnected(senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, ErrNotConnected
	}

	blocked, err := s.db.FindBlockedWords(content)
	if err != nil {
		return nil, err
	}
	if len(blocked) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBlockedContent, strings.Join(blocked, ", "))
	}

	return s.messages.CreateMessage(senderID, recipientID, content)
}

// Conversation retrieves the message history between the parent and a
// peer, oldest first, and marks the peer's messages as read
func (s *MessageService) Conversation(parentID, peerID int64, limit int) ([]models.Message, error) {
	connected, err := s.connections.AreConnected(parentID, peerID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, ErrNotConnected
	}

	messages, err := s.messages.GetConversation(parentID, peerID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkConversationRead(parentID, peerID); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead marks all messages from a peer as read
func (s *MessageService) MarkRead(parentID, peerID int64) error {
	return s.messages.MarkConversationRead(parentID, peerID)
}

// UnreadCounts returns the per-sender unread message counts for a parent
func (s *MessageService) UnreadCounts(parentID int64) (map[int64]int, error) {
	return s.messages.CountUnreadBySender(parentID)
}
