package models

import "time"

// Message is a direct message between two connected parents
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Content     string
	IsRead      bool
	CreatedAt   time.Time
}
