package models

import "time"

// Connection statuses
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionDeclined = "declined"
)

// Connection is a directed connection request between two parents.
// The relationship is undirected for display purposes: consumers must
// go through ConnectionService.AreConnected rather than checking a
// single direction.
type Connection struct {
	ID          int64
	RequesterID int64
	RecipientID int64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OtherParty returns the id of the peer from the given user's perspective
func (c *Connection) OtherParty(userID int64) int64 {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

// Involves reports whether the given user is a party to the connection
func (c *Connection) Involves(userID int64) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}
