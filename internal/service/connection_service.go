package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/repository"
)

// Connection errors
var (
	ErrSelfConnection      = errors.New("cannot connect with yourself")
	ErrConnectionExists    = errors.New("connection already exists")
	ErrConnectionDeclined  = errors.New("connection request was declined")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrNotConnectionParty  = errors.New("not a party to this connection")
	ErrNotRequestRecipient = errors.New("only the recipient can respond to a request")
	ErrRequestNotPending   = errors.New("connection request is not pending")
)

// ConnectionService manages connection requests between parents.
// Connections are stored directed (requester, recipient) but the
// relationship is undirected: AreConnected is the single place that
// checks both directions.
type ConnectionService struct {
	connections *repository.ConnectionRepository
	parents     *repository.ParentRepository
	email       *EmailService
	log         *logrus.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(connections *repository.ConnectionRepository, parents *repository.ParentRepository, email *EmailService, log *logrus.Logger) *ConnectionService {
	return &ConnectionService{
		connections: connections,
		parents:     parents,
		email:       email,
		log:         log,
	}
}

// Request creates a pending connection request. A previously declined
// request cannot be re-sent.
func (s *ConnectionService) Request(ctx context.Context, requesterID, recipientID int64) (*models.Connection, error) {
	if requesterID == recipientID {
		return nil, ErrSelfConnection
	}

	recipient, err := s.parents.GetParentByID(recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrProfileNotFound
	}

	existing, err := s.connections.GetConnectionBetween(requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.ConnectionDeclined {
			return nil, ErrConnectionDeclined
		}
		return nil, ErrConnectionExists
	}

	conn, err := s.connections.CreateConnection(requesterID, recipientID)
	if err != nil {
		return nil, err
	}

	// Notification email is best effort
	if requester, err := s.parents.GetParentByID(requesterID); err == nil && requester != nil {
		if err := s.email.SendConnectionRequest(ctx, recipient.Email, recipient.Name, requester.Name); err != nil {
			s.log.WithError(err).Warn("failed to send connection request email")
		}
	}

	return conn, nil
}

// Accept accepts a pending request. Only the recipient may accept.
func (s *ConnectionService) Accept(parentID, connectionID int64) error {
	return s.respond(parentID, connectionID, models.ConnectionAccepted)
}

// Decline declines a pending request. Declines are terminal: the pair
// cannot open a new request afterwards.
func (s *ConnectionService) Decline(parentID, connectionID int64) error {
	return s.respond(parentID, connectionID, models.ConnectionDeclined)
}

func (s *ConnectionService) respond(parentID, connectionID int64, status string) error {
	conn, err := s.connections.GetConnectionByID(connectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return ErrConnectionNotFound
	}
	if conn.RecipientID != parentID {
		return ErrNotRequestRecipient
	}
	if conn.Status != models.ConnectionPending {
		return ErrRequestNotPending
	}
	return s.connections.UpdateConnectionStatus(connectionID, status)
}

// AreConnected reports whether two parents have an accepted connection,
// whichever side sent the original request
func (s *ConnectionService) AreConnected(parentA, parentB int64) (bool, error) {
	conn, err := s.connections.GetConnectionBetween(parentA, parentB)
	if err != nil {
		return false, err
	}
	return conn != nil && conn.Status == models.ConnectionAccepted, nil
}

// ListConnections retrieves a parent's connections with peer profiles
func (s *ConnectionService) ListConnections(parentID int64, status string) ([]models.Connection, map[int64]models.Parent, error) {
	connections, err := s.connections.GetConnectionsForParent(parentID, status)
	if err != nil {
		return nil, nil, err
	}

	peerIDs := make([]int64, 0, len(connections))
	for _, conn := range connections {
		peerIDs = append(peerIDs, conn.OtherParty(parentID))
	}
	peers, err := s.parents.GetParentsByIDs(peerIDs)
	if err != nil {
		return nil, nil, err
	}

	peersByID := make(map[int64]models.Parent, len(peers))
	for _, peer := range peers {
		peer.Email = ""
		peer.PasswordHash = ""
		peer.ZipCode = ""
		peersByID[peer.ID] = peer
	}

	return connections, peersByID, nil
}

// PendingReceived retrieves pending requests awaiting the parent's response
func (s *ConnectionService) PendingReceived(parentID int64) ([]models.Connection, map[int64]models.Parent, error) {
	connections, err := s.connections.GetPendingReceived(parentID)
	if err != nil {
		return nil, nil, err
	}

	peerIDs := make([]int64, 0, len(connections))
	for _, conn := range connections {
		peerIDs = append(peerIDs, conn.RequesterID)
	}
	peers, err := s.parents.GetParentsByIDs(peerIDs)
	if err != nil {
		return nil, nil, err
	}

	peersByID := make(map[int64]models.Parent, len(peers))
	for _, peer := range peers {
		peer.Email = ""
		peer.PasswordHash = ""
		peer.ZipCode = ""
		peersByID[peer.ID] = peer
	}

	return connections, peersByID, nil
}
