package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/service"
)

// ConnectionHandler handles connection requests and suggestions
type ConnectionHandler struct {
	connections *service.ConnectionService
	suggestions *service.SuggestionService
	mw          *Middleware
	log         *logrus.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connections *service.ConnectionService, suggestions *service.SuggestionService, mw *Middleware, log *logrus.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, suggestions: suggestions, mw: mw, log: log}
}

// Register wires the connection routes into the mux
func (h *ConnectionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/connections", h.mw.RequireAuth(h.handleList))
	mux.HandleFunc("GET /api/connections/pending", h.mw.RequireAuth(h.handlePending))
	mux.HandleFunc("POST /api/connections", h.mw.RequireAuth(h.handleRequest))
	mux.HandleFunc("POST /api/connections/{id}/accept", h.mw.RequireAuth(h.handleAccept))
	mux.HandleFunc("POST /api/connections/{id}/decline", h.mw.RequireAuth(h.handleDecline))
	mux.HandleFunc("GET /api/connections/suggestions", h.mw.RequireAuth(h.handleSuggestions))
}

type connectionPayload struct {
	ID     int64  `json:"id"`
	PeerID int64  `json:"peer_id"`
	Peer   string `json:"peer_name"`
	City   string `json:"peer_city"`
	Status string `json:"status"`
}

func connectionPayloads(viewerID int64, connections []models.Connection, peers map[int64]models.Parent) []connectionPayload {
	payloads := make([]connectionPayload, 0, len(connections))
	for _, conn := range connections {
		peerID := conn.OtherParty(viewerID)
		peer := peers[peerID]
		payloads = append(payloads, connectionPayload{
			ID:     conn.ID,
			PeerID: peerID,
			Peer:   peer.Name,
			City:   peer.City,
			Status: conn.Status,
		})
	}
	return payloads
}

func (h *ConnectionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	connections, peers, err := h.connections.ListConnections(parent.ID, models.ConnectionAccepted)
	if err != nil {
		h.log.WithError(err).Error("failed to list connections")
		respondError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}
	respondJSON(w, http.StatusOK, connectionPayloads(parent.ID, connections, peers))
}

func (h *ConnectionHandler) handlePending(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	connections, peers, err := h.connections.PendingReceived(parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to list pending connections")
		respondError(w, http.StatusInternalServerError, "failed to list pending connections")
		return
	}
	respondJSON(w, http.StatusOK, connectionPayloads(parent.ID, connections, peers))
}

func (h *ConnectionHandler) handleRequest(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	var req struct {
		RecipientID int64 `json:"recipient_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conn, err := h.connections.Request(r.Context(), parent.ID, req.RecipientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfConnection),
			errors.Is(err, service.ErrConnectionDeclined):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConnectionExists):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrProfileNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			h.log.WithError(err).Error("failed to create connection request")
			respondError(w, http.StatusInternalServerError, "failed to create connection request")
		}
		return
	}

	h.suggestions.Invalidate(parent.ID)
	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": conn.ID, "status": conn.Status})
}

func (h *ConnectionHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.connections.Accept)
}

func (h *ConnectionHandler) handleDecline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.connections.Decline)
}

func (h *ConnectionHandler) respond(w http.ResponseWriter, r *http.Request, action func(int64, int64) error) {
	parent := ParentFromContext(r.Context())
	connectionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid connection id")
		return
	}

	if err := action(parent.ID, connectionID); err != nil {
		switch {
		case errors.Is(err, service.ErrConnectionNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotRequestRecipient):
			respondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrRequestNotPending):
			respondError(w, http.StatusConflict, err.Error())
		default:
			h.log.WithError(err).Error("failed to respond to connection request")
			respondError(w, http.StatusInternalServerError, "failed to respond to connection request")
		}
		return
	}

	h.suggestions.Invalidate(parent.ID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (h *ConnectionHandler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	suggestions, err := h.suggestions.Suggestions(r.Context(), parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to load suggestions")
		respondError(w, http.StatusInternalServerError, "failed to load suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []models.SuggestedConnection{}
	}
	respondJSON(w, http.StatusOK, suggestions)
}
