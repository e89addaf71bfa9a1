package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/service"
)

// MessageHandler handles direct messaging endpoints
type MessageHandler struct {
	messages *service.MessageService
	hub      *Hub
	mw       *Middleware
	log      *logrus.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService, hub *Hub, mw *Middleware, log *logrus.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, hub: hub, mw: mw, log: log}
}

// Register wires the messaging routes into the mux
func (h *MessageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/messages", h.mw.RequireAuth(h.handleSend))
	mux.HandleFunc("GET /api/messages/{peer}", h.mw.RequireAuth(h.handleConversation))
	mux.HandleFunc("POST /api/messages/{peer}/read", h.mw.RequireAuth(h.handleMarkRead))
	mux.HandleFunc("GET /api/messages/unread", h.mw.RequireAuth(h.handleUnread))
}

type messagePayload struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	RecipientID int64     `json:"recipient_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMessagePayload(msg *models.Message) messagePayload {
	return messagePayload{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	}
}

func (h *MessageHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	var req struct {
		RecipientID int64  `json:"recipient_id"`
		Content     string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messages.Send(parent.ID, req.RecipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotConnected):
			respondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrEmptyMessage),
			errors.Is(err, service.ErrBlockedContent):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.WithError(err).Error("failed to send message")
			respondError(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}

	h.hub.Send(req.RecipientID, Event{Type: "message.new", Data: toMessagePayload(msg)})
	respondJSON(w, http.StatusCreated, toMessagePayload(msg))
}

func (h *MessageHandler) handleConversation(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	peerID, err := strconv.ParseInt(r.PathValue("peer"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid peer id")
		return
	}

	messages, err := h.messages.Conversation(parent.ID, peerID, 0)
	if err != nil {
		if errors.Is(err, service.ErrNotConnected) {
			respondError(w, http.StatusForbidden, err.Error())
			return
		}
		h.log.WithError(err).Error("failed to load conversation")
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	payloads := make([]messagePayload, len(messages))
	for i := range messages {
		payloads[i] = toMessagePayload(&messages[i])
	}
	respondJSON(w, http.StatusOK, payloads)
}

func (h *MessageHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	peerID, err := strconv.ParseInt(r.PathValue("peer"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid peer id")
		return
	}

	if err := h.messages.MarkRead(parent.ID, peerID); err != nil {
		h.log.WithError(err).Error("failed to mark conversation read")
		respondError(w, http.StatusInternalServerError, "failed to mark conversation read")
		return
	}

	// Let the sender's open clients update their read receipts
	h.hub.Send(peerID, Event{Type: "message.read", Data: map[string]int64{"reader_id": parent.ID}})
	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (h *MessageHandler) handleUnread(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	counts, err := h.messages.UnreadCounts(parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to count unread messages")
		respondError(w, http.StatusInternalServerError, "failed to count unread messages")
		return
	}

	total := 0
	for _, count := range counts {
		total += count
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"by_sender": counts,
	})
}
