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

// AdminHandler handles the signup approval back office
type AdminHandler struct {
	admin *service.AdminService
	mw    *Middleware
	log   *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *service.AdminService, mw *Middleware, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, mw: mw, log: log}
}

// Register wires the admin routes into the mux
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/signups", h.mw.RequireAdmin(h.handlePendingSignups))
	mux.HandleFunc("POST /api/admin/signups/{id}/approve", h.mw.RequireAdmin(h.handleApprove))
	mux.HandleFunc("POST /api/admin/signups/{id}/reject", h.mw.RequireAdmin(h.handleReject))
	mux.HandleFunc("GET /api/admin/parents", h.mw.RequireAdmin(h.handleListParents))
}

type adminParentPayload struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Approved  bool      `json:"approved"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

func adminParentPayloads(parents []models.Parent) []adminParentPayload {
	payloads := make([]adminParentPayload, len(parents))
	for i, parent := range parents {
		payloads[i] = adminParentPayload{
			ID:        parent.ID,
			Email:     parent.Email,
			Name:      parent.Name,
			City:      parent.City,
			Approved:  parent.IsApproved,
			Admin:     parent.IsAdmin,
			CreatedAt: parent.CreatedAt,
		}
	}
	return payloads
}

func (h *AdminHandler) handlePendingSignups(w http.ResponseWriter, r *http.Request) {
	pending, err := h.admin.PendingSignups()
	if err != nil {
		h.log.WithError(err).Error("failed to list pending signups")
		respondError(w, http.StatusInternalServerError, "failed to list pending signups")
		return
	}
	respondJSON(w, http.StatusOK, adminParentPayloads(pending))
}

func (h *AdminHandler) handleListParents(w http.ResponseWriter, r *http.Request) {
	parents, err := h.admin.ListParents()
	if err != nil {
		h.log.WithError(err).Error("failed to list parents")
		respondError(w, http.StatusInternalServerError, "failed to list parents")
		return
	}
	respondJSON(w, http.StatusOK, adminParentPayloads(parents))
}

func (h *AdminHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	if err := h.admin.ApproveSignup(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.WithError(err).Error("failed to approve signup")
		respondError(w, http.StatusInternalServerError, "failed to approve signup")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "signup approved"})
}

func (h *AdminHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	if err := h.admin.RejectSignup(id); err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.WithError(err).Error("failed to reject signup")
		respondError(w, http.StatusInternalServerError, "failed to reject signup")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "signup rejected"})
}
