package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/service"
	"playdates/internal/validation"
)

// ProfileHandler handles parent and child profile endpoints
type ProfileHandler struct {
	profiles *service.ProfileService
	location *service.LocationService
	mw       *Middleware
	log      *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService, location *service.LocationService, mw *Middleware, log *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, location: location, mw: mw, log: log}
}

// Register wires the profile routes into the mux
func (h *ProfileHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/profile", h.mw.RequireAuth(h.handleGetOwn))
	mux.HandleFunc("PUT /api/profile", h.mw.RequireAuth(h.handleUpdate))
	mux.HandleFunc("POST /api/profile/location", h.mw.RequireAuth(h.handleReportLocation))
	mux.HandleFunc("GET /api/parents/{id}", h.mw.RequireAuth(h.handleGetPublic))
	mux.HandleFunc("POST /api/children", h.mw.RequireAuth(h.handleAddChild))
	mux.HandleFunc("PUT /api/children/{id}", h.mw.RequireAuth(h.handleUpdateChild))
	mux.HandleFunc("DELETE /api/children/{id}", h.mw.RequireAuth(h.handleRemoveChild))
}

type childPayload struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Age       string   `json:"age"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

func childPayloads(children []models.Child) []childPayload {
	payloads := make([]childPayload, len(children))
	for i, child := range children {
		payloads[i] = childPayload{
			ID:        child.ID,
			Name:      child.Name,
			Age:       child.Age,
			Bio:       child.Bio,
			Interests: child.Interests,
		}
	}
	return payloads
}

func (h *ProfileHandler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	profile, children, err := h.profiles.GetProfile(parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to load profile")
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        profile.ID,
		"email":     profile.Email,
		"name":      profile.Name,
		"bio":       profile.Bio,
		"city":      profile.City,
		"zip_code":  profile.ZipCode,
		"avatar":    profile.AvatarURL,
		"interests": profile.Interests,
		"children":  childPayloads(children),
	})
}

func (h *ProfileHandler) handleGetPublic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	profile, children, err := h.profiles.GetPublicProfile(id)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.WithError(err).Error("failed to load public profile")
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        profile.ID,
		"name":      profile.Name,
		"bio":       profile.Bio,
		"city":      profile.City,
		"avatar":    profile.AvatarURL,
		"interests": profile.Interests,
		"children":  childPayloads(children),
	})
}

func (h *ProfileHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	var req struct {
		Name      string   `json:"name"`
		Bio       string   `json:"bio"`
		City      string   `json:"city"`
		ZipCode   string   `json:"zip_code"`
		AvatarURL string   `json:"avatar"`
		Interests []string `json:"interests"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.profiles.UpdateProfile(parent.ID, req.Name, req.Bio, req.City, req.ZipCode, req.AvatarURL, req.Interests)
	if err != nil {
		h.respondProfileError(w, err, "failed to update profile")
		return
	}

	// A city or ZIP change can shift the resolved location
	h.location.Invalidate(parent.ID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

func (h *ProfileHandler) handleReportLocation(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.location.Report(parent.ID, models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude})
	respondJSON(w, http.StatusOK, map[string]string{"message": "location updated"})
}

func (h *ProfileHandler) handleAddChild(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	var req struct {
		Name      string   `json:"name"`
		Age       string   `json:"age"`
		Bio       string   `json:"bio"`
		Interests []string `json:"interests"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	child, err := h.profiles.AddChild(parent.ID, req.Name, req.Age, req.Bio, req.Interests)
	if err != nil {
		h.respondProfileError(w, err, "failed to add child")
		return
	}

	respondJSON(w, http.StatusCreated, childPayload{
		ID:        child.ID,
		Name:      child.Name,
		Age:       child.Age,
		Bio:       child.Bio,
		Interests: child.Interests,
	})
}

func (h *ProfileHandler) handleUpdateChild(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	childID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	var req struct {
		Name      string   `json:"name"`
		Age       string   `json:"age"`
		Bio       string   `json:"bio"`
		Interests []string `json:"interests"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.profiles.UpdateChild(parent.ID, childID, req.Name, req.Age, req.Bio, req.Interests); err != nil {
		h.respondProfileError(w, err, "failed to update child")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "child updated"})
}

func (h *ProfileHandler) handleRemoveChild(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	childID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	if err := h.profiles.RemoveChild(parent.ID, childID); err != nil {
		h.respondProfileError(w, err, "failed to remove child")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "child removed"})
}

func (h *ProfileHandler) respondProfileError(w http.ResponseWriter, err error, fallback string) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrBlockedContent):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrChildNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotChildOwner):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		h.log.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
