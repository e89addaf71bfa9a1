package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/service"
	"playdates/internal/validation"
)

// PlaydateHandler handles the playdate board and roster endpoints
type PlaydateHandler struct {
	playdates *service.PlaydateService
	roster    *service.RosterService
	mw        *Middleware
	log       *logrus.Logger
}

// NewPlaydateHandler creates a new playdate handler
func NewPlaydateHandler(playdates *service.PlaydateService, roster *service.RosterService, mw *Middleware, log *logrus.Logger) *PlaydateHandler {
	return &PlaydateHandler{playdates: playdates, roster: roster, mw: mw, log: log}
}

// Register wires the playdate routes into the mux
func (h *PlaydateHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/playdates/board", h.mw.RequireAuth(h.handleBoard))
	mux.HandleFunc("POST /api/playdates", h.mw.RequireAuth(h.handleCreate))
	mux.HandleFunc("GET /api/playdates/{id}", h.mw.RequireAuth(h.handleGet))
	mux.HandleFunc("PUT /api/playdates/{id}", h.mw.RequireAuth(h.handleUpdate))
	mux.HandleFunc("POST /api/playdates/{id}/cancel", h.mw.RequireAuth(h.handleCancel))
	mux.HandleFunc("POST /api/playdates/{id}/join", h.mw.RequireAuth(h.handleJoin))
	mux.HandleFunc("POST /api/playdates/{id}/leave", h.mw.RequireAuth(h.handleLeave))
	mux.HandleFunc("POST /api/playdates/{id}/remove-child", h.mw.RequireAuth(h.handleRemoveChild))
	mux.HandleFunc("GET /api/playdates/{id}/available-children", h.mw.RequireAuth(h.handleAvailableChildren))
}

func (h *PlaydateHandler) handleBoard(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	board, err := h.playdates.LoadBoard(r.Context(), parent.ID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return // client went away
		}
		h.log.WithError(err).Error("failed to load board")
		respondError(w, http.StatusInternalServerError, "failed to load board")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"all":    emptyIfNil(board.AllPlaydates),
		"mine":   emptyIfNil(board.MyPlaydates),
		"past":   emptyIfNil(board.PastPlaydates),
		"nearby": emptyIfNil(board.NearbyPlaydates),
	})
}

func emptyIfNil(summaries []models.PlaydateSummary) []models.PlaydateSummary {
	if summaries == nil {
		return []models.PlaydateSummary{}
	}
	return summaries
}

type playdateRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	MaxParticipants int      `json:"max_participants"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

func (req *playdateRequest) times() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (h *PlaydateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	var req playdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, end, err := req.times()
	if err != nil {
		respondError(w, http.StatusBadRequest, "times must be RFC 3339")
		return
	}

	playdate, err := h.playdates.Create(parent.ID, req.Title, req.Description, req.Location, start, end, req.MaxParticipants, req.Latitude, req.Longitude)
	if err != nil {
		h.respondPlaydateError(w, err, "failed to create playdate")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": playdate.ID})
}

func (h *PlaydateHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	playdate, roster, err := h.playdates.Get(playdateID)
	if err != nil {
		h.respondPlaydateError(w, err, "failed to load playdate")
		return
	}

	entries := make([]map[string]interface{}, len(roster))
	for i, entry := range roster {
		entries[i] = map[string]interface{}{
			"guardian_id":      entry.GuardianID,
			"child_ids":        entry.ChildIDs,
			"primary_child_id": entry.PrimaryChildID,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":               playdate.ID,
		"host_id":          playdate.CreatorID,
		"title":            playdate.Title,
		"description":      playdate.Description,
		"location":         playdate.Location,
		"start_time":       playdate.StartTime,
		"end_time":         playdate.EndTime,
		"max_participants": playdate.MaxParticipants,
		"status":           playdate.Status(),
		"latitude":         playdate.Latitude,
		"longitude":        playdate.Longitude,
		"roster":           entries,
	})
}

func (h *PlaydateHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	var req playdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, end, err := req.times()
	if err != nil {
		respondError(w, http.StatusBadRequest, "times must be RFC 3339")
		return
	}

	err = h.playdates.Update(parent.ID, &models.Playdate{
		ID:              playdateID,
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartTime:       start,
		EndTime:         end,
		MaxParticipants: req.MaxParticipants,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	})
	if err != nil {
		h.respondPlaydateError(w, err, "failed to update playdate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "playdate updated"})
}

func (h *PlaydateHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	if err := h.playdates.Cancel(parent.ID, playdateID); err != nil {
		h.respondPlaydateError(w, err, "failed to cancel playdate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "playdate cancelled"})
}

func (h *PlaydateHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	var req struct {
		ChildIDs []int64 `json:"child_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.roster.Join(playdateID, parent.ID, req.ChildIDs)
	if err != nil {
		h.respondRosterError(w, err, "failed to join playdate")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"child_ids":        entry.ChildIDs,
		"primary_child_id": entry.PrimaryChildID,
	})
}

func (h *PlaydateHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	var req struct {
		GuardianID int64 `json:"guardian_id"`
	}
	// Body is optional: no body means leaving for yourself
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Leaving for yourself unless the host removes another family
	guardianID := req.GuardianID
	if guardianID == 0 {
		guardianID = parent.ID
	}

	if err := h.roster.Leave(playdateID, guardianID, parent.ID); err != nil {
		h.respondRosterError(w, err, "failed to leave playdate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "left playdate"})
}

func (h *PlaydateHandler) handleRemoveChild(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	var req struct {
		GuardianID int64 `json:"guardian_id"`
		ChildID    int64 `json:"child_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	guardianID := req.GuardianID
	if guardianID == 0 {
		guardianID = parent.ID
	}

	if err := h.roster.RemoveChild(playdateID, guardianID, req.ChildID, parent.ID); err != nil {
		h.respondRosterError(w, err, "failed to remove child from roster")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "child removed from roster"})
}

func (h *PlaydateHandler) handleAvailableChildren(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	playdateID, err := h.pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playdate id")
		return
	}

	children, err := h.roster.AvailableChildren(playdateID, parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to load available children")
		respondError(w, http.StatusInternalServerError, "failed to load available children")
		return
	}
	respondJSON(w, http.StatusOK, childPayloads(children))
}

func (h *PlaydateHandler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (h *PlaydateHandler) respondPlaydateError(w http.ResponseWriter, err error, fallback string) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrInvalidTimeRange):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlaydateNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPlaydateHost):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlaydateCancelled):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *PlaydateHandler) respondRosterError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNoChildrenSelected):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlaydateNotFound),
		errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrChildNotOnRoster),
		errors.Is(err, service.ErrNotJoined):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotChildOwner),
		errors.Is(err, service.ErrNotRosterOwner):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlaydateFull),
		errors.Is(err, service.ErrPlaydateCancelled),
		errors.Is(err, service.ErrPlaydateEnded):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
