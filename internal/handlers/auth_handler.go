package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"playdates/internal/security"
	"playdates/internal/service"
	"playdates/internal/validation"
)

// AuthHandler handles registration, login and password reset
type AuthHandler struct {
	auth *service.AuthService
	mw   *Middleware
	log  *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, mw *Middleware, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, mw: mw, log: log}
}

// Register wires the auth routes into the mux
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.mw.RateLimit(h.handleRegister))
	mux.HandleFunc("POST /api/auth/login", h.mw.RateLimit(h.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", h.mw.RequireAuth(h.handleLogout))
	mux.HandleFunc("POST /api/auth/forgot-password", h.mw.RateLimit(h.handleForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", h.mw.RateLimit(h.handleResetPassword))
	mux.HandleFunc("GET /api/auth/me", h.mw.RequireAuth(h.handleMe))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parent, err := h.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		var vErr validation.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrEmailTaken):
			respondError(w, http.StatusConflict, err.Error())
		default:
			h.log.WithError(err).Error("registration failed")
			respondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      parent.ID,
		"email":   parent.Email,
		"message": "account created, awaiting approval",
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parent, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrAccountNotApproved):
			respondError(w, http.StatusForbidden, err.Error())
		default:
			h.log.WithError(err).Error("login failed")
			respondError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	session, err := h.auth.CreateSession(parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to create session")
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":    parent.ID,
		"name":  parent.Name,
		"admin": parent.IsAdmin,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(cookie.Value); err != nil {
			h.log.WithError(err).Warn("failed to delete session")
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.log.WithError(err).Error("password reset request failed")
	}
	// Same response whether or not the account exists
	respondJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a reset email was sent"})
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.Password); err != nil {
		var vErr validation.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, service.ErrInvalidResetToken):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.WithError(err).Error("password reset failed")
			respondError(w, http.StatusInternalServerError, "password reset failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     parent.ID,
		"email":  parent.Email,
		"name":   parent.Name,
		"city":   parent.City,
		"avatar": parent.AvatarURL,
		"admin":  parent.IsAdmin,
	})
}
