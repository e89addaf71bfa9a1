package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"playdates/internal/models"
	"playdates/internal/security"
	"playdates/internal/service"
)

// SessionCookieName is the cookie holding the session id
const SessionCookieName = "session_id"

type contextKey string

const parentContextKey contextKey = "parent"

// Middleware bundles the cross-cutting HTTP concerns
type Middleware struct {
	auth    *service.AuthService
	limiter *security.RateLimiter
	log     *logrus.Logger
}

// NewMiddleware creates the middleware bundle
func NewMiddleware(auth *service.AuthService, limiter *security.RateLimiter, log *logrus.Logger) *Middleware {
	return &Middleware{auth: auth, limiter: limiter, log: log}
}

// ParentFromContext returns the authenticated parent set by RequireAuth
func ParentFromContext(ctx context.Context) *models.Parent {
	parent, _ := ctx.Value(parentContextKey).(*models.Parent)
	return parent
}

// RequireAuth resolves the session cookie to a parent and stores it on
// the request context. Requests without a valid session get 401.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		parent, err := m.auth.GetParentBySession(cookie.Value)
		if err != nil {
			m.log.WithError(err).Error("session lookup failed")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if parent == nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondError(w, http.StatusUnauthorized, "session expired")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), parentContextKey, parent)))
	}
}

// RequireAdmin is RequireAuth plus an admin check
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		parent := ParentFromContext(r.Context())
		if parent == nil || !parent.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

// RateLimit rejects clients that exceed the configured request rate
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Hijack passes through so the WebSocket upgrade works behind Logging
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Logging logs each request with method, path, status and duration
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
