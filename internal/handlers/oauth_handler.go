package handlers

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"playdates/internal/config"
	"playdates/internal/security"
	"playdates/internal/service"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	appleKeysURL      = "https://appleid.apple.com/auth/keys"
	appleIssuer       = "https://appleid.apple.com"

	oauthStateCookie = "oauth_state"
)

// OAuthHandler handles sign-in with Google and Apple
type OAuthHandler struct {
	auth          *service.AuthService
	googleConfig  *oauth2.Config
	appleClientID string
	log           *logrus.Logger

	appleKeysMu      sync.Mutex
	appleKeys        map[string]*rsa.PublicKey
	appleKeysFetched time.Time
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(auth *service.AuthService, cfg *config.Config, log *logrus.Logger) *OAuthHandler {
	return &OAuthHandler{
		auth: auth,
		googleConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppBaseURL + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		appleClientID: cfg.AppleClientID,
		log:           log,
	}
}

// Register wires the OAuth routes into the mux
func (h *OAuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/google", h.handleGoogleStart)
	mux.HandleFunc("GET /api/auth/google/callback", h.handleGoogleCallback)
	mux.HandleFunc("POST /api/auth/apple/callback", h.handleAppleCallback)
}

func (h *OAuthHandler) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.googleConfig.ClientID == "" {
		respondError(w, http.StatusNotImplemented, "Google sign-in is not configured")
		return
	}

	state := uuid.New().String()
	http.SetCookie(w, security.CreateSessionCookie(r, oauthStateCookie, state, time.Now().Add(10*time.Minute)))
	http.Redirect(w, r, h.googleConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, oauthStateCookie))

	token, err := h.googleConfig.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.log.WithError(err).Error("google code exchange failed")
		respondError(w, http.StatusBadGateway, "sign-in failed")
		return
	}

	client := h.googleConfig.Client(r.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		h.log.WithError(err).Error("google userinfo request failed")
		respondError(w, http.StatusBadGateway, "sign-in failed")
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		h.log.WithError(err).Error("failed to decode google userinfo")
		respondError(w, http.StatusBadGateway, "sign-in failed")
		return
	}

	h.completeLogin(w, r, "google", userInfo.ID, userInfo.Email, userInfo.Name)
}

func (h *OAuthHandler) handleAppleCallback(w http.ResponseWriter, r *http.Request) {
	if h.appleClientID == "" {
		respondError(w, http.StatusNotImplemented, "Apple sign-in is not configured")
		return
	}
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	idToken := r.PostFormValue("id_token")
	if idToken == "" {
		respondError(w, http.StatusBadRequest, "missing id_token")
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, h.appleKeyFunc,
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(h.appleClientID),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		h.log.WithError(err).Warn("apple id_token rejected")
		respondError(w, http.StatusUnauthorized, "invalid identity token")
		return
	}

	subject, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if subject == "" {
		respondError(w, http.StatusUnauthorized, "invalid identity token")
		return
	}

	// Apple only sends the name on first authorization
	name := r.PostFormValue("name")
	if name == "" {
		name = email
	}

	h.completeLogin(w, r, "apple", subject, email, name)
}

func (h *OAuthHandler) completeLogin(w http.ResponseWriter, r *http.Request, provider, subject, email, name string) {
	parent, err := h.auth.OAuthLogin(provider, subject, email, name)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotApproved) {
			respondError(w, http.StatusForbidden, err.Error())
			return
		}
		h.log.WithError(err).Error("oauth login failed")
		respondError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	session, err := h.auth.CreateSession(parent.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to create session")
		respondError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// appleKeyFunc resolves the RSA key named in the token header from
// Apple's published JWKS, refreshing the cached set hourly
func (h *OAuthHandler) appleKeyFunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no key id")
	}

	h.appleKeysMu.Lock()
	defer h.appleKeysMu.Unlock()

	if h.appleKeys == nil || time.Since(h.appleKeysFetched) > time.Hour {
		keys, err := fetchAppleKeys()
		if err != nil {
			return nil, err
		}
		h.appleKeys = keys
		h.appleKeysFetched = time.Now()
	}

	key, ok := h.appleKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}

func fetchAppleKeys() (map[string]*rsa.PublicKey, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(appleKeysURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch apple keys: %w", err)
	}
	defer resp.Body.Close()

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode apple keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, key := range jwks.Keys {
		n, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil, fmt.Errorf("invalid modulus for key %q: %w", key.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil, fmt.Errorf("invalid exponent for key %q: %w", key.Kid, err)
		}
		keys[key.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}
	return keys, nil
}
