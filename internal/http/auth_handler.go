package http

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/command-center/internal/application"
)

const (
	sessionCookieName = "session_token"
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 600
)

type authService interface {
	LoginURL(state string) (string, error)
	CompleteLogin(ctx context.Context, code string) (application.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, principal application.Principal) (application.User, error)
}

// AuthConfig controls cookie and redirect behaviour of the login flow.
type AuthConfig struct {
	DashboardURL string
	SecureCookie bool
}

type AuthHandler struct {
	service   authService
	cfg       AuthConfig
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, cfg AuthConfig, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	if strings.TrimSpace(cfg.DashboardURL) == "" {
		cfg.DashboardURL = "/"
	}
	return &AuthHandler{service: service, cfg: cfg, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login redirects to the identity provider and remembers the state in a cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Login")
	state, err := generateState()
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to generate state", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, errors.New("failed to initiate login"))
		return
	}

	authURL, err := h.service.LoginURL(state)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to build authorization URL", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, errors.New("failed to initiate login"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the login, sets the session cookie and redirects to the dashboard.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	query := r.URL.Query()
	logger := h.log(ctx, "Callback")

	if providerErr := query.Get("error"); providerErr != "" {
		logger.WarnContext(ctx, "identity provider returned an error", "error", providerErr, "description", query.Get("error_description"))
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errors.New("login was not completed"))
		return
	}

	stored, err := r.Cookie(stateCookieName)
	if err != nil || stored.Value == "" || stored.Value != query.Get("state") {
		logger.WarnContext(ctx, "oauth state mismatch", "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("invalid login state"))
		return
	}
	h.clearCookie(w, stateCookieName)

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("missing authorization code"))
		return
	}

	result, err := h.service.CompleteLogin(ctx, code)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	logger.With("user_id", result.User.ID).InfoContext(ctx, "user logged in")
	http.Redirect(w, r, h.cfg.DashboardURL, http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSession)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.clearCookie(w, sessionCookieName)
	h.log(r.Context(), "Logout").InfoContext(r.Context(), "session revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSession)
		return
	}

	user, err := h.service.CurrentUser(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
	})
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
