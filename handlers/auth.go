package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelfeed/api"
	"reelfeed/services/accounts"
	"reelfeed/services/sessions"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accounts *accounts.Service
	sessions *sessions.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accountsSvc *accounts.Service, sessionsSvc *sessions.Service) *AuthHandler {
	return &AuthHandler{
		accounts: accountsSvc,
		sessions: sessionsSvc,
	}
}

// RegisterRoutes attaches the /auth endpoints to the router.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	requireAuth := api.AccountAuthMiddleware(h.sessions)
	r.Handle("/auth/me", requireAuth(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
	r.HandleFunc("/auth/password/reset/request", h.RequestPasswordReset).Methods(http.MethodPost)
	r.HandleFunc("/auth/password/reset/confirm", h.ConfirmPasswordReset).Methods(http.MethodPost)
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// AccountResponse represents account info response.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register creates a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Create(req.Email, req.Password)
	if err != nil {
		switch err {
		case accounts.ErrEmailExists:
			writeError(w, http.StatusConflict, "email already registered")
		case accounts.ErrEmailRequired, accounts.ErrPasswordRequired:
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{ID: account.ID, Email: account.Email})
}

// Login authenticates a user and returns a session token. The token is also
// set as a cookie so browser sessions work without header plumbing.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session, err := h.sessions.Create(account.ID, r.Header.Get("User-Agent"), getClientIPAddress(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
		AccountID: account.ID,
		Email:     account.Email,
	})
}

// Logout invalidates the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := api.ExtractToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "no session token")
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Session not found is OK - might already be expired
		if err != sessions.ErrSessionNotFound {
			writeError(w, http.StatusInternalServerError, "failed to revoke session")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the current authenticated account info. Authentication is
// enforced by the middleware wrapping this route.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID := api.GetAccountID(r)
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	account, ok := h.accounts.Get(accountID)
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{ID: account.ID, Email: account.Email})
}

// ResetRequestBody represents the password reset request body.
type ResetRequestBody struct {
	Email string `json:"email"`
}

// RequestPasswordReset issues a reset token for the account. The response is
// the same whether or not the email is registered, so the endpoint cannot be
// used to enumerate accounts. Without an outbound mailer the token is only
// written to the server log.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.accounts.NewPasswordResetToken(req.Email)
	if err == nil {
		// TODO: deliver via email once an SMTP config exists
		log.Printf("[auth] password reset token for %s: %s", req.Email, token)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reset requested"})
}

// ResetConfirmBody represents the password reset confirmation body.
type ResetConfirmBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ConfirmPasswordReset validates the reset token and sets the new password.
// All existing sessions for the account are revoked.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	accountID, err := h.accounts.ConfirmPasswordReset(req.Token, req.NewPassword)
	if err != nil {
		switch err {
		case accounts.ErrInvalidResetToken:
			writeError(w, http.StatusUnauthorized, "invalid or expired reset token")
		case accounts.ErrPasswordRequired:
			writeError(w, http.StatusBadRequest, "new password is required")
		default:
			writeError(w, http.StatusInternalServerError, "failed to reset password")
		}
		return
	}

	revoked := h.sessions.RevokeAllForAccount(accountID)
	log.Printf("[auth] password reset completed account=%s revokedSessions=%d", accountID, revoked)

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// getClientIPAddress extracts the client IP, honoring proxy headers.
func getClientIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
