package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"reelfeed/api"
	"reelfeed/services/accounts"
	"reelfeed/services/sessions"
)

func newAuthRouter(t *testing.T) (*mux.Router, *accounts.Service, *sessions.Service) {
	t.Helper()
	accountsSvc, err := accounts.NewService(t.TempDir(), []byte("test-reset-secret"))
	if err != nil {
		t.Fatalf("create accounts service: %v", err)
	}
	sessionsSvc, err := sessions.NewService(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("create sessions service: %v", err)
	}
	router := mux.NewRouter()
	NewAuthHandler(accountsSvc, sessionsSvc).RegisterRoutes(router)
	return router, accountsSvc, sessionsSvc
}

func registerAndLogin(t *testing.T, router *mux.Router, email, password string) LoginResponse {
	t.Helper()

	body := `{"email": "` + email + `", "password": "` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp
}

func TestRegister(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email": "viewer@example.com", "password": "secret123"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp AccountResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "viewer@example.com" {
		t.Errorf("expected normalized email, got %q", resp.Email)
	}
	if resp.ID == "" {
		t.Error("expected an account id")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	registerAndLogin(t, router, "viewer@example.com", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email": "VIEWER@example.com", "password": "other456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email": "viewer@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	router, _, sessionsSvc := newAuthRouter(t)

	resp := registerAndLogin(t, router, "viewer@example.com", "secret123")
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if _, err := sessionsSvc.Validate(resp.Token); err != nil {
		t.Errorf("token must validate: %v", err)
	}

	// Re-login to inspect the Set-Cookie header directly.
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "viewer@example.com", "password": "secret123"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == api.SessionCookieName {
			found = true
			if !cookie.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	registerAndLogin(t, router, "viewer@example.com", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "viewer@example.com", "password": "wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "nobody@example.com", "password": "secret123"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	login := registerAndLogin(t, router, "viewer@example.com", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp AccountResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != login.AccountID || resp.Email != "viewer@example.com" {
		t.Errorf("unexpected account: %+v", resp)
	}
}

func TestMe_TokenFromCookie(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	login := registerAndLogin(t, router, "viewer@example.com", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: login.Token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMe_NotAuthenticated(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	router, _, sessionsSvc := newAuthRouter(t)
	login := registerAndLogin(t, router, "viewer@example.com", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := sessionsSvc.Validate(login.Token); err == nil {
		t.Error("token must be invalid after logout")
	}
}

func TestPasswordResetRequest_SameResponseForUnknownEmail(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	registerAndLogin(t, router, "viewer@example.com", "secret123")

	for _, email := range []string{"viewer@example.com", "nobody@example.com"} {
		req := httptest.NewRequest(http.MethodPost, "/auth/password/reset/request",
			strings.NewReader(`{"email": "`+email+`"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Errorf("email %s: expected 202, got %d", email, rec.Code)
		}
	}
}

func TestPasswordResetConfirm(t *testing.T) {
	router, accountsSvc, sessionsSvc := newAuthRouter(t)
	login := registerAndLogin(t, router, "viewer@example.com", "secret123")

	token, err := accountsSvc.NewPasswordResetToken("viewer@example.com")
	if err != nil {
		t.Fatalf("issue reset token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/password/reset/confirm",
		strings.NewReader(`{"token": "`+token+`", "newPassword": "fresh456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := accountsSvc.Authenticate("viewer@example.com", "fresh456"); err != nil {
		t.Errorf("new password must work: %v", err)
	}
	if _, err := accountsSvc.Authenticate("viewer@example.com", "secret123"); err == nil {
		t.Error("old password must stop working")
	}
	if _, err := sessionsSvc.Validate(login.Token); err == nil {
		t.Error("existing sessions must be revoked after a reset")
	}
}

func TestPasswordResetConfirm_BadToken(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/password/reset/confirm",
		strings.NewReader(`{"token": "not-a-jwt", "newPassword": "fresh456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPasswordResetConfirm_MissingToken(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/password/reset/confirm",
		strings.NewReader(`{"newPassword": "fresh456"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
