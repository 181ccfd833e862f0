package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newHandlerFixture(t *testing.T) (*Handler, *mockAccountRepo) {
	t.Helper()
	repo := newMockAccountRepo()
	svc := NewService(repo, "test-secret")
	return NewHandler(svc, false), repo
}

func TestHandlerLogin_SetsCookie(t *testing.T) {
	h, repo := newHandlerFixture(t)
	seedAccount(t, repo, "admin", "secret123")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session",
		strings.NewReader(`{"username":"admin","password":"secret123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	var found bool
	for _, ck := range cookies {
		if ck.Name == CookieName && ck.Value != "" {
			found = true
			if !ck.HttpOnly {
				t.Error("expected HttpOnly session cookie")
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set")
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	data := body["data"].(map[string]interface{})
	if data["username"] != "admin" {
		t.Errorf("expected username admin, got %v", data["username"])
	}
}

func TestHandlerLogin_BadCredentials(t *testing.T) {
	h, repo := newHandlerFixture(t)
	seedAccount(t, repo, "admin", "secret123")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session",
		strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %v", errObj["code"])
	}
}

func TestHandlerLogout_ClearsCookie(t *testing.T) {
	h, _ := newHandlerFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestHandlerGetSession_ReturnsAccount(t *testing.T) {
	h, repo := newHandlerFixture(t)
	a := seedAccount(t, repo, "admin", "secret123")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", a.ID.String())

	if err := h.GetSession(c); err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data := body["data"].(map[string]interface{})
	if data["id"] != a.ID.String() {
		t.Errorf("expected id %s, got %v", a.ID, data["id"])
	}
}

func TestHandlerChangePassword(t *testing.T) {
	h, repo := newHandlerFixture(t)
	a := seedAccount(t, repo, "admin", "oldpass")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/auth/password",
		strings.NewReader(`{"currentPassword":"oldpass","newPassword":"newpass"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", a.ID.String())

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerChangePassword_ShortPassword(t *testing.T) {
	h, repo := newHandlerFixture(t)
	a := seedAccount(t, repo, "admin", "oldpass")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/auth/password",
		strings.NewReader(`{"currentPassword":"oldpass","newPassword":"123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", a.ID.String())

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
