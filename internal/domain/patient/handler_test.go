package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newHandlerFixture() (*echo.Echo, *mockRepo) {
	repo := newMockRepo()
	e := echo.New()
	NewHandler(NewService(repo)).RegisterRoutes(e.Group("/api"))
	return e, repo
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHandler_Create(t *testing.T) {
	e, _ := newHandlerFixture()

	rec := doJSON(e, http.MethodPost, "/api/patients",
		`{"patientCode":"P00001","name":"山田太郎","nameKana":"やまだたろう"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["patientCode"] != "P00001" || data["nameKana"] != "やまだたろう" {
		t.Fatalf("unexpected payload %v", data)
	}
}

func TestHandler_Create_MissingCode(t *testing.T) {
	e, _ := newHandlerFixture()

	rec := doJSON(e, http.MethodPost, "/api/patients", `{"name":"山田太郎","nameKana":"やまだたろう"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	errObj := decodeEnvelope(t, rec)["error"].(map[string]any)
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error code %v", errObj["code"])
	}
}

func TestHandler_List_Search(t *testing.T) {
	e, repo := newHandlerFixture()
	repo.seed("P00001", "山田太郎", "やまだたろう")
	repo.seed("P00002", "鈴木花子", "すずきはなこ")

	rec := doJSON(e, http.MethodGet, "/api/patients?search=P00002", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	list := decodeEnvelope(t, rec)["data"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected one match, got %d", len(list))
	}
}

func TestHandler_Update_Partial(t *testing.T) {
	e, repo := newHandlerFixture()
	p := repo.seed("P00001", "山田太郎", "やまだたろう")

	rec := doJSON(e, http.MethodPut, "/api/patients/"+p.ID.String(), `{"name":"山田次郎"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["name"] != "山田次郎" || data["patientCode"] != "P00001" {
		t.Fatalf("unexpected payload %v", data)
	}
}

func TestHandler_Delete_NotFound(t *testing.T) {
	e, _ := newHandlerFixture()

	rec := doJSON(e, http.MethodDelete, "/api/patients/5f8fd4a3-25bf-4b72-a4ca-1f6c2e08d3a1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Get_BadID(t *testing.T) {
	e, _ := newHandlerFixture()

	rec := doJSON(e, http.MethodGet, "/api/patients/xyz", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
