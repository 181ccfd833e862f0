package voicevox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postSynthesize(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/voice/synthesize", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Synthesize(c); err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	return rec
}

func TestSynthesizeHandler_ReturnsAudio(t *testing.T) {
	wav := []byte("RIFF....WAVE")
	srv, _ := newEngineStub(t, wav)
	defer srv.Close()

	h := NewHandler(NewClient(srv.URL, zerolog.Nop()))
	rec := postSynthesize(t, h, `{"text":"ようこそ。やまだたろうさん"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "audio/wav" {
		t.Errorf("expected audio/wav, got %s", ct)
	}
	if rec.Body.String() != string(wav) {
		t.Error("expected wav bytes in response body")
	}
}

func TestSynthesizeHandler_EmptyText(t *testing.T) {
	srv, _ := newEngineStub(t, nil)
	defer srv.Close()

	h := NewHandler(NewClient(srv.URL, zerolog.Nop()))
	rec := postSynthesize(t, h, `{"text":"  "}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSynthesizeHandler_TextTooLong(t *testing.T) {
	srv, _ := newEngineStub(t, nil)
	defer srv.Close()

	h := NewHandler(NewClient(srv.URL, zerolog.Nop()))
	long := strings.Repeat("あ", maxTextLength+1)
	rec := postSynthesize(t, h, `{"text":"`+long+`"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "TEXT_TOO_LONG" {
		t.Errorf("expected TEXT_TOO_LONG, got %v", errObj["code"])
	}
}

func TestSynthesizeHandler_TextAtLimit(t *testing.T) {
	wav := []byte("RIFF")
	srv, _ := newEngineStub(t, wav)
	defer srv.Close()

	h := NewHandler(NewClient(srv.URL, zerolog.Nop()))
	// Exactly 1000 characters passes; the limit counts runes, not bytes.
	text := strings.Repeat("あ", maxTextLength)
	rec := postSynthesize(t, h, `{"text":"`+text+`"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 at the limit, got %d", rec.Code)
	}
}

func TestSynthesizeHandler_EngineDown(t *testing.T) {
	srv, _ := newEngineStub(t, nil)
	srv.Close() // engine gone

	h := NewHandler(NewClient(srv.URL, zerolog.Nop()))
	rec := postSynthesize(t, h, `{"text":"ようこそ"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "VOICEVOX_NOT_AVAILABLE" {
		t.Errorf("expected VOICEVOX_NOT_AVAILABLE, got %v", errObj["code"])
	}
}

func TestProbeHandler(t *testing.T) {
	srv, _ := newEngineStub(t, nil)
	defer srv.Close()

	h := NewHandler(NewClient(srv.URL, zerolog.Nop()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/voice/synthesize", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Probe(c); err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data := body["data"].(map[string]interface{})
	if data["available"] != true {
		t.Errorf("expected available true, got %v", data["available"])
	}
}
