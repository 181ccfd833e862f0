package voicevox

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/mediq/mediq/internal/platform/api"
)

// maxTextLength is the longest text the synthesize endpoint accepts, in
// characters.
const maxTextLength = 1000

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes mounts the voice endpoints. Both are public: the kiosk has
// no session.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/voice/synthesize", h.Synthesize)
	g.GET("/voice/synthesize", h.Probe)
}

type synthesizeRequest struct {
	Text        string  `json:"text"`
	Speaker     int     `json:"speaker"`
	SpeedScale  float64 `json:"speedScale"`
	VolumeScale float64 `json:"volumeScale"`
	PitchScale  float64 `json:"pitchScale"`
}

// Synthesize renders the posted text as WAV audio.
func (h *Handler) Synthesize(c echo.Context) error {
	var req synthesizeRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return api.Fail(c, api.Validation("テキストを入力してください"))
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return api.Fail(c, api.TextTooLong("テキストは1000文字以内で入力してください"))
	}

	ctx := c.Request().Context()
	if err := h.client.Available(ctx); err != nil {
		return api.Fail(c, api.VoicevoxUnavailable("音声合成エンジンに接続できません"))
	}

	audio, err := h.client.Synthesize(ctx, text, Options{
		Speaker:     req.Speaker,
		SpeedScale:  req.SpeedScale,
		VolumeScale: req.VolumeScale,
		PitchScale:  req.PitchScale,
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return api.Fail(c, api.VoicevoxUnavailable("音声合成エンジンに接続できません"))
		}
		return api.Fail(c, api.SynthesisFailed("音声の生成に失敗しました", err))
	}

	return c.Blob(http.StatusOK, "audio/wav", audio)
}

// Probe reports whether the speech engine is reachable.
func (h *Handler) Probe(c echo.Context) error {
	available := h.client.Available(c.Request().Context()) == nil
	return api.OK(c, map[string]bool{"available": available})
}
