// Package voicevox wraps the VOICEVOX speech synthesis engine HTTP API:
// an availability probe plus the audio_query/synthesis pair that turns
// guidance text into WAV audio.
package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSpeaker is the VOICEVOX speaker used when the caller does not pick
// one.
const DefaultSpeaker = 3

// Sentinel errors the handler maps onto the error taxonomy.
var (
	ErrUnavailable = errors.New("voicevox engine unavailable")
	ErrSynthesis   = errors.New("voicevox synthesis failed")
)

// Options tune the generated audio. Zero values fall back to the engine
// defaults applied by ApplyDefaults.
type Options struct {
	Speaker     int     `json:"speaker"`
	SpeedScale  float64 `json:"speedScale"`
	VolumeScale float64 `json:"volumeScale"`
	PitchScale  float64 `json:"pitchScale"`
}

// ApplyDefaults fills unset fields with the engine defaults.
func (o *Options) ApplyDefaults() {
	if o.Speaker == 0 {
		o.Speaker = DefaultSpeaker
	}
	if o.SpeedScale == 0 {
		o.SpeedScale = 1.0
	}
	if o.VolumeScale == 0 {
		o.VolumeScale = 1.0
	}
	// PitchScale 0 is the engine default, nothing to fill.
}

// Client talks to a VOICEVOX engine instance.
type Client struct {
	baseURL     string
	probeClient *http.Client
	synthClient *http.Client
	logger      zerolog.Logger
}

// NewClient creates a Client for the engine at baseURL. The availability
// probe uses a short timeout so kiosk requests fail fast when the engine is
// down; synthesis gets a longer one because audio generation is slow.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		probeClient: &http.Client{Timeout: 3 * time.Second},
		synthClient: &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Available probes GET /version and reports whether the engine responds.
func (c *Client) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: version returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Synthesize turns text into WAV audio: POST /audio_query builds the query,
// the options are applied to it, then POST /synthesis renders the audio.
func (c *Client) Synthesize(ctx context.Context, text string, opts Options) ([]byte, error) {
	opts.ApplyDefaults()

	query, err := c.audioQuery(ctx, text, opts.Speaker)
	if err != nil {
		return nil, err
	}

	query["speedScale"] = opts.SpeedScale
	query["volumeScale"] = opts.VolumeScale
	query["pitchScale"] = opts.PitchScale

	return c.synthesis(ctx, query, opts.Speaker)
}

func (c *Client) audioQuery(ctx context.Context, text string, speaker int) (map[string]interface{}, error) {
	q := url.Values{}
	q.Set("text", text)
	q.Set("speaker", strconv.Itoa(speaker))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/audio_query?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	resp, err := c.synthClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: audio_query: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("voicevox audio_query failed")
		return nil, fmt.Errorf("%w: audio_query returned %d", ErrSynthesis, resp.StatusCode)
	}

	var query map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&query); err != nil {
		return nil, fmt.Errorf("%w: decode audio_query: %v", ErrSynthesis, err)
	}
	return query, nil
}

func (c *Client) synthesis(ctx context.Context, query map[string]interface{}, speaker int) ([]byte, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSynthesis, err)
	}

	q := url.Values{}
	q.Set("speaker", strconv.Itoa(speaker))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/synthesis?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.synthClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: synthesis: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("voicevox synthesis failed")
		return nil, fmt.Errorf("%w: synthesis returned %d", ErrSynthesis, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %v", ErrSynthesis, err)
	}
	return audio, nil
}
