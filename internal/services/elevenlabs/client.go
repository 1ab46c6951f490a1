// Package elevenlabs is a streaming client for the ElevenLabs text-to-speech
// API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crosstalk/internal/services"
	"crosstalk/internal/services/httpretry"
)

const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultOutputFormat = "mp3_44100_128"
	defaultHTTPTimeout  = 120 * time.Second
)

// Synthesizer abstracts the streaming TTS call so callers can be tested with
// a fake.
type Synthesizer interface {
	SynthesizeStream(ctx context.Context, voiceID string, req SynthesizeRequest) (io.ReadCloser, error)
}

// VoiceSettings mirrors the voice_settings request block.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

// SynthesizeRequest is one line of text to speak.
type SynthesizeRequest struct {
	Text          string
	ModelID       string
	OutputFormat  string
	VoiceSettings *VoiceSettings
}

// Config captures connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client implements Synthesizer over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy used while opening a stream.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient constructs a client. The HTTP timeout covers the whole response
// including the streamed body.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	return client
}

type requestBody struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`
}

// SynthesizeStream opens a streaming synthesis request and returns the audio
// body. Rate limits and server errors are retried before the stream opens;
// once a body is returned the caller owns it and must close it.
func (c *Client) SynthesizeStream(ctx context.Context, voiceID string, req SynthesizeRequest) (io.ReadCloser, error) {
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "tts", "voice id required", nil)
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "tts", "api key required (set speech.api_key or ELEVENLABS_API_KEY)", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("tts: text required")
	}

	format := strings.TrimSpace(req.OutputFormat)
	if format == "" {
		format = DefaultOutputFormat
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", voiceID, "stream")
	if err != nil {
		return nil, fmt.Errorf("tts: build url: %w", err)
	}
	endpoint += "?" + url.Values{"output_format": {format}}.Encode()

	encoded, err := json.Marshal(requestBody{Text: req.Text, ModelID: req.ModelID, VoiceSettings: req.VoiceSettings})
	if err != nil {
		return nil, fmt.Errorf("tts: encode body: %w", err)
	}

	var body io.ReadCloser
	err = httpretry.Do(ctx, c.retry, "tts", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
		if err != nil {
			return fmt.Errorf("tts: new request: %w", err)
		}
		httpReq.Header.Set("xi-api-key", c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "audio/*")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("tts: http error: %w", err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			return httpretry.NewStatusError("tts", resp, data)
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synthesis", "tts", "voice "+voiceID, err)
	}
	return body, nil
}
