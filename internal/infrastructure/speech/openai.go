package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smartreader/internal/config"
	"smartreader/internal/ports"
)

// OpenAI's preset voices are multilingual, so they carry no language tag and
// satisfy any requested locale.
var openAIVoices = []ports.Voice{
	{Name: "alloy"},
	{Name: "echo"},
	{Name: "fable"},
	{Name: "onyx"},
	{Name: "nova"},
	{Name: "shimmer"},
}

const defaultOpenAIVoice = "alloy"

// OpenAIClient implements ports.Synthesizer against OpenAI-compatible
// text-to-speech APIs.
type OpenAIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Synthesizer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration. No overall timeout is
// set on the HTTP client; the utterance context governs cancellation so long
// audio streams are not cut off mid-playback.
func NewOpenAIClient(cfg config.TTSConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

// Synthesize posts the text and streams the resulting audio back.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string, opts ports.SpeechOptions) (io.ReadCloser, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("tts client misconfigured")
	}

	voice := opts.Voice
	if voice == "" {
		voice = defaultOpenAIVoice
	}
	speed := opts.Rate
	if speed <= 0 {
		speed = 1.0
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"input":           text,
		"voice":           voice,
		"speed":           speed,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize request: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("tts error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return resp.Body, nil
}

// Voices lists the voices the API offers.
func (c *OpenAIClient) Voices(ctx context.Context) ([]ports.Voice, error) {
	voices := make([]ports.Voice, len(openAIVoices))
	copy(voices, openAIVoices)
	return voices, nil
}
