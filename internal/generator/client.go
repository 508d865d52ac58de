package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"genmarket-bot/internal/config"
)

const (
	imageModel  = "gpt-image-1"
	speechModel = "gpt-4o-mini-tts"
)

// Client talks to an OpenAI-compatible generation API: chat completions for
// text, image generations and speech synthesis.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	voice      string
	httpClient *http.Client
	log        *slog.Logger
}

// Result is one finished generation. Text comes back as Summary; image and
// speech come back as raw Data with its ContentType.
type Result struct {
	Summary     string
	Data        []byte
	ContentType string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	return &Client{
		apiKey:     cfg.GenerationAPIKey,
		baseURL:    cfg.GenerationBaseURL,
		textModel:  cfg.TextModel,
		voice:      cfg.SpeechVoice,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (*Result, error) {
	payload := map[string]any{
		"model": c.textModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	raw, err := c.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty completion")
	}
	return &Result{Summary: resp.Choices[0].Message.Content}, nil
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Result, error) {
	payload := map[string]any{
		"model":  imageModel,
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	}
	raw, err := c.post(ctx, "/v1/images/generations", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("no image url in response")
	}
	return &Result{Summary: resp.Data[0].URL, ContentType: "image/png"}, nil
}

func (c *Client) GenerateSpeech(ctx context.Context, text string) (*Result, error) {
	payload := map[string]any{
		"model": speechModel,
		"input": text,
		"voice": c.voice,
	}
	data, err := c.post(ctx, "/v1/audio/speech", payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty speech response")
	}
	return &Result{Data: data, ContentType: "audio/mpeg"}, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.log.Error("generation request failed", "path", path, "status", resp.StatusCode, "body", truncateBody(raw))
		return nil, fmt.Errorf("generation api: status=%d body=%s", resp.StatusCode, truncateBody(raw))
	}
	return raw, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
