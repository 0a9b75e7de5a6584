// Package insights generates natural-language answers about the
// catalog through an OpenAI-compatible chat completions API.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoAPIKey is returned when the client is asked to answer a
// question without an API key configured.
var ErrNoAPIKey = errors.New("insights: no API key configured")

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 400
)

// Config configures the insights client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client calls a chat completions endpoint. Requests pass through a
// rate limiter so bursts of API questions cannot exhaust the account
// quota.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a Client. The limiter allows one request per
// second with a small burst.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Answer sends the question, with the given catalog context prepended
// as a user message, and returns the model's reply.
func (c *Client) Answer(ctx context.Context, contextBlock, question string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("insights: rate limiter: %w", err)
	}

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
	}
	if contextBlock != "" {
		messages = append(messages, chatMessage{Role: "user", Content: contextBlock})
	}
	messages = append(messages, chatMessage{Role: "user", Content: question})

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("insights: encode request: %w", err)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("insights: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("insights: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("insights: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("insights: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		c.logger.Warn("insights API error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return "", fmt.Errorf("insights: API returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("insights: empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}
