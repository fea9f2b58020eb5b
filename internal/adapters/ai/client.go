package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/finsights/internal/adapters/config"
	"github.com/selivandex/finsights/pkg/logger"
)

// Generator is the single call the rest of the system makes against
// the AI provider
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client talks to a chat-completions style provider API
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxRetries  int
	client      *http.Client
}

// NewClient creates new generation client
func NewClient(cfg *config.AIConfig) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Complete sends the prompt and returns the raw completion text.
// Network-level errors get a bounded number of immediate retries;
// everything else is classified once and returned.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", transientErr(0, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			logger.Debug("retrying provider call",
				zap.Int("attempt", attempt),
			)
		}

		content, retryable, err := c.doRequest(ctx, prompt)
		if err == nil {
			return content, nil
		}

		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", lastErr
}

// doRequest performs one provider call. The second return value says
// whether the failure is a network-level error worth retrying now.
func (c *Client) doRequest(ctx context.Context, prompt string) (string, bool, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, permanentErr(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, permanentErr(0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if retryableNetErr(ctx, err) {
			return "", true, transientErr(0, err)
		}
		return "", false, transientErr(0, err)
	}
	defer resp.Body.Close()

	latency := time.Since(startTime)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		kind := classifyStatus(resp.StatusCode)
		err := fmt.Errorf("API error: %s", string(body))
		if kind == FailureTransient {
			return "", false, transientErr(resp.StatusCode, err)
		}
		return "", false, permanentErr(resp.StatusCode, err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, permanentErr(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", false, permanentErr(resp.StatusCode, fmt.Errorf("empty completion"))
	}

	logger.Debug("provider response",
		zap.Duration("latency", latency),
		zap.Int("content_len", len(result.Choices[0].Message.Content)),
	)

	return result.Choices[0].Message.Content, false, nil
}
