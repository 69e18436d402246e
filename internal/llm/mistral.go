package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"argus/internal/logging"
)

// DefaultMistralBaseURL is the remote chat-completions endpoint.
const DefaultMistralBaseURL = "https://api.mistral.ai/v1/chat/completions"

// MistralClient is the remote chat-completions transport. Capacity errors
// (429/5xx) are retried under the configured policy before surfacing.
type MistralClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

// MistralOption configures the client during construction.
type MistralOption func(*MistralClient)

// WithMistralHTTPClient overrides the default HTTP client.
func WithMistralHTTPClient(c *http.Client) MistralOption {
	return func(m *MistralClient) { m.httpClient = c }
}

// WithMistralBaseURL points the client at a different endpoint (tests).
func WithMistralBaseURL(u string) MistralOption {
	return func(m *MistralClient) { m.baseURL = strings.TrimSuffix(u, "/") }
}

// WithMistralRetry overrides the retry policy.
func WithMistralRetry(p RetryPolicy) MistralOption {
	return func(m *MistralClient) { m.retry = p }
}

// WithMistralLogger configures structured logging.
func WithMistralLogger(l *slog.Logger) MistralOption {
	return func(m *MistralClient) { m.logger = l }
}

// WithMistralTimeout sets the per-request timeout.
func WithMistralTimeout(d time.Duration) MistralOption {
	return func(m *MistralClient) { m.httpClient.Timeout = d }
}

// NewMistralClient creates the remote transport for one model.
func NewMistralClient(apiKey, model string, opts ...MistralOption) (*MistralClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: mistral api key is required")
	}
	if model == "" {
		model = "mistral-small-latest"
	}
	m := &MistralClient{
		baseURL:    DefaultMistralBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      DefaultRetryPolicy(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt and returns the completion text.
func (m *MistralClient) Generate(ctx context.Context, req Request) (string, error) {
	var out string
	err := m.retry.Do(ctx, func() error {
		var attemptErr error
		out, attemptErr = m.complete(ctx, req)
		if attemptErr != nil {
			m.logger.WarnContext(ctx, "generation attempt failed", "model", m.model, "err", attemptErr)
		}
		return attemptErr
	})
	return out, err
}

func (m *MistralClient) complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       m.model,
		Messages:    req.messages(),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	m.logger.DebugContext(ctx, "chat completion request", "model", m.model, "prompt_len", len(req.Prompt))

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrCapacity, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(string(respBody), 200))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformed)
	}
	return cr.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
