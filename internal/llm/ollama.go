package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"argus/internal/logging"
)

// DefaultOllamaBaseURL is the local inference daemon.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient is the local-daemon transport. No auth, no retry: a local
// daemon that refuses once will refuse again.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// OllamaOption configures the client during construction.
type OllamaOption func(*OllamaClient)

// WithOllamaBaseURL points the client at a non-default daemon address.
func WithOllamaBaseURL(u string) OllamaOption {
	return func(o *OllamaClient) { o.baseURL = strings.TrimSuffix(u, "/") }
}

// WithOllamaHTTPClient overrides the default HTTP client.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(o *OllamaClient) { o.httpClient = c }
}

// WithOllamaLogger configures structured logging.
func WithOllamaLogger(l *slog.Logger) OllamaOption {
	return func(o *OllamaClient) { o.logger = l }
}

// NewOllamaClient creates the local transport for one model.
func NewOllamaClient(model string, opts ...OllamaOption) *OllamaClient {
	if model == "" {
		model = "tinydolphin"
	}
	o := &OllamaClient{
		baseURL:    DefaultOllamaBaseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Generate sends the prompt to the daemon and returns the reply text.
func (o *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:    o.model,
		Messages: req.messages(),
		Stream:   false,
		Options:  ollamaOptions{Temperature: req.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	o.logger.DebugContext(ctx, "local chat request", "model", o.model, "prompt_len", len(req.Prompt))

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	if or.Message.Content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrMalformed)
	}
	return or.Message.Content, nil
}
