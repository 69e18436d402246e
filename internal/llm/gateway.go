// Package llm is the gateway to text generation. Two transports are
// supported uniformly: a remote chat-completions API (bearer token, JSON)
// and a local inference daemon. Callers see one contract; the provider
// selector picks the transport.
package llm

import (
	"context"
	"fmt"

	"argus/internal/pipeline"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one generation call.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
	// Prior carries earlier conversation turns; the prompt is appended
	// as the final user message.
	Prior []Message
}

// Gateway generates a text completion for a prompt. Implementations own
// their retry behavior; the core never retries a provider error.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Provider error variants. All wrap pipeline.ErrProvider so callers can
// classify without caring which transport produced them.
var (
	// ErrAuth is an authentication failure (bad or missing token).
	ErrAuth = fmt.Errorf("llm: authentication failed: %w", pipeline.ErrProvider)

	// ErrMalformed means the response arrived but is missing the expected
	// completion field.
	ErrMalformed = fmt.Errorf("llm: malformed response: %w", pipeline.ErrProvider)

	// ErrCapacity is the rate-limit/server-capacity variant. It is the
	// only retryable provider error.
	ErrCapacity = fmt.Errorf("llm: capacity exceeded: %w", pipeline.ErrProvider)

	// ErrTransport is any other network-level failure.
	ErrTransport = fmt.Errorf("llm: transport failure: %w", pipeline.ErrProvider)
)

func (r Request) messages() []Message {
	msgs := make([]Message, 0, len(r.Prior)+1)
	msgs = append(msgs, r.Prior...)
	msgs = append(msgs, Message{Role: "user", Content: r.Prompt})
	return msgs
}
