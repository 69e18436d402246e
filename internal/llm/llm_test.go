package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"argus/internal/pipeline"
)

func fastRetry() RetryPolicy {
	p := DefaultRetryPolicy()
	p.Backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return p
}

func chatOK(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(body)
}

func TestMistralGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Write([]byte(chatOK("a brief")))
	}))
	defer srv.Close()

	c, err := NewMistralClient("test-key", "m", WithMistralBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewMistralClient: %v", err)
	}
	got, err := c.Generate(context.Background(), Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "a brief" {
		t.Errorf("Generate = %q, want %q", got, "a brief")
	}
}

func TestMistralRetriesCapacityErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chatOK("eventually")))
	}))
	defer srv.Close()

	c, _ := NewMistralClient("k", "m", WithMistralBaseURL(srv.URL), WithMistralRetry(fastRetry()))
	got, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "eventually" {
		t.Errorf("Generate = %q", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestMistralGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewMistralClient("k", "m", WithMistralBaseURL(srv.URL), WithMistralRetry(fastRetry()))
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrCapacity) {
		t.Errorf("err = %v, want ErrCapacity", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestMistralAuthErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := NewMistralClient("bad", "m", WithMistralBaseURL(srv.URL), WithMistralRetry(fastRetry()))
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	if !errors.Is(err, pipeline.ErrProvider) {
		t.Errorf("err = %v, must wrap ErrProvider", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, auth errors must not be retried", calls.Load())
	}
}

func TestMistralMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, _ := NewMistralClient("k", "m", WithMistralBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestMistralRequiresAPIKey(t *testing.T) {
	if _, err := NewMistralClient("", "m"); err == nil {
		t.Error("want error for empty api key")
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream must be false")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "local brief"},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient("tinydolphin", WithOllamaBaseURL(srv.URL))
	got, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "local brief" {
		t.Errorf("Generate = %q", got)
	}
}

func TestOllamaEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message":{"content":""}}`))
	}))
	defer srv.Close()

	c := NewOllamaClient("m", WithOllamaBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestRetryPolicyStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Hour},
		Retryable:   func(error) bool { return true },
	}
	calls := 0
	err := p.Do(ctx, func() error { calls++; return errors.New("always") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRequestMessagesAppendsPrior(t *testing.T) {
	r := Request{
		Prompt: "now",
		Prior:  []Message{{Role: "user", Content: "before"}, {Role: "assistant", Content: "reply"}},
	}
	msgs := r.messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[2].Role != "user" || msgs[2].Content != "now" {
		t.Errorf("final message = %+v", msgs[2])
	}
}
