package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/keepsake/internal/config"
	"github.com/lazypower/keepsake/internal/fault"
)

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "carrier-pigeon"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewClientAnthropicRequiresKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "anthropic"})
	if err == nil {
		t.Error("expected error for missing anthropic key")
	}
}

func TestNewClientGeminiRequiresKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "gemini"})
	if err == nil {
		t.Error("expected error for missing gemini key")
	}
}

func TestNewClientOllamaDefaults(t *testing.T) {
	c, err := NewClient(config.LLMConfig{Provider: "ollama"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	o, ok := c.(*Ollama)
	if !ok {
		t.Fatalf("client type = %T, want *Ollama", c)
	}
	if o.url != "http://localhost:11434" || o.model != "llama3.2" {
		t.Errorf("defaults = %q %q", o.url, o.model)
	}
}

func TestAnthropicRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	a := NewAnthropic("key", "model")
	a.baseURL = srv.URL

	_, err := a.Complete(context.Background(), "hello")
	var rl *fault.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitedError", err)
	}
	if rl.RetryAfter != 17 {
		t.Errorf("RetryAfter = %d, want 17", rl.RetryAfter)
	}
}

func TestAnthropicUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer srv.Close()

	a := NewAnthropic("key", "model")
	a.baseURL = srv.URL

	_, err := a.Complete(context.Background(), "hello")
	if !errors.Is(err, fault.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestAnthropicSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "key" {
			t.Errorf("x-api-key = %q", got)
		}
		w.Write([]byte(`{"content":[{"text":"hi there"}],"usage":{"input_tokens":5,"output_tokens":3}}`))
	}))
	defer srv.Close()

	a := NewAnthropic("key", "model")
	a.baseURL = srv.URL

	resp, err := a.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hi there" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 8 {
		t.Errorf("TokensUsed = %d, want 8", resp.TokensUsed)
	}
}

func TestRetryAfterSecondsFallback(t *testing.T) {
	h := http.Header{}
	if got := retryAfterSeconds(h, 30); got != 30 {
		t.Errorf("absent header: %d, want 30", got)
	}
	h.Set("Retry-After", "not-a-number")
	if got := retryAfterSeconds(h, 30); got != 30 {
		t.Errorf("malformed header: %d, want 30", got)
	}
	h.Set("Retry-After", "9")
	if got := retryAfterSeconds(h, 30); got != 9 {
		t.Errorf("valid header: %d, want 9", got)
	}
}

func TestMockClientRecordsPrompts(t *testing.T) {
	m := &MockClient{Response: &Response{Content: "ok"}}

	prompt := ExtractionPrompt("move to lisbon")
	if _, err := m.Complete(context.Background(), prompt); err != nil {
		t.Fatal(err)
	}

	if len(m.Calls) != 1 {
		t.Fatalf("Calls = %d, want 1", len(m.Calls))
	}
	if !strings.Contains(m.Calls[0], "move to lisbon") {
		t.Error("prompt missing decision text")
	}
}
