package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/TobiSchelling/TrendIntel/internal/config"
)

func TestClaudeProviderGenerate(t *testing.T) {
	var gotKey, gotVersion string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"category\":\"midi dress\"}"}]}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider("claude-test", "secret")
	p.BaseURL = srv.URL

	out, err := p.Generate(context.Background(), "hello", 256)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"category":"midi dress"}` {
		t.Errorf("unexpected output %q", out)
	}
	if gotKey != "secret" || gotVersion != anthropicVersion {
		t.Errorf("headers not set: key=%q version=%q", gotKey, gotVersion)
	}
	if gotBody["model"] != "claude-test" || gotBody["max_tokens"] != float64(256) {
		t.Errorf("unexpected request body %v", gotBody)
	}
}

func TestClaudeProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewClaudeProvider("m", "k")
	p.BaseURL = srv.URL
	if _, err := p.Generate(context.Background(), "x", 10); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestClaudeProviderNoKey(t *testing.T) {
	p := NewClaudeProvider("m", "")
	if p.IsConfigured() {
		t.Error("expected unconfigured without key")
	}
	if _, err := p.Generate(context.Background(), "x", 10); err == nil {
		t.Error("expected error without key")
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt", "k")
	p.BaseURL = srv.URL
	out, err := p.Generate(context.Background(), "x", 10)
	if err != nil || out != "ok" {
		t.Fatalf("Generate = %q, %v", out, err)
	}
}

func TestCreateProviderNoneConfigured(t *testing.T) {
	cfg := config.AI{Provider: "claude", Model: "m", OpenAIModel: "gpt"}
	if p := CreateProvider(cfg, "", ""); p != nil {
		t.Errorf("expected nil provider, got %T", p)
	}
}

func TestCreateProviderClaude(t *testing.T) {
	cfg := config.AI{Provider: "claude", Model: "m"}
	p := CreateProvider(cfg, "key", "")
	if _, ok := p.(*ClaudeProvider); !ok {
		t.Fatalf("expected ClaudeProvider, got %T", p)
	}
}

func TestCreateProviderOpenAIFallback(t *testing.T) {
	cfg := config.AI{Provider: "claude", Model: "m", OpenAIModel: "gpt"}
	p := CreateProvider(cfg, "", "okey")
	if ProviderName(p) != "openai" {
		t.Fatalf("expected openai fallback, got %T", p)
	}
}

type failingProvider struct{ calls int }

func (f *failingProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	return "", errors.New("upstream down")
}

func (f *failingProvider) IsConfigured() bool { return true }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingProvider{}
	b := NewBreakerProvider(inner, 2, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := b.Generate(context.Background(), "x", 10); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	_, err := b.Generate(context.Background(), "x", 10)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected inner provider called twice, got %d", inner.calls)
	}
}

type ctxProvider struct{ calls int }

func (c *ctxProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	c.calls++
	<-ctx.Done()
	return "", fmt.Errorf("claude API error: %w", ctx.Err())
}

func (c *ctxProvider) IsConfigured() bool { return true }

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	inner := &ctxProvider{}
	b := NewBreakerProvider(inner, 2, time.Minute)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel2()

	for _, ctx := range []context.Context{canceled, canceled, expired, expired} {
		if _, err := b.Generate(ctx, "x", 10); err == nil {
			t.Fatal("expected the context error to be returned")
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %s", b.State())
	}
	if inner.calls != 4 {
		t.Errorf("expected 4 calls to reach the provider, got %d", inner.calls)
	}
}
