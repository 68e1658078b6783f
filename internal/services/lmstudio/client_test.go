package lmstudio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prism/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) (*Client, *int) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sleeps := 0
	client := NewClient(Config{
		BaseURL:    server.URL,
		Model:      "test-model",
		Retries:    retries,
		RetryDelay: time.Second,
	}, WithSleeper(func(time.Duration) { sleeps++ }))
	return client, &sleeps
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestChatReturnsContent(t *testing.T) {
	var gotBody chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, `{"mood":"dark"}`)
	}, 3)

	content, err := client.Chat(context.Background(), "pick a scene")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if content != `{"mood":"dark"}` {
		t.Errorf("content = %q", content)
	}
	if gotBody.Stream {
		t.Error("stream should be false")
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want single user message", gotBody.Messages)
	}
}

func TestChatRetryBudget(t *testing.T) {
	const retries = 3
	attempts := 0
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}, retries)

	_, err := client.Chat(context.Background(), "prompt")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if attempts != retries+1 {
		t.Errorf("attempts = %d, want %d", attempts, retries+1)
	}
	if *sleeps != retries {
		t.Errorf("sleeps = %d, want %d", *sleeps, retries)
	}
}

func TestChatReadTimeoutRetried(t *testing.T) {
	const retries = 2
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	sleeps := 0
	client := NewClient(Config{
		BaseURL:     server.URL,
		Model:       "test-model",
		ReadTimeout: 50 * time.Millisecond,
		Retries:     retries,
		RetryDelay:  time.Second,
	}, WithSleeper(func(time.Duration) { sleeps++ }))

	_, err := client.Chat(context.Background(), "prompt")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if attempts != retries+1 {
		t.Errorf("attempts = %d, want %d: per-attempt read timeouts spend the retry budget", attempts, retries+1)
	}
	if sleeps != retries {
		t.Errorf("sleeps = %d, want %d", sleeps, retries)
	}
}

func TestChatCallerCancellationNotRetried(t *testing.T) {
	attempts := 0
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		time.Sleep(300 * time.Millisecond)
	}, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Chat(ctx, "prompt"); err == nil {
		t.Fatal("expected error when caller context expires")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 once the caller's context is done", attempts)
	}
	if *sleeps != 0 {
		t.Errorf("slept %d times after caller cancellation", *sleeps)
	}
}

func TestChatRefusedConnectionNotRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close() // now refuses connections

	sleeps := 0
	client := NewClient(Config{
		BaseURL:    url,
		Model:      "test-model",
		Retries:    3,
		RetryDelay: time.Second,
	}, WithSleeper(func(time.Duration) { sleeps++ }))

	_, err := client.Chat(context.Background(), "prompt")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if sleeps != 0 {
		t.Errorf("refused connection should not be retried, slept %d times", sleeps)
	}
}

func TestChatClientErrorNotRetried(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}, 3)

	if _, err := client.Chat(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 for non-retryable status", attempts)
	}
}

func TestChatEmptyContentFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "  ")
	}, 0)

	if _, err := client.Chat(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestProbe(t *testing.T) {
	status := http.StatusOK
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(status)
	}, 0)

	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	status = http.StatusServiceUnavailable
	if err := client.Probe(context.Background()); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}
