package lmstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"prism/internal/services"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultReadTimeout    = 10 * time.Minute
	defaultProbeTimeout   = 5 * time.Second
	defaultRetries        = 3
	defaultRetryDelay     = 5 * time.Second
)

// Config captures the runtime settings required to talk to the local
// inference endpoint (LM Studio or any OpenAI-compatible server).
type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ProbeTimeout   time.Duration
	Retries        int
	RetryDelay     time.Duration
	Temperature    float64
	MaxTokens      int
}

// Client wraps the chat-completions and model-listing endpoints.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	probeClient *http.Client
	sleeper     func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client used for chat requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithProbeClient overrides the HTTP client used for availability probes.
func WithProbeClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.probeClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:1234"
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{DialContext: dialer.DialContext}

	client := &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.ReadTimeout, Transport: transport},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout, Transport: transport},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Probe checks endpoint availability via the model-listing endpoint.
// Success is strictly HTTP 200.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "lmstudio", "probe", "build request", err)
	}
	c.authorize(req)
	resp, err := c.probeClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "lmstudio", "probe", "endpoint unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrUnavailable, "lmstudio", "probe",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("chat request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Chat sends a single-user-message completion request and returns the model's
// raw answer text. The call blocks for up to the read timeout per attempt and
// retries transient transport failures up to the configured budget; a refused
// connection is treated as immediately fatal since the endpoint is plainly
// offline.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", services.Wrap(services.ErrConfiguration, "lmstudio", "chat", "prompt required", nil)
	}

	payload := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      false,
	}

	attempts := c.cfg.Retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.sendChatOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(ctx, err) || attempt == attempts {
			break
		}
		if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
			return "", services.Wrap(services.ErrUnavailable, "lmstudio", "chat", "canceled during retry wait", err)
		}
	}
	return "", services.Wrap(services.ErrUnavailable, "lmstudio", "chat",
		fmt.Sprintf("no response after %d attempts", attempts), lastErr)
}

func (c *Client) sendChatOnce(ctx context.Context, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chat request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("chat request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("chat request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("chat request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("chat request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat request: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat request: empty content")
	}
	return content, nil
}

func (c *Client) authorize(req *http.Request) {
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

func retryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	// Context errors end the retry loop only when the caller's context is
	// done. A per-attempt read timeout from http.Client.Timeout also matches
	// context.DeadlineExceeded, so classify it by the net.Error timeout flag
	// first; the next attempt gets a fresh per-attempt deadline.
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}

	if errors.As(err, &netErr) {
		return true
	}

	// Decode and empty-payload failures are not transport problems.
	return false
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
