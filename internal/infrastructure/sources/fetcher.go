package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const maxBodyBytes = 8 << 20

// FetcherConfig bounds every outbound request.
type FetcherConfig struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	UserAgent  string
	Client     *http.Client
}

// Fetcher performs GET requests with a per-attempt timeout and a retry policy
// for network errors, 5xx and 429 responses.
type Fetcher struct {
	client    *http.Client
	executor  failsafe.Executor[*http.Response]
	timeout   time.Duration
	userAgent string
}

// NewFetcher applies defaults: 10s timeout, no retries.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	//nolint:bodyclose // bodies are drained inside the attempt
	policy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(shouldRetry).
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		Build()

	return &Fetcher{
		client:    cfg.Client,
		executor:  failsafe.With(policy),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
}

// Get returns the response body of a successful (200) request.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	//nolint:bodyclose // attempt replaces the body with an in-memory copy
	resp, err := f.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		return f.attempt(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}
	return body, nil
}

// GetJSON decodes a successful response into v.
func (f *Fetcher) GetJSON(ctx context.Context, url string, v any) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// attempt runs one request under its own timeout and buffers the body so the
// timeout can be released before the caller reads it.
func (f *Fetcher) attempt(ctx context.Context, url string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
