package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var _ output.BackendPort = (*Client)(nil)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// PrefetchRate is the number of prefetch requests allowed per second.
	PrefetchRate  float64
	PrefetchBurst int
	Logger        output.LoggerPort
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Timeout:       30 * time.Second,
		PrefetchRate:  2,
		PrefetchBurst: 1,
	}
}

type Client struct {
	baseURL  string
	http     *http.Client
	prefetch *rate.Limiter
	logger   output.LoggerPort
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.String(),
		"bytes", req.ContentLength,
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed", "url", req.URL.String(), "error", err)
		return resp, err
	}

	t.logger.Debug("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
		"processTime", resp.Header.Get("X-Process-Time"),
		"elapsed", time.Since(start),
	)
	return resp, nil
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PrefetchBurst <= 0 {
		cfg.PrefetchBurst = 1
	}
	limit := rate.Inf
	if cfg.PrefetchRate > 0 {
		limit = rate.Limit(cfg.PrefetchRate)
	}

	log := cfg.Logger.WithField("component", "backend")
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &loggingTransport{base: http.DefaultTransport, logger: log},
		},
		prefetch: rate.NewLimiter(limit, cfg.PrefetchBurst),
		logger:   log,
	}
}

// Process sends the page model with the user's profile and interaction
// log and returns the backend's decision.
func (c *Client) Process(ctx context.Context, req entity.ProcessRequest) (entity.Decision, error) {
	if req.Logs == nil {
		req.Logs = []string{}
	}

	var decision entity.Decision
	if err := c.post(ctx, "/process", req, &decision); err != nil {
		return entity.Decision{}, err
	}
	if decision.Action == "" {
		decision.Action = entity.ActionNone
	}

	c.logger.Info("Backend decision",
		"url", req.DOMData.URL,
		"action", decision.Action,
		"tool", decision.Tool,
	)
	return decision, nil
}

// Prefetch asks the backend to prepare an explanation of url in the background.
func (c *Client) Prefetch(ctx context.Context, url string) error {
	if !c.prefetch.Allow() {
		return entity.ErrRateLimited
	}
	return c.post(ctx, "/prefetch", map[string]string{"url": url}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend %s: status %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("backend %s: status %d", path, resp.StatusCode)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
