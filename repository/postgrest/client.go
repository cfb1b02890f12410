// Package postgrest implements the repository interfaces on top of a Supabase
// PostgREST endpoint (/rest/v1) authenticated with the service key.
package postgrest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"PracticeLog/logger"
)

// Config 连接 PostgREST 所需的配置
type Config struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
	// HTTPClient overrides the default client (tests use httptest).
	HTTPClient *http.Client
}

// Client is a thin PostgREST client. It is safe for concurrent use.
type Client struct {
	restURL string
	key     string
	http    *http.Client
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgrest: URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("postgrest: service key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		restURL: strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		key:     cfg.ServiceKey,
		http:    hc,
	}, nil
}

// From starts a query on table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  c,
		table:   table,
		method:  http.MethodGet,
		columns: "*",
		headers: make(map[string]string),
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("[PostgREST] request",
		logger.String("method", method),
		logger.String("path", req.URL.Path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))
	return data, resp.StatusCode, nil
}
