// Package api is the HTTP client for the CreditDesk REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/josephgoksu/CreditDesk/internal/logger"
	"github.com/josephgoksu/CreditDesk/internal/utils"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/tidwall/gjson"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend root (e.g., "http://localhost:8000"). The
	// client appends /api itself.
	BaseURL string

	// Token is the bearer token from login. Empty for unauthenticated calls.
	Token string

	// Timeout for HTTP requests (default: 30s)
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	newID   func() string
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", cfg.BaseURL, err)
	}
	base = strings.TrimSuffix(base, "/api")

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base + "/api",
		token:   cfg.Token,
		http:    hc,
		newID:   func() string { return uuid.New().String() },
	}, nil
}

// WithToken returns a copy of c authenticating with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the API root, including the /api suffix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON sends body (if non-nil) as JSON and decodes the response into out
// (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, reader, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := c.newID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger.SetLastRequest(method, path, requestID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if echoed := resp.Header.Get(RequestIDHeader); echoed != "" {
		requestID = echoed
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return types.NewAPIError(resp.StatusCode, errorMessage(respBody), requestID)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts a readable message from an error body. FastAPI wraps
// errors as {"detail": "..."} or, for validation failures, as a list of
// {"loc": [...], "msg": "..."} entries.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return utils.Truncate(utils.NormalizeSpace(string(body)), 300)
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		var parts []string
		detail.ForEach(func(_, item gjson.Result) bool {
			msg := item.Get("msg").String()
			if msg == "" {
				msg = item.Raw
			}
			var loc []string
			item.Get("loc").ForEach(func(_, p gjson.Result) bool {
				if p.String() != "body" {
					loc = append(loc, p.String())
				}
				return true
			})
			if len(loc) > 0 {
				msg = strings.Join(loc, ".") + ": " + msg
			}
			parts = append(parts, msg)
			return true
		})
		return strings.Join(parts, "; ")
	case detail.Exists():
		return detail.Raw
	}
	if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
		return msg.String()
	}
	return utils.Truncate(string(body), 300)
}

func requestPath(prefix, id string, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
