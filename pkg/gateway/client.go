// Package gateway is the HTTP client shared by every remote call. It attaches
// the bearer token, bounds each call with a timeout and turns failures into
// domain error kinds.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
)

// Default timeouts per remote class.
const (
	APITimeout   = 10 * time.Second
	ChapaTimeout = 30 * time.Second
)

// TokenSource yields the bearer token and is told when it was rejected.
type TokenSource interface {
	Token() (string, bool)
	Expire()
}

// StaticToken is a TokenSource for a fixed secret. Expire is a no-op.
type StaticToken string

func (s StaticToken) Token() (string, bool) { return string(s), s != "" }
func (StaticToken) Expire()                 {}

// Client talks JSON to one base URL.
//
// A 401 answer to a request that carried a token expires the token source, which notifies its listeners; for a
// session this is the "send the user back to the login page" side effect.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	headers map[string]string
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// New builds a client. A nil tokens sends no Authorization header.
func New(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		headers: map[string]string{},
		logger:  logger.With("context", "gateway", "base_url", baseURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get is Do with GET and no body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is Do with POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends body as JSON and decodes a 2xx response into out. out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	if c.baseURL == "" {
		return domain.NewNetworkError(errors.New("base url is not configured"))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	bearer := false
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
			bearer = true
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Remote call failed", "method", method, "path", path, "error", err)
		return domain.NewNetworkError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Info("Remote rejected token", "method", method, "path", path)
		// only a token we sent can have expired
		if bearer {
			c.tokens.Expire()
		}
		return domain.NewAuthExpiredError(extractMessage(payload))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := extractMessage(payload)
		c.logger.Debug("Remote returned failure", "method", method, "path", path, "status", resp.StatusCode, "message", msg)
		return domain.NewGatewayError(resp.StatusCode, msg)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return domain.NewGatewayError(resp.StatusCode, "malformed response from remote")
	}
	return nil
}

// extractMessage picks the first of message, error.message, data.message.
func extractMessage(payload []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if s := asString(body.Message); s != "" {
		return s
	}
	if s := nestedMessage(body.Error); s != "" {
		return s
	}
	return nestedMessage(body.Data)
}

func nestedMessage(raw json.RawMessage) string {
	var inner struct {
		Message json.RawMessage `json:"message"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &inner) != nil {
		return ""
	}
	return asString(inner.Message)
}

// asString accepts a JSON string, or a validation map flattened to text.
func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) == nil && len(m) > 0 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
