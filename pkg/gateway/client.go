// Package gateway is the typed client for the storefront REST API. It attaches the
// session's bearer token, normalizes failures into the errors in errors.go and caches
// read-mostly catalog resources. It never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"julianmorley.ca/con-plar/storefront/pkg/session"
)

type Client struct {
	baseURL    string
	tokens     session.TokenStore
	httpClient *http.Client
	cache      *Cache
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables caching of promotions and categories.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRateLimiter throttles outbound requests. Waiting honours the request context.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, tokens session.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.tokens == nil {
		c.tokens = &session.StaticToken{}
	}
	return c
}

// WithTokens returns a client for another session. The HTTP client, cache and limiter
// stay shared.
func (c *Client) WithTokens(tokens session.TokenStore) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func (c *Client) Tokens() session.TokenStore { return c.tokens }

func (c *Client) Cache() *Cache { return c.cache }

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

// envelope is the {success, data} wrapper some endpoints use.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	op := r.method + " " + r.path

	var token string
	if r.auth {
		var err error
		token, err = c.tokens.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("read session token: %w", err)
		}
		if token == "" {
			return ErrAuthenticationRequired
		}
	}

	var reader io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: op, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("api request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, body)
	}
	return decode(resp.StatusCode, body, out)
}

func parseError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return &RequestError{Status: status, Message: env.Message}
		}
		if env.Error != "" {
			return &RequestError{Status: status, Message: env.Error}
		}
	}
	return &RequestError{Status: status, Message: genericMessage(status)}
}

func decode(status int, body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	payload := body
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil {
		if !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = env.Error
			}
			if msg == "" {
				msg = genericMessage(status)
			}
			return &RequestError{Status: status, Message: msg}
		}
		if len(env.Data) > 0 && string(env.Data) != "null" {
			payload = env.Data
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
