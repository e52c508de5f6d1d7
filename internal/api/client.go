// Package api is the HTTP client for the todo backend.
//
// Every call reads the bearer token at dispatch time, so a login or logout
// that happens while other requests are being prepared is picked up by the
// next request. Non-2xx answers become *model.APIError; well-formed
// answers with the wrong shape become *model.SchemaError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

// maxBody caps how much of a response we read.
const maxBody = 4 << 20

// TokenSource hands out the current bearer token, "" when logged out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a func to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. The default has no timeout;
// stalled requests are governed by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTokens returns a copy of c that authenticates with ts. It lets the
// session store (which needs a client to log in) and the client (which
// needs the store's token) be wired without a cycle.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.With("op", op, "method", method, "path", path, "request_id", reqID, "token_present", token != "")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	log.Debug("request done", "status", resp.StatusCode, "duration", time.Since(start), "bytes", len(b))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.APIError{Op: op, Status: resp.StatusCode, Message: serverMessage(b)}
	}
	return b, nil
}

// serverMessage pulls a human message out of an error body: {"message"},
// {"error"} or {"error": {"message"}}; short plain-text bodies are used as is.
func serverMessage(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err == nil {
		if s, ok := obj["message"].(string); ok {
			return s
		}
		switch e := obj["error"].(type) {
		case string:
			return e
		case map[string]any:
			if s, ok := e["message"].(string); ok {
				return s
			}
		}
		return ""
	}
	if b[0] == '<' || !utf8.Valid(b) {
		return ""
	}
	s := string(b)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
