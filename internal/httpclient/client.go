// Package httpclient is the single JSON transport used by every API client.
// It attaches the bearer token, encodes bodies, and turns failures into
// *errs.RequestError values.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/validate"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
	maxErrorBytes  = 64 << 10
)

// Paths probed, in order, for a human-readable message in an error body.
var messagePaths = []string{"message", "error.message", "error", "detail", "msg", "errors.0.message"}

// TokenSource supplies the current bearer token; "" means signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; its Transport is wrapped for logging
	Logger     *zap.Logger
	UserAgent  string
}

// Client talks JSON to the backend.
type Client struct {
	baseURL   string
	http      *http.Client
	log       *zap.Logger
	userAgent string

	mu     sync.RWMutex
	tokens TokenSource
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("httpclient: base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpclient: bad base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("httpclient: base URL must be http or https, got %q", u.Scheme)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	hc := &http.Client{Timeout: timeout}
	if cfg.HTTPClient != nil {
		cp := *cfg.HTTPClient
		hc = &cp
	}
	hc.Transport = NewLoggingTransport(hc.Transport, log)

	ua := cfg.UserAgent
	if ua == "" {
		ua = "ecotour-client"
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      hc,
		log:       log,
		userAgent: ua,
	}, nil
}

// SetTokenSource installs the source consulted on every request.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// Option tweaks a single request.
type Option func(*reqOpts)

type reqOpts struct {
	requireAuth bool
	query       url.Values
	header      http.Header
}

// RequireAuth fails the call with errs.ErrUnauthenticated, without any
// network I/O, when no token is available.
func RequireAuth() Option { return func(o *reqOpts) { o.requireAuth = true } }

// Query appends query parameters.
func Query(q url.Values) Option {
	return func(o *reqOpts) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for k, vs := range q {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// Header sets an extra request header.
func Header(key, value string) Option {
	return func(o *reqOpts) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// Get performs a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one request. body is JSON-encoded unless it is a *Multipart.
// out may be nil to discard the response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...Option) error {
	var o reqOpts
	for _, opt := range opts {
		opt(&o)
	}

	tok := c.token()
	if o.requireAuth && tok == "" {
		return fmt.Errorf("%s %s: %w", method, path, errs.ErrUnauthenticated)
	}

	target := c.baseURL + path
	if len(o.query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + o.query.Encode()
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("%s %s: encode body: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s %s: create request: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID(ctx))
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, vs := range o.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &errs.RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &errs.RequestError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: backendMessage(raw),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &errs.RequestError{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	if out == nil {
		return nil
	}
	// An empty body leaves out zero-valued; it still has to pass validation.
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &errs.RequestError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
		}
	}
	if err := validate.Decoded(out); err != nil {
		return &errs.RequestError{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.encode()
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(buf), "application/json", nil
	}
}

// backendMessage extracts the first string message found in an error body.
func backendMessage(raw []byte) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ""
	}
	for _, p := range messagePaths {
		r := gjson.GetBytes(raw, p)
		if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return strings.TrimSpace(r.Str)
		}
	}
	return ""
}
