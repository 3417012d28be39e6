// Package api is the HTTP client for the scheduling backend's REST contract.
package api

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
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the backend mount point used when nothing is configured.
	DefaultBaseURL = "http://localhost:8000/api/ghl"

	maxBodySize = 4 << 20 // 4 MB
	userAgent   = "github.com/theirongolddev/ghlc/1.0"
)

// Observer receives one callback per completed call. Outcome is one of
// "success", "http_error", "network_error" or "invalid_json".
type Observer interface {
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)
}

// Options overrides the request defaults for a single call.
type Options struct {
	Method  string
	Body    any // []byte and json.RawMessage are sent as-is, anything else is marshaled
	Headers map[string]string
	Query   url.Values
}

// Client calls endpoints relative to a fixed base URL.
type Client struct {
	baseURL  string
	headers  http.Header
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps the transport default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHeaders adds headers sent on every request. Per-call headers still win.
func WithHeaders(h map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range h {
			c.headers.Set(k, v)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a per-request metrics observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: http.Header{},
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base every endpoint is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call performs one request and returns the JSON body.
//
// Non-2xx responses fail with *HTTPError, transport failures with
// *NetworkError. There is no retry.
func (c *Client) Call(ctx context.Context, endpoint string, opts *Options) (json.RawMessage, error) {
	if opts == nil {
		opts = &Options{}
	}
	start := time.Now()

	req, err := c.newRequest(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}

	log := c.logger.With(
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
	log.Debug("api request")

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, "network_error", start)
		log.Warn("api request failed", zap.Error(err))
		return nil, &NetworkError{Op: req.Method, URL: req.URL.String(), Err: transportCause(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.observe(endpoint, "network_error", start)
		return nil, &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(endpoint, "http_error", start)
		msg := genericHTTPMessage(resp.StatusCode)
		if m := gjson.GetBytes(body, "message"); m.Type == gjson.String && m.Str != "" {
			msg = m.Str
		}
		log.Info("api error response", zap.String("message", msg))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		c.observe(endpoint, "invalid_json", start)
		log.Warn("api response is not JSON")
		return nil, fmt.Errorf("%w (status %d)", ErrInvalidJSON, resp.StatusCode)
	}

	c.observe(endpoint, "success", start)
	log.Debug("api response")
	return json.RawMessage(body), nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, opts *Options) (*http.Request, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + endpoint
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		switch b := opts.Body.(type) {
		case []byte:
			body = bytes.NewReader(b)
		case json.RawMessage:
			body = bytes.NewReader(b)
		case string:
			body = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("api: encoding request body: %w", err)
			}
			body = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}

	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, outcome, time.Since(start))
	}
}

// transportCause strips the *url.Error wrapper so the message names the
// transport failure rather than repeating the method and URL.
func transportCause(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
