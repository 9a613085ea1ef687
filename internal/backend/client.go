// Package backend is a small client for a hosted PostgREST/GoTrue service:
// table access under /rest/v1 and password auth under /auth/v1.
package backend

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
	"golang.org/x/oauth2"

	"github.com/ziadkadry99/tradebook/internal/logging"
)

// Row is one table row as decoded from the service. Numbers arrive as
// json.Number.
type Row = map[string]any

// Client talks to one backend project. The zero session client uses the
// anon key for authorization; WithSession derives a per-user client.
type Client struct {
	baseURL *url.URL
	anonKey string
	http    *http.Client
	logger  *zap.Logger
	session *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the project at baseURL.
func New(baseURL, anonKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be an absolute http(s) url", baseURL)
	}

	c := &Client{
		baseURL: u,
		anonKey: anonKey,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.Component(c.logger, "backend.Client")
	return c, nil
}

// WithSession returns a client that authenticates as the session's user.
// The receiver is not modified.
func (c *Client) WithSession(sess *Session) *Client {
	if sess == nil {
		return c
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *c.http
	hc.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: sess.AccessToken,
			TokenType:   "Bearer",
		}),
		Base: base,
	}
	return &Client{
		baseURL: c.baseURL,
		anonKey: c.anonKey,
		http:    &hc,
		logger:  c.logger,
		session: sess,
	}
}

// Session returns the session the client was derived from, or nil.
func (c *Client) Session() *Session { return c.session }

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

// do sends req and returns the raw response body of a 2xx reply. Any other
// status is returned as *Error.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	logger := c.logger.With(zap.String("method", req.method), zap.String("path", req.path))
	start := time.Now()

	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("apikey", c.anonKey)
	// Replaced by the session token when the oauth2 transport is in place.
	httpReq.Header.Set("Authorization", "Bearer "+c.anonKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn("request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	logger.Debug("request finished", zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, data)
	}
	return data, nil
}

// decodeJSON unmarshals data keeping numbers as json.Number so that text
// and numeric columns are normalised in one place by the caller.
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
