// Package api is the single chokepoint for every outbound call to the
// back-office API. It attaches the current access token to each request
// and retries a request exactly once after a silent refresh when the
// server answers 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/fieldcart/backoffice/internal/logger"
)

const refreshPath = "/auth/refresh-token"

// TokenProvider yields the current access token, empty when logged out.
type TokenProvider interface {
	AccessToken() string
}

// Refresher exchanges the stored refresh token for a new pair. It reports
// whether the session is usable afterwards.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// RequestConfig tunes the behavior of a single call.
type RequestConfig struct {
	// SkipAuthRefresh disables the 401 refresh-and-retry for this call.
	// The refresh endpoint itself is always exempt.
	SkipAuthRefresh bool
	// SkipErrorHandling suppresses the client's error hook; the caller
	// handles the failure itself.
	SkipErrorHandling bool
}

// Client is the shared HTTP client for the back-office API.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenProvider
	refresher     Refresher
	onAuthExpired func()
	onError       func(error)
	logger        *logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithAuthExpired registers the hook invoked when a silent refresh fails
// and the user must be routed to the authentication entry point.
func WithAuthExpired(fn func()) Option {
	return func(c *Client) { c.onAuthExpired = fn }
}

// WithErrorHook registers a hook invoked for every failed call that did
// not opt out via SkipErrorHandling.
func WithErrorHook(fn func(error)) Option {
	return func(c *Client) { c.onError = fn }
}

func New(baseURL string, timeout time.Duration, l *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenProvider wires the token source. Set after construction because
// the session manager both consumes this client and feeds it tokens.
func (c *Client) SetTokenProvider(p TokenProvider) { c.tokens = p }

// SetRefresher wires the silent-refresh hook, same lifecycle as the
// token provider.
func (c *Client) SetRefresher(r Refresher) { c.refresher = r }

// Do issues a JSON request and decodes a 2xx response body into out when
// out is non-nil. cfg may be nil for default behavior.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, cfg *RequestConfig) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	send := func() (*http.Request, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	return c.roundTrip(ctx, path, send, out, cfg)
}

// MultipartFile is one file part of a multipart upload.
type MultipartFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// DoMultipart issues a multipart POST with every file under the given
// field name, decoding a 2xx response into out when out is non-nil.
func (c *Client) DoMultipart(ctx context.Context, path, field string, files []MultipartFile, out any, cfg *RequestConfig) error {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		header.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	payload := buf.Bytes()

	send := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}

	return c.roundTrip(ctx, path, send, out, cfg)
}

// roundTrip sends the request once and, on a 401 that is eligible for
// recovery, refreshes the session and replays the request a single time.
// The replay is itself marked exempt so a second 401 propagates as-is.
func (c *Client) roundTrip(ctx context.Context, path string, build func() (*http.Request, error), out any, cfg *RequestConfig) error {
	if cfg == nil {
		cfg = &RequestConfig{}
	}

	err := c.send(build, out)

	var statusErr *StatusError
	if errors.As(err, &statusErr) &&
		statusErr.Status == http.StatusUnauthorized &&
		!cfg.SkipAuthRefresh &&
		path != refreshPath &&
		c.refresher != nil {

		if c.refresher.Refresh(ctx) {
			replayErr := c.send(build, out)
			if replayErr != nil && !cfg.SkipErrorHandling {
				c.fail(replayErr)
			}
			return replayErr
		}

		c.logger.Warn().Str("path", path).Msg("session refresh failed, signalling re-authentication")
		if c.onAuthExpired != nil {
			c.onAuthExpired()
		}
		// The caller still sees its own 401, not the refresh failure.
	}

	if err != nil && !cfg.SkipErrorHandling {
		c.fail(err)
	}
	return err
}

func (c *Client) send(build func() (*http.Request, error), out any) error {
	req, err := build()
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(req.URL.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{URL: req.URL.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: body}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

func (c *Client) fail(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func classifyTransportError(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{URL: url, Err: err}
	}
	return &NetworkError{URL: url, Err: err}
}
