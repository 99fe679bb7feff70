// Package api is the single gateway to the library REST service. It attaches
// identity headers, handles 401 responses globally and normalizes failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"library-client/session"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-Id"
	HeaderAdminID   = "X-Admin-Id"
)

// SessionStore is what the gateway needs from the session store.
type SessionStore interface {
	Get() (session.Session, bool, error)
	Clear() error
}

type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
	nav     session.Navigator
	logger  *zap.Logger

	mu sync.Mutex
	// unauthorized is set once a 401 has been handled for the current
	// session; later 401s from in-flight requests are silent.
	unauthorized bool
}

func NewClient(baseURL string, timeout time.Duration, store SessionStore, nav session.Navigator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
		nav:     nav,
		logger:  logger,
	}
}

// BaseURL is the service root every path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Reset re-arms 401 handling after a new login.
func (c *Client) Reset() {
	c.mu.Lock()
	c.unauthorized = false
	c.mu.Unlock()
}

// Request performs a call and returns the raw response. Only 401 is treated as
// an error here; other statuses are left to the caller. The caller closes the body.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...Option) (*http.Response, error) {
	o := collect(opts)

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case io.Reader:
			reader = b
		case []byte:
			reader = bytes.NewReader(b)
		default:
			buf, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			reader = bytes.NewReader(buf)
		}
	}

	target := c.baseURL + path
	if len(o.query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + o.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	rid := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, rid)
	if c.store != nil {
		if sess, ok, err := c.store.Get(); err == nil && ok && sess.Token != "" {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}
	for key, values := range o.header {
		req.Header[key] = values
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("request_id", rid),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	c.logger.Debug("request",
		zap.String("request_id", rid),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.handleUnauthorized(rid)
		return nil, ErrUnauthorized
	}
	return resp, nil
}

// handleUnauthorized clears the session and sends the user to login, once.
// The lock is held across the side effects so a concurrent 401 waits and
// then sees the flag.
func (c *Client) handleUnauthorized(rid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unauthorized {
		return
	}
	c.unauthorized = true

	c.logger.Warn("session rejected by server", zap.String("request_id", rid))
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Error("clear session", zap.Error(err))
		}
	}
	if c.nav != nil {
		c.nav.Alert("Your session has expired, please log in again.")
		c.nav.RedirectToLogin()
	}
}

// Do sends a request, enforces a 2xx status and decodes the JSON body into out
// (when out is non-nil). Failures carry the server message as *RequestError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...Option) error {
	raw, err := c.Expect(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Expect is Request plus status enforcement; it returns the body bytes.
func (c *Client) Expect(ctx context.Context, method, path string, body any, opts ...Option) ([]byte, error) {
	resp, err := c.Request(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Status: resp.StatusCode, Message: MessageFrom(resp.StatusCode, raw)}
	}
	return raw, nil
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...Option) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Fetch downloads a binary resource such as a cover image.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("network request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &RequestError{Status: resp.StatusCode, Message: MessageFrom(resp.StatusCode, raw)}
	}
	return raw, resp.Header.Get("Content-Type"), nil
}
