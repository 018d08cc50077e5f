package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/shared"
)

const (
	DefaultRetryAttempts  = 5
	DefaultRetryBaseDelay = 5 * time.Second
	defaultHTTPTimeout    = 30 * time.Second
)

// ClientOptions configures the HTTP plumbing shared by every source client.
type ClientOptions struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Attempts    int
	BaseDelay   time.Duration
	HTTPClient  *http.Client
	Clock       Clock
	Logger      *log.Logger
}

// OptionsFromConfig builds [ClientOptions] for one source from the application config.
func OptionsFromConfig(cfg *shared.Config, source shared.SourceConfig) ClientOptions {
	return ClientOptions{
		BaseURL:     source.BaseURL,
		UserAgent:   cfg.UserAgent,
		MinInterval: source.MinInterval.Duration,
		Attempts:    cfg.Retry.Attempts,
		BaseDelay:   cfg.Retry.BaseDelay.Duration,
	}
}

// sourceClient sends gated, retried requests to one external source.
type sourceClient struct {
	name      string
	baseURL   string
	userAgent string
	attempts  int
	baseDelay time.Duration
	http      *http.Client
	gate      *Gate
	clock     Clock
	logger    *log.Logger
}

func newSourceClient(name string, opts ClientOptions) *sourceClient {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Attempts < 1 {
		opts.Attempts = DefaultRetryAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultRetryBaseDelay
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewDiscardLogger()
	}
	return &sourceClient{
		name:      name,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
		http:      opts.HTTPClient,
		gate:      NewGate(opts.MinInterval, opts.Clock),
		clock:     opts.Clock,
		logger:    opts.Logger.With("source", name),
	}
}

// endpoint joins path and query onto the base URL.
func (c *sourceClient) endpoint(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// getJSON issues a GET against the source and decodes the body into result.
func (c *sourceClient) getJSON(ctx context.Context, path string, params url.Values, result any) error {
	return c.getURL(ctx, c.endpoint(path, params), result)
}

// getURL issues a GET against an absolute URL such as a pagination link.
func (c *sourceClient) getURL(ctx context.Context, rawURL string, result any) error {
	body, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return err
	}
	return decode(body, result)
}

// postJSON sends payload as a JSON body and decodes the response into result.
func (c *sourceClient) postJSON(ctx context.Context, path string, payload, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	body, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decode(body, result)
}

// do runs one logical request: gate, send, and retry connection-level failures with doubling backoff.
//
// Any well-formed non-2xx response is [shared.ErrNotFound] and is never retried.
func (c *sourceClient) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			c.logger.Warn("connection error, retrying", "attempt", attempt+1, "of", c.attempts, "delay", delay, "error", lastErr)
			if err := c.clock.Sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		req.Header.Set("Accept", "application/json")

		body, status, err := c.send(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !IsTransient(err) {
				return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, c.name, req.URL.Path, err)
			}
			lastErr = err
			continue
		}

		if status < 200 || status >= 300 {
			c.logger.Debug("no data", "path", req.URL.Path, "status", status)
			return nil, fmt.Errorf("%w: %s %s returned status %d", shared.ErrNotFound, c.name, req.URL.Path, status)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", shared.ErrRetriesExhausted, c.name, c.attempts, lastErr)
}

func (c *sourceClient) send(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func decode(body []byte, result any) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return nil
}

// IsTransient reports whether err is a connection-level failure worth retrying:
// timeouts, refused or reset connections, and truncated responses. A host that does not
// resolve is not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
		"no such host",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
