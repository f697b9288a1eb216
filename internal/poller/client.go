package poller

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// a single target is probed sequentially, so one warm connection is all we keep
const (
	defaultMaxIdleConns        = 1
	defaultMaxIdleConnsPerHost = 1
	defaultIdleConnTimeout     = 90 * time.Second
)

// Response holds the result of a HEAD request made by [Client].
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the wall-clock time from sending the request to receiving
	// the response headers.
	Latency time.Duration

	// Error contains any transport-level error. HTTP error statuses are not
	// errors; nil means a response was received.
	Error error
}

// Client is an HTTP client wrapper that times HEAD requests.
//
// Client applies timeouts per request via context rather than a global
// client timeout. A zero timeout means the request blocks until the server
// responds or the connection fails.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new probing [Client].
//
// Keep-alives stay enabled so that, after the warm-up request, subsequent
// measurements reuse the established connection instead of paying for DNS,
// TCP and TLS setup again.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false,
			},
		},
	}
}

// Head performs an HTTP HEAD request against url and returns a [Response].
//
// If timeout is positive the request is cancelled after that duration.
// The response body is never read; it is closed as soon as headers arrive.
//
// Head always returns a Response; failures are captured in the Error field.
func (c *Client) Head(ctx context.Context, url string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Response{Error: fmt.Errorf("failed to create request: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Response{
			Latency: latency,
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	_ = resp.Body.Close()

	return Response{
		StatusCode: resp.StatusCode,
		Latency:    latency,
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil receiver. The client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
