package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns the client settings used for the catalog API.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	}
}

// RequestHook mutates an outgoing request before the first attempt.
type RequestHook func(ctx context.Context, req *http.Request)

// Client is an http.Client that retries transport errors and retryable 5xx
// responses with capped exponential backoff.
type Client struct {
	httpClient *http.Client
	config     Config
	hooks      []RequestHook
}

// New creates a Client with a pooled transport.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// Use registers hooks applied to every request sent through the client.
func (c *Client) Use(hooks ...RequestHook) *Client {
	c.hooks = append(c.hooks, hooks...)
	return c
}

// Do sends req, retrying up to MaxRetries times. The final response is
// returned as-is, whatever its status; a retried response body is closed.
// Requests that are not idempotent are only retried when the connection
// could not be established, unless they carry an Idempotency-Key header.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	for _, hook := range c.hooks {
		hook(ctx, req)
	}
	replayable := isIdempotent(req)

	var wait time.Duration
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if err := rewindBody(req); err != nil {
				return nil, err
			}
		}

		last := attempt >= c.config.MaxRetries
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if last || !isRetryableError(err) || (!replayable && !isDialError(err)) {
				return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
			}
			wait = c.backoff(attempt)
			continue
		}

		if last || !replayable || !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		wait = c.backoff(attempt)
		if after, ok := retryAfter(resp); ok && after > wait {
			wait = min(after, c.config.RetryWaitMax)
		}
		_ = resp.Body.Close()
	}
}

// backoff returns the wait before retry number attempt+1.
func (c *Client) backoff(attempt int) time.Duration {
	wait := c.config.RetryWaitMin << uint(attempt)
	if wait <= 0 || wait > c.config.RetryWaitMax {
		wait = c.config.RetryWaitMax
	}
	return wait
}

// retryableStatus reports whether a response status is worth retrying. 501
// means the upstream will never support the request.
func retryableStatus(code int) bool {
	return code >= 500 && code != http.StatusNotImplemented
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// rewindBody restores the request body before a retry. Requests built from
// bytes.Buffer, bytes.Reader or strings.Reader carry a GetBody func; a body
// without one cannot be replayed.
func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return errors.New("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

// isRetryableError reports whether a transport error is worth retrying.
// Cancellation by the caller never is.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isIdempotent reports whether req may be sent more than once without
// changing its effect.
func isIdempotent(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace,
		http.MethodPut, http.MethodDelete:
		return true
	}
	return req.Header.Get("Idempotency-Key") != "" || req.Header.Get("X-Idempotency-Key") != ""
}

// isDialError reports whether err happened while connecting, before any
// byte of the request reached the server.
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
