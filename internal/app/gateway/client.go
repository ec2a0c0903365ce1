/*
Package gateway talks to the HTTP gateway that fronts the room's informational services
(account and room metadata, dictionary, whois, time, translation, quotes) and the room
privacy settings page.

Every call goes through a retrying client. A 404 or an empty answer is reported as ErrNotFound;
callers treat any error the same way as not found.
*/
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"roombot/internal/pkg/logx"
)

// ErrNotFound is returned when the gateway has no data for the query.
var ErrNotFound = errors.New("gateway: not found")

const maxBodyBytes = 1 << 20

// leveledZerolog adapts zerolog to retryablehttp.LeveledLogger.
// Client errors are logged at warn level since they are retried.
type leveledZerolog struct {
	inner zerolog.Logger
}

func (l leveledZerolog) log(ev *zerolog.Event, msg string, keysAndValues []any) {
	if len(keysAndValues)%2 == 0 {
		ev = ev.Fields(keysAndValues)
	}
	ev.Msg(msg)
}

func (l leveledZerolog) Error(msg string, keysAndValues ...any) {
	l.log(l.inner.Warn(), msg, keysAndValues)
}

func (l leveledZerolog) Warn(msg string, keysAndValues ...any) {
	l.log(l.inner.Warn(), msg, keysAndValues)
}

func (l leveledZerolog) Info(msg string, keysAndValues ...any) {
	l.log(l.inner.Info(), msg, keysAndValues)
}

func (l leveledZerolog) Debug(msg string, keysAndValues ...any) {
	l.log(l.inner.Debug(), msg, keysAndValues)
}

type Option func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries for the HTTP client.
func WithMaxRetries(maxRetries int) Option {
	return func(client *retryablehttp.Client) {
		client.RetryMax = maxRetries
	}
}

// WithRetryWait sets the wait bounds between retries.
func WithRetryWait(waitMin, waitMax time.Duration) Option {
	return func(client *retryablehttp.Client) {
		client.RetryWaitMin = waitMin
		client.RetryWaitMax = waitMax
	}
}

// retryPolicy treats 429 as final so a rate limited lookup fails fast.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Client is a JSON client for the gateway.
type Client struct {
	baseURL *url.URL
	http    *retryablehttp.Client
}

// NewClient builds a Client for baseURL.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway url %q", baseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = retryablehttp.LeveledLogger(leveledZerolog{inner: logx.Component("gateway")})
	rc.CheckRetry = retryPolicy
	for _, opt := range options {
		opt(rc)
	}

	return &Client{baseURL: u, http: rc}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a request with an optional JSON body and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody any
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding gateway request: %w", err)
		}
		reqBody = buf
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path, query), reqBody)
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading gateway response: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding gateway response: %w", err)
	}
	return nil
}
