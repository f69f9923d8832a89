// Package paypal is a small client for the PayPal REST API: OAuth2 client
// credentials, Orders v2 create and capture.
package paypal

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

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Environment string

const (
	Sandbox Environment = "sandbox"
	Live    Environment = "live"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
)

// ParseEnvironment accepts "live" or "sandbox"; anything else, including the
// empty string, is sandbox.
func ParseEnvironment(s string) Environment {
	if strings.EqualFold(strings.TrimSpace(s), string(Live)) {
		return Live
	}
	return Sandbox
}

func (e Environment) BaseURL() string {
	if e == Live {
		return liveBaseURL
	}
	return sandboxBaseURL
}

type Credentials struct {
	ClientID string
	Secret   string
}

type Config struct {
	Environment Environment
	// BaseURL overrides the environment's API host.
	BaseURL      string
	Credentials  Credentials
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// HTTPClient replaces the default instrumented client.
	HTTPClient *http.Client
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

type Client struct {
	baseURL *url.URL
	creds   Credentials
	http    *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
	breaker *gobreaker.CircuitBreaker[*response]
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Credentials.ClientID == "" || cfg.Credentials.Secret == "" {
		return nil, errors.New("paypal: client id and secret are required")
	}
	raw := cfg.BaseURL
	if raw == "" {
		raw = cfg.Environment.BaseURL()
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("paypal: invalid base url %q: %w", raw, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	c := &Client{
		baseURL: u,
		creds:   cfg.Credentials,
		http:    hc,
		timeout: timeout,
		retries: cfg.MaxRetries,
		backoff: backoff,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "paypal",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c, nil
}

type request struct {
	method  string
	path    string
	body    []byte
	form    bool
	auth    func(*http.Request)
	headers http.Header
}

// send performs one attempt. Transport errors and 5xx responses count as
// breaker failures; 4xx responses are returned as successes for the caller
// to interpret.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	return c.breaker.Execute(func() (*response, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		u := c.baseURL.ResolveReference(&url.URL{Path: r.path})
		req, err := http.NewRequestWithContext(ctx, r.method, u.String(), bytes.NewReader(r.body))
		if err != nil {
			return nil, err
		}
		for k, vv := range r.headers {
			for _, v := range vv {
				req.Header.Add(k, v)
			}
		}
		if r.form {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		r.auth(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &TransportError{Op: r.method + " " + r.path, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, &TransportError{Op: r.method + " " + r.path, Err: err}
		}
		out := &response{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return out, decodeAPIError(resp.StatusCode, body)
		}
		return out, nil
	})
}

// sendWithRetry retries transport failures and 5xx responses with
// exponential backoff. Only use it for requests that are safe to repeat.
func (c *Client) sendWithRetry(ctx context.Context, r request) (*response, error) {
	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying paypal request",
				zap.String("path", r.path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err := c.send(ctx, r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !Retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) decode(resp *response, out any) error {
	if resp.status < 200 || resp.status > 299 {
		return decodeAPIError(resp.status, resp.body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("paypal: decode response: %w", err)
	}
	return nil
}
