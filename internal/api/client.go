// Package api is the HTTP client for the Inbox Copilot backend. It owns
// authentication headers, envelope unwrapping, rate-limit back-off and the
// circuit breaker, and reports every failure as a *RequestError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/metrics"
)

// TokenSource supplies the bearer token for each request. An empty token
// sends the request without an Authorization header.
type TokenSource interface {
	Token() (string, error)
}

// Client is a thin HTTP client for the backend REST API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	maxRetries int
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries sets how often a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend rooted at baseURL
// (e.g. http://localhost:8000).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "inbox-copilot-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Only an unreachable or failing server trips the breaker;
			// 4xx answers prove it is up.
			var se *serverError
			return err == nil || !(errors.As(err, &se) || IsTransport(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.Set(float64(to))
		},
	})

	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// response is one completed HTTP exchange.
type response struct {
	status int
	header http.Header
	body   []byte
}

// serverError marks a 5xx answer inside the breaker so it counts as a
// failure there.
type serverError struct {
	resp *response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error %d", e.resp.status)
}

// do builds the request, handles auth and 429 back-off, and maps the
// outcome to either a decoded result or a *RequestError.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) (err error) {
	route := routeLabel(path)
	start := time.Now()
	defer func() {
		outcome := "ok"
		if reqErr, ok := AsRequestError(err); ok {
			outcome = reqErr.Kind.String()
			metrics.RecordAPIFailure(route, outcome)
			c.logger.Warn("backend request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Stringer("kind", reqErr.Kind),
				zap.Int("status", reqErr.Status),
				zap.Error(err),
			)
		}
		metrics.RecordAPIRequest(method, route, outcome, time.Since(start))
	}()

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return &RequestError{
				Kind: KindTransport, Method: method, Path: path,
				Message: "marshaling request body", Err: err,
			}
		}
	}

	token := ""
	if c.tokens != nil {
		token, err = c.tokens.Token()
		if err != nil {
			return &RequestError{
				Kind: KindUnauthorized, Method: method, Path: path,
				Message: "reading session token", Err: err,
			}
		}
	}

	var resp *response
	for attempt := 0; ; attempt++ {
		resp, err = c.execute(ctx, method, path, payload, token)
		if err != nil {
			return err
		}
		if resp.status != http.StatusTooManyRequests {
			break
		}
		if attempt >= c.maxRetries {
			return &RequestError{
				Kind: KindEnvelope, Method: method, Path: path, Status: resp.status,
				Message: fmt.Sprintf("rate limited; max retries (%d) exceeded", c.maxRetries),
			}
		}

		wait := retryAfterDuration(resp.header, attempt)
		c.logger.Debug("rate limited, backing off",
			zap.String("path", path), zap.Duration("wait", wait), zap.Int("attempt", attempt+1))

		select {
		case <-ctx.Done():
			return &RequestError{Kind: KindTransport, Method: method, Path: path, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.status),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.status < 200 || resp.status >= 300 {
		return statusError(method, path, resp)
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.status == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(resp.body, result); err != nil {
		return &RequestError{
			Kind: KindEnvelope, Method: method, Path: path, Status: resp.status,
			Message: "malformed response body", Err: err,
		}
	}

	if env, ok := result.(Enveloped); ok {
		if status := env.EnvelopeStatus(); !status.Success {
			return &RequestError{
				Kind: KindEnvelope, Method: method, Path: path, Status: resp.status,
				Message: status.failureText(),
			}
		}
	}

	return nil
}

// execute performs a single HTTP exchange through the circuit breaker.
func (c *Client) execute(
	ctx context.Context,
	method string,
	path string,
	payload []byte,
	token string,
) (*response, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &RequestError{Kind: KindTransport, Method: method, Path: path, Err: err}
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, &RequestError{
				Kind: KindTransport, Method: method, Path: path, Status: httpResp.StatusCode,
				Message: "reading response body", Err: err,
			}
		}

		resp := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if resp.status >= 500 {
			return resp, &serverError{resp: resp}
		}
		return resp, nil
	})

	var se *serverError
	switch {
	case err == nil:
		return out.(*response), nil
	case errors.As(err, &se):
		return se.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &RequestError{
			Kind: KindTransport, Method: method, Path: path,
			Message: "backend unavailable", Err: err,
		}
	default:
		if _, ok := AsRequestError(err); ok {
			return nil, err
		}
		return nil, &RequestError{Kind: KindTransport, Method: method, Path: path, Err: err}
	}
}

// statusError converts a non-2xx response into a *RequestError, keeping
// the backend's own explanation when the body is an envelope.
func statusError(method, path string, resp *response) *RequestError {
	reqErr := &RequestError{Method: method, Path: path, Status: resp.status}

	var env Envelope
	if json.Unmarshal(resp.body, &env) == nil && (env.Error != "" || env.Message != "") {
		reqErr.Message = env.failureText()
	} else {
		reqErr.Message = truncate(strings.TrimSpace(string(resp.body)), 200)
		if reqErr.Message == "" {
			reqErr.Message = http.StatusText(resp.status)
		}
	}

	switch resp.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		reqErr.Kind = KindUnauthorized
	case http.StatusNotFound:
		reqErr.Kind = KindNotFound
	default:
		reqErr.Kind = KindEnvelope
	}
	return reqErr
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(header http.Header, attempt int) time.Duration {
	if v := header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// routeLabel collapses per-email paths so metrics stay low-cardinality:
// /emails/abc-123/mark-read becomes /emails/:id/mark-read.
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	if len(parts) >= 3 && parts[1] == "emails" {
		switch parts[2] {
		case "", "sync", "categories", "stats":
		default:
			parts[2] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
