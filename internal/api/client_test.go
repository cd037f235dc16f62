package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token() (string, error) { return "", errors.New("keyring locked") }

type itemResponse struct {
	Envelope
	Item *struct {
		Name string `json:"name"`
	} `json:"item"`
}

func newTestServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDecodesSuccessEnvelope(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"success":true,"item":{"name":"quiz"}}`))
	})

	c := NewClient(srv.URL, WithTokenSource(staticToken("tok-123")))

	var out itemResponse
	require.NoError(t, c.Get(context.Background(), "/items/1", &out))
	require.NotNil(t, out.Item)
	assert.Equal(t, "quiz", out.Item.Name)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	c := NewClient(srv.URL, WithTokenSource(staticToken("")))
	require.NoError(t, c.Get(context.Background(), "/ping", &itemResponse{}))
}

func TestClientTokenSourceFailure(t *testing.T) {
	var hits int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	c := NewClient(srv.URL, WithTokenSource(failingToken{}))
	err := c.Get(context.Background(), "/ping", nil)

	assert.True(t, IsUnauthorized(err))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestClientPostSendsJSON(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	c := NewClient(srv.URL)
	require.NoError(t, c.Post(context.Background(), "/process/search", map[string]string{"query": "x"}, &itemResponse{}))
}

func TestClientEnvelopeFailure(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"LLM quota exhausted"}`))
	})

	c := NewClient(srv.URL)
	err := c.Get(context.Background(), "/process/digest", &itemResponse{})

	reqErr, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, KindEnvelope, reqErr.Kind)
	assert.Equal(t, "LLM quota exhausted", reqErr.Message)
	assert.Contains(t, err.Error(), "LLM quota exhausted")
}

func TestClientEnvelopeFailureUsesMessage(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"sync already running"}`))
	})

	err := NewClient(srv.URL).Post(context.Background(), "/emails/sync", nil, &itemResponse{})
	reqErr, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, "sync already running", reqErr.Message)
}

func TestClientMalformedBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	err := NewClient(srv.URL).Get(context.Background(), "/emails/", &itemResponse{})
	assert.True(t, IsEnvelope(err))
}

func TestClientStatusKinds(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   ErrorKind
		msg    string
	}{
		{http.StatusNotFound, `{"success":false,"error":"Email not found"}`, KindNotFound, "Email not found"},
		{http.StatusUnauthorized, `{"msg":"Token has expired"}`, KindUnauthorized, `{"msg":"Token has expired"}`},
		{http.StatusForbidden, ``, KindUnauthorized, "Forbidden"},
		{http.StatusBadRequest, `{"success":false,"error":"email_id required"}`, KindEnvelope, "email_id required"},
		{http.StatusInternalServerError, `{"success":false,"error":"boom"}`, KindEnvelope, "boom"},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			err := NewClient(srv.URL).Get(context.Background(), "/emails/9", &itemResponse{})
			reqErr, ok := AsRequestError(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, reqErr.Kind)
			assert.Equal(t, tc.status, reqErr.Status)
			assert.Equal(t, tc.msg, reqErr.Message)
		})
	}
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url).Get(context.Background(), "/emails/", &itemResponse{})
	assert.True(t, IsTransport(err))
	assert.Error(t, errors.Unwrap(err))
}

func TestClientRetriesRateLimit(t *testing.T) {
	var hits int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := NewClient(srv.URL).Post(context.Background(), "/process/draft", map[string]string{"email_id": "1"}, &itemResponse{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClientRateLimitExhausted(t *testing.T) {
	var hits int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := NewClient(srv.URL, WithMaxRetries(1)).Get(context.Background(), "/emails/", nil)
	reqErr, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, reqErr.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClientBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	c := NewClient(srv.URL)
	for i := 0; i < 5; i++ {
		err := c.Get(context.Background(), "/emails/", nil)
		assert.True(t, IsEnvelope(err), "attempt %d", i)
	}

	err := c.Get(context.Background(), "/emails/", nil)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestClientBreakerIgnoresClientErrors(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := NewClient(srv.URL)
	for i := 0; i < 8; i++ {
		assert.True(t, IsNotFound(c.Get(context.Background(), "/emails/missing", nil)))
	}
}

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/emails/":                        "/emails/",
		"/emails/?page=2&category=urgent": "/emails/",
		"/emails/4f2a/mark-read":          "/emails/:id/mark-read",
		"/emails/77":                      "/emails/:id",
		"/emails/sync":                    "/emails/sync",
		"/emails/stats":                   "/emails/stats",
		"/process/search":                 "/process/search",
		"/auth/callback?code=x":           "/auth/callback",
	}
	for in, want := range cases {
		assert.Equal(t, want, routeLabel(in), in)
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "kind(42)", ErrorKind(42).String())
}
