// Package auth manages the professor's session: the OAuth code exchange
// with the backend and the token/user pair persisted in a SessionStore.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/api"
	"github.com/nhle/inbox-copilot/internal/credential"
	"github.com/nhle/inbox-copilot/internal/model"
)

// Keys under which the session is persisted.
const (
	TokenKey = "authToken"
	UserKey  = "userInfo"
)

var (
	// ErrNotAuthenticated is returned when no session is stored.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMissingCode is returned by HandleCallback for an empty code.
	ErrMissingCode = errors.New("missing authorization code")
)

// SessionStore is a small key-value store for session secrets. Get
// returns credential.ErrNotFound for a missing key; Clear of a missing key
// succeeds.
type SessionStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear(key string) error
}

// Backend is the subset of the API client the auth flow needs.
type Backend interface {
	Get(ctx context.Context, path string, result interface{}) error
}

// Service reads and writes the session and talks to the backend's auth
// endpoints.
type Service struct {
	store   SessionStore
	backend Backend
	logger  *zap.Logger
}

// NewService creates an auth service over store.
func NewService(store SessionStore, backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, backend: backend, logger: logger.Named("auth")}
}

// TokenSource adapts a SessionStore to api.TokenSource so the API client
// can be built before the Service that depends on it.
type TokenSource struct {
	Store SessionStore
}

// Token returns the stored bearer token, or "" when signed out.
func (ts TokenSource) Token() (string, error) {
	token, err := ts.Store.Get(TokenKey)
	if errors.Is(err, credential.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session token: %w", err)
	}
	return token, nil
}

// Token returns the stored bearer token, or "" when signed out.
func (s *Service) Token() (string, error) {
	return TokenSource{Store: s.store}.Token()
}

// IsAuthenticated reports whether a token is stored. It makes no network
// call and does not check expiry.
func (s *Service) IsAuthenticated() bool {
	token, err := s.Token()
	if err != nil {
		s.logger.Warn("session store unavailable", zap.Error(err))
		return false
	}
	return token != ""
}

// GetCurrentUser returns the stored user without calling the backend.
func (s *Service) GetCurrentUser() (*model.User, error) {
	raw, err := s.store.Get(UserKey)
	if errors.Is(err, credential.ErrNotFound) || (err == nil && raw == "") {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("reading stored user: %w", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: stored user info is unreadable: %v", ErrNotAuthenticated, err)
	}
	return &user, nil
}

type loginResponse struct {
	api.Envelope
	AuthURL string `json:"auth_url"`
}

// LoginURL asks the backend where to send the user to sign in.
func (s *Service) LoginURL(ctx context.Context) (string, error) {
	const path = "/auth/login"

	var resp loginResponse
	if err := s.backend.Get(ctx, path, &resp); err != nil {
		return "", err
	}
	if resp.AuthURL == "" {
		return "", api.MissingField(http.MethodGet, path, "auth_url")
	}
	return resp.AuthURL, nil
}

// CallbackResult is the outcome of exchanging an authorization code.
type CallbackResult struct {
	Success bool        `json:"success" yaml:"success"`
	Token   string      `json:"token,omitempty" yaml:"-"`
	User    *model.User `json:"user,omitempty" yaml:"user,omitempty"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
}

type callbackResponse struct {
	api.Envelope
	Token       string      `json:"token"`
	JWT         string      `json:"jwt"`
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

func (r callbackResponse) sessionToken() string {
	switch {
	case r.Token != "":
		return r.Token
	case r.JWT != "":
		return r.JWT
	default:
		return r.AccessToken
	}
}

// HandleCallback exchanges an OAuth code for a session and persists the
// token and user. On any failure nothing is left in the store.
func (s *Service) HandleCallback(ctx context.Context, code, state string) (CallbackResult, error) {
	if code == "" {
		return CallbackResult{Error: ErrMissingCode.Error()}, ErrMissingCode
	}

	q := url.Values{}
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	path := "/auth/callback?" + q.Encode()

	fail := func(err error) (CallbackResult, error) {
		s.logger.Warn("login failed", zap.Error(err))
		return CallbackResult{Error: err.Error()}, err
	}

	var resp callbackResponse
	if err := s.backend.Get(ctx, path, &resp); err != nil {
		return fail(err)
	}

	token := resp.sessionToken()
	if token == "" {
		return fail(api.MissingField(http.MethodGet, "/auth/callback", "token"))
	}
	if resp.User == nil {
		return fail(api.MissingField(http.MethodGet, "/auth/callback", "user"))
	}

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fail(fmt.Errorf("encoding user: %w", err))
	}

	if err := s.store.Set(TokenKey, token); err != nil {
		return fail(fmt.Errorf("storing session token: %w", err))
	}
	if err := s.store.Set(UserKey, string(userJSON)); err != nil {
		if clearErr := s.store.Clear(TokenKey); clearErr != nil {
			s.logger.Error("could not roll back session token", zap.Error(clearErr))
		}
		return fail(fmt.Errorf("storing user: %w", err))
	}

	s.logger.Info("signed in", zap.String("user_id", resp.User.ID.String()))

	return CallbackResult{Success: true, Token: token, User: resp.User}, nil
}

// Logout removes the token and user. It is safe to call when already
// signed out.
func (s *Service) Logout() error {
	err := errors.Join(
		s.store.Clear(TokenKey),
		s.store.Clear(UserKey),
	)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.logger.Info("signed out")
	return nil
}
