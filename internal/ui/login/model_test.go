package login

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox-copilot/internal/auth"
	"github.com/nhle/inbox-copilot/internal/model"
)

type fakeAuth struct {
	url string
	err error
}

func (f fakeAuth) LoginURL(_ context.Context) (string, error) { return f.url, f.err }

func (f fakeAuth) HandleCallback(_ context.Context, code, _ string) (auth.CallbackResult, error) {
	if code == "bad" {
		return auth.CallbackResult{Error: "invalid grant"}, errors.New("invalid grant")
	}
	return auth.CallbackResult{Success: true, User: &model.User{Name: "Dr. Kim"}}, nil
}

func TestShowsLoginURL(t *testing.T) {
	m := New(fakeAuth{url: "https://login.example/authorize"}, "", 100, 30)
	m.Init()

	m, _ = m.Update(LoginURLMsg{URL: "https://login.example/authorize"})
	assert.Contains(t, m.View(), "https://login.example/authorize")
}

func TestLoginURLFailureIsShown(t *testing.T) {
	m := New(fakeAuth{}, "Your session has expired.", 100, 30)
	m.Init()

	m, _ = m.Update(LoginURLMsg{Err: errors.New("connection refused")})
	view := m.View()
	assert.Contains(t, view, "Your session has expired.")
	assert.Contains(t, view, "connection refused")
}

func TestSuccessfulCallbackSignsIn(t *testing.T) {
	m := New(fakeAuth{}, "", 100, 30)
	m.Init()

	res := auth.CallbackResult{Success: true, User: &model.User{Name: "Dr. Kim"}}
	m, cmd := m.Update(callbackMsg{result: res})
	require.NotNil(t, cmd)

	signed, ok := cmd().(SignedInMsg)
	require.True(t, ok)
	assert.Equal(t, "Dr. Kim", signed.Result.User.Name)
	assert.False(t, m.exchanging)
}

func TestFailedCallbackResetsForm(t *testing.T) {
	m := New(fakeAuth{}, "", 100, 30)
	m.Init()
	m.fb.code = "bad"
	m.exchanging = true

	m, cmd := m.Update(callbackMsg{err: errors.New("invalid grant")})
	assert.NotNil(t, cmd)
	assert.False(t, m.exchanging)
	assert.Empty(t, m.fb.code)
	assert.Contains(t, m.View(), "Sign-in failed: invalid grant")
}

func TestDescribeMissingCode(t *testing.T) {
	assert.Equal(t, "Enter the authorization code from the browser.", describe(auth.ErrMissingCode))
}
