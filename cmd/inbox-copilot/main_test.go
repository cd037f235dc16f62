package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox-copilot/internal/api"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "api:\n  base_url: http://127.0.0.1:1\n" +
		"storage:\n  db_path: " + filepath.Join(dir, "data", "inbox.db") + "\n" +
		"log:\n  file: " + filepath.Join(dir, "logs", "inbox-copilot.log") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestFailingCommandStillTearsDown(t *testing.T) {
	root, c := newRootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetOut(&bytes.Buffer{})

	code := run(root, c, []string{"--config", writeConfig(t), "--ephemeral-session", "digest"})

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "inbox-copilot login")
	require.NotNil(t, c.logger)
	assert.Nil(t, c.store, "store must be closed after a failed command")
}

func TestTeardownIsIdempotent(t *testing.T) {
	c := &cli{}
	c.teardown()
	c.teardown()
}

func TestDescribeError(t *testing.T) {
	unauthorized := &api.RequestError{Kind: api.KindUnauthorized, Method: "GET", Path: "/emails/", Status: 401}
	assert.Contains(t, describeError(unauthorized), "run `inbox-copilot login`")

	transport := &api.RequestError{Kind: api.KindTransport, Method: "GET", Path: "/emails/", Err: errors.New("connection refused")}
	assert.Contains(t, describeError(transport), "api.base_url")

	envelope := &api.RequestError{Kind: api.KindEnvelope, Method: "POST", Path: "/emails/1/read", Message: "already read"}
	assert.Contains(t, describeError(envelope), "the backend could not complete the request")
	assert.Contains(t, describeError(envelope), "already read")

	assert.Equal(t, "boom", describeError(errors.New("boom")))
}
