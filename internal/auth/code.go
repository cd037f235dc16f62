package auth

import (
	"net/url"
	"strings"
)

// ParseCode accepts either a bare authorization code or the full redirect
// URL the browser landed on, and returns the code and state.
func ParseCode(input string) (code, state string) {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "code=") {
		return input, ""
	}

	raw := input
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	q, err := url.ParseQuery(raw)
	if err != nil || q.Get("code") == "" {
		return input, ""
	}
	return q.Get("code"), q.Get("state")
}
