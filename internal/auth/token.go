package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of the stored token. The signature is
// not checked; the backend does that on every request. ok is false when
// there is no token, it is not a JWT, or it has no exp claim.
func (s *Service) TokenExpiry() (exp time.Time, ok bool) {
	token, err := s.Token()
	if err != nil || token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

// SessionExpired reports whether the stored token's exp claim is at or
// before now. Tokens without an exp claim never expire here.
func (s *Service) SessionExpired(now time.Time) bool {
	exp, ok := s.TokenExpiry()
	return ok && !now.Before(exp)
}

func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
