package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromToken returns when a session for token should end: now+ttl, or
// the token's own exp claim if that comes first. The token is parsed without
// verification and only exp is read.
func ExpiryFromToken(token string, ttl time.Duration, now time.Time) time.Time {
	limit := now.Add(ttl)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return limit
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return limit
	}
	if exp.Time.Before(limit) {
		return exp.Time
	}
	return limit
}
