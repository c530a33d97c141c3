package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenExpiry reads the `exp` claim of a JWT bearer token without verifying its signature.
// It is for display only; ok is false for opaque tokens or tokens without an expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0), true
}
