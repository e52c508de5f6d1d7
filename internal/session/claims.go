package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what can be read from a bearer token without verifying it.
// Signatures are the server's business; this is for display only.
type TokenClaims struct {
	Opaque    bool
	Subject   string
	ExpiresAt *time.Time
	All       map[string]any
}

// Claims decodes token as an unverified JWT. Anything that does not parse is
// reported as opaque.
func Claims(token string) TokenClaims {
	token = stripBearer(token)
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return TokenClaims{Opaque: true}
	}
	c := TokenClaims{All: map[string]any(mc)}
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}
	return c
}

// Expired reports whether the token carries an expiry before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
