// Package session extracts claims from the bearer credential without
// verifying its signature.
//
// This is deliberately non-authoritative: the decoder exists so the client
// tier can route and render optimistically from the token it already holds.
// The backend validates the signature and re-checks authorization on every
// call; nothing here is a security boundary.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coverdesk/internal/roles"
)

// Claims are the fields the client tier cares about. The role claim arrives
// from the backend as a number, a numeric string, or a display name depending
// on the endpoint; it is normalized to the canonical enum before callers see
// it.
type Claims struct {
	SubjectID string
	Email     string
	Role      roles.Role
	ExpiresAt time.Time
}

// Decoder parses credentials with an injectable clock for expiry checks.
type Decoder struct {
	now func() time.Time
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode splits the credential, base64-decodes the payload segment, and maps
// it into Claims. Malformed input returns nil; it never panics and never
// returns an error, pushing the unauthenticated decision to the caller.
func (d *Decoder) Decode(credential string) *Claims {
	if credential == "" {
		return nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(credential, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	claims := &Claims{Role: roles.Normalize(mc["role"])}

	if id, ok := mc["id"].(string); ok {
		claims.SubjectID = id
	} else if sub, ok := mc["sub"].(string); ok {
		claims.SubjectID = sub
	}
	if email, ok := mc["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims
}

// IsExpired reports whether the credential's expiry has passed. Credentials
// that fail to decode, or carry no expiry at all, count as expired
// (fail-closed).
func (d *Decoder) IsExpired(credential string) bool {
	claims := d.Decode(credential)
	if claims == nil || claims.ExpiresAt.IsZero() {
		return true
	}
	return !claims.ExpiresAt.After(d.now())
}
