// Package token issues and verifies the bearer tokens carried in the
// Authorization header.
package token

import (
	"errors"
	"time"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrMalformed = errors.New("token: malformed")
	ErrExpired   = errors.New("token: expired")
)

// Claims is the identity carried by a token.
type Claims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	ExpiresAt int64  `json:"exp"` // unix milliseconds
	ID        string `json:"jti,omitempty"`
}

// Expiry returns the absolute expiry instant.
func (c Claims) Expiry() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

type Codec interface {
	Issue(userID, email string, ttl time.Duration) (string, error)
	Verify(token string) (*Claims, error)
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
