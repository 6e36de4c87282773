package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Base64Codec encodes the claims as base64 JSON with no signature. Anyone can
// forge such a token; it exists for compatibility with clients of the legacy
// API and is only selected when no signing secret is configured.
type Base64Codec struct {
	Now clock
}

func NewBase64Codec() *Base64Codec {
	return &Base64Codec{}
}

func (c *Base64Codec) Issue(userID, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:    userID,
		Email:     email,
		ExpiresAt: c.Now.now().Add(ttl).UnixMilli(),
		ID:        uuid.NewString(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

func (c *Base64Codec) Verify(token string) (*Claims, error) {
	payload, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrMalformed
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.UserID == "" {
		return nil, ErrMalformed
	}
	if claims.ExpiresAt < c.Now.now().UnixMilli() {
		return nil, ErrExpired
	}
	return &claims, nil
}
