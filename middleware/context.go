package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"activity-points/models"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	tokenStateKey
	requestIDKey
)

// TokenState records what the Authorization header contained.
type TokenState int

const (
	TokenAbsent TokenState = iota
	TokenInvalid
	TokenValid
)

// IdentityFrom returns the caller resolved by Auth, or Anonymous.
func IdentityFrom(ctx context.Context) models.Identity {
	if id, ok := ctx.Value(identityKey).(models.Identity); ok {
		return id
	}
	return models.Anonymous()
}

func TokenStateFrom(ctx context.Context) TokenState {
	if s, ok := ctx.Value(tokenStateKey).(TokenState); ok {
		return s
	}
	return TokenAbsent
}

// WithIdentity attaches an identity to ctx.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	state := TokenAbsent
	if id.Resolved {
		state = TokenValid
	}
	return context.WithValue(ctx, tokenStateKey, state)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
