// middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"activity-points/models"
	"activity-points/token"

	"github.com/rs/zerolog/log"
)

// Auth resolves the bearer token into an Identity on the request context.
// A missing or invalid token leaves the caller anonymous; each handler decides
// what anonymous callers may do.
func Auth(codec token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := models.Anonymous()
			state := TokenAbsent

			if raw, ok := bearerToken(r); ok {
				claims, err := codec.Verify(raw)
				if err != nil {
					state = TokenInvalid
					log.Debug().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("rejected bearer token")
				} else {
					state = TokenValid
					identity = models.ResolvedIdentity(claims.UserID, claims.Email)
				}
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, tokenStateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return raw, raw != ""
}
