package middleware

import "net/http"

// RequireIdentity rejects callers without a valid bearer token.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch TokenStateFrom(r.Context()) {
		case TokenAbsent:
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		case TokenInvalid:
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
