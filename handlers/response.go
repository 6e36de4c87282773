// handlers/response.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"activity-points/database"
	"activity-points/events"
	"activity-points/fixtures"
	"activity-points/token"

	"github.com/rs/zerolog/log"
)

// Env carries the dependencies shared by every handler.
type Env struct {
	Store       *database.Store
	Codec       token.Codec
	TokenTTL    time.Duration
	Events      events.Publisher
	Leaderboard *fixtures.Leaderboard
	Hub         *events.Hub
	StartedAt   time.Time
	// AllowOrigin is sent on every response. Leave it empty when CORS is
	// restricted to specific origins and the CORS middleware decides alone.
	AllowOrigin string
}

// CrossOrigin sets the cross-origin headers every response carries.
func (env *Env) CrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if env.AllowOrigin != "" {
			h.Set("Access-Control-Allow-Origin", env.AllowOrigin)
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// respondSuccess writes {success: true, message, ...data}.
func respondSuccess(w http.ResponseWriter, status int, message string, data map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	respondJSON(w, status, body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// internalError logs the cause and answers with the generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

var errBadBody = errors.New("invalid request body")

// decodeBody parses a JSON body into dst. An empty body decodes as {}.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errBadBody
}

// badBody answers a body that is not valid JSON.
func badBody(w http.ResponseWriter) {
	respondError(w, http.StatusBadRequest, "Invalid request body")
}

// publish sends a domain event; delivery problems never fail the request.
func (env *Env) publish(ctx context.Context, typ, key string, data interface{}) {
	if env.Events == nil {
		return
	}
	if err := env.Events.Publish(ctx, events.New(typ, key, data)); err != nil {
		log.Warn().Err(err).Str("event", typ).Msg("publish event")
	}
}

// Preflight answers OPTIONS on any path.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// NotFound answers any unmatched method and path.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Route not found")
}
