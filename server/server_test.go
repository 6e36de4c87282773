package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"activity-points/database"
	"activity-points/events"
	"activity-points/fixtures"
	"activity-points/handlers"
	"activity-points/middleware"
	"activity-points/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type testAPI struct {
	t     *testing.T
	h     http.Handler
	store *database.Store
	codec token.Codec
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := database.NewMemory()
	seed, err := fixtures.LoadSeed()
	require.NoError(t, err)
	seeded, err := database.Seed(context.Background(), store, seed)
	require.NoError(t, err)
	require.True(t, seeded)
	lb, err := fixtures.LoadLeaderboard()
	require.NoError(t, err)

	codec := token.NewBase64Codec()
	env := &handlers.Env{
		Store:       store,
		Codec:       codec,
		TokenTTL:    time.Hour,
		Events:      events.Nop{},
		Leaderboard: lb,
		StartedAt:   time.Now(),
	}
	return &testAPI{
		t:     t,
		h:     New(env, Options{AllowedOrigins: []string{"*"}}),
		store: store,
		codec: codec,
	}
}

// do sends a request; body may be a raw string or any JSON-encodable value.
func (a *testAPI) do(method, path, tok string, body interface{}) (*httptest.ResponseRecorder, gjson.Result) {
	a.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec, gjson.ParseBytes(rec.Body.Bytes())
}

func (a *testAPI) tokenFor(userID string) string {
	a.t.Helper()
	tok, err := a.codec.Issue(userID, "", time.Hour)
	require.NoError(a.t, err)
	return tok
}

// register creates a user and returns its id and token.
func (a *testAPI) register(username, email string) (string, string) {
	a.t.Helper()
	rec, body := a.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "secret",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return body.Get("user.id").String(), body.Get("token").String()
}

func TestPreflightOnAnyPath(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/activities", "/points/convert", "/no/such/thing"} {
		rec, _ := api.do(http.MethodOptions, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestBrowserPreflightHandledByCORS(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/points/add", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnmatchedRoutes(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodDelete, "/leaderboard"},
		{http.MethodPatch, "/activities/act-001"},
		{http.MethodGet, "/points/add"},
	}
	for _, tc := range cases {
		rec, body := api.do(tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Route not found", body.Get("error").String())
		assert.False(t, body.Get("success").Bool())
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/activities", "/auth/register", "/points/add"} {
		rec, body := api.do(http.MethodPost, path, "", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "Invalid request body", body.Get("error").String(), path)
	}
}

func TestResponsesCarryCrossOriginHeaders(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(http.MethodGet, "/points", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRestrictedOrigins(t *testing.T) {
	api := newTestAPI(t)
	env := &handlers.Env{Store: api.store, Codec: api.codec, Events: events.Nop{}}
	h := New(env, Options{AllowedOrigins: []string{"https://app.example.com"}})
	anyHandler := New(env, Options{AllowedOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	// a second handler from the same Env keeps its own origin setting
	req = httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	anyHandler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, env.AllowOrigin)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Get("status").String())
	assert.Equal(t, "memory", body.Get("store").String())
	assert.Positive(t, body.Get("goroutines").Int())
}

func TestRateLimitedRouter(t *testing.T) {
	api := newTestAPI(t)
	env := &handlers.Env{Store: api.store, Codec: api.codec, Events: events.Nop{}}
	h := New(env, Options{Limiter: middleware.NewRateLimiter(1, 1)})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/points/rates", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func ids(results []gjson.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.String())
	}
	return out
}
