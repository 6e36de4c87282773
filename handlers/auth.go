// handlers/auth.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"activity-points/database"
	"activity-points/events"
	"activity-points/middleware"
	"activity-points/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findUserByEmail(ctx context.Context, store *database.Store, email string) (models.User, bool, error) {
	users, err := store.Users.List(ctx, database.Query{}.Match(database.Eq("email", email)).Page(1, 0))
	if err != nil || len(users) == 0 {
		return models.User{}, false, err
	}
	return users[0], true, nil
}

// userView joins a user with the totals of its ledger.
func userView(ctx context.Context, store *database.Store, u models.User) (models.UserView, error) {
	ledger, ok, err := store.Ledgers.Get(ctx, u.ID)
	if err != nil {
		return models.UserView{}, err
	}
	totals := models.PointsTotals{}
	if ok {
		totals = ledger.PointsTotals
	}
	return u.View(&totals), nil
}

func Register(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = normalizeEmail(req.Email)
		if req.Username == "" || req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username, email, and password are required")
			return
		}

		ctx := r.Context()
		_, exists, err := findUserByEmail(ctx, env.Store, req.Email)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if exists {
			respondError(w, http.StatusConflict, "User already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			internalError(w, r, err)
			return
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           uuid.NewString(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         orDefault(req.Name, req.Username),
			Settings:     models.DefaultSettings(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		// The ledger goes first: a user record only exists once its ledger does.
		ledger := models.NewLedger(user.ID)
		credit(&ledger, models.EntryEarned, models.WelcomeBonus, "Welcome bonus", now)
		if _, err := env.Store.Ledgers.Set(ctx, user.ID, ledger); err != nil {
			internalError(w, r, err)
			return
		}
		if _, err := env.Store.Users.Set(ctx, user.ID, user); err != nil {
			internalError(w, r, err)
			return
		}

		tok, err := env.Codec.Issue(user.ID, user.Email, env.TokenTTL)
		if err != nil {
			internalError(w, r, err)
			return
		}
		env.publish(ctx, events.UserRegistered, user.ID, user.Summary())

		respondSuccess(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
			"token": tok,
			"user":  user.View(&ledger.PointsTotals),
		})
	}
}

func Login(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		req.Email = normalizeEmail(req.Email)
		if req.Email == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		ctx := r.Context()
		user, ok, err := findUserByEmail(ctx, env.Store, req.Email)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !ok || user.PasswordHash == "" ||
			bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		tok, err := env.Codec.Issue(user.ID, user.Email, env.TokenTTL)
		if err != nil {
			internalError(w, r, err)
			return
		}
		view, err := userView(ctx, env.Store, user)
		if err != nil {
			internalError(w, r, err)
			return
		}

		respondSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
			"token": tok,
			"user":  view,
		})
	}
}

// Verify expects middleware.RequireIdentity in front of it.
func Verify(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := middleware.IdentityFrom(r.Context())
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"valid":   true,
			"userId":  id.UserID,
			"email":   id.Email,
		})
	}
}

// Me returns the caller's own profile.
func Me(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := middleware.IdentityFrom(ctx)
		user, ok, err := env.Store.Users.Get(ctx, id.UserID)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if !ok {
			respondErr(w, r, errUserNotFound)
			return
		}
		view, err := userView(ctx, env.Store, user)
		if err != nil {
			internalError(w, r, err)
			return
		}
		respondSuccess(w, http.StatusOK, "", map[string]interface{}{"user": view})
	}
}

// Logout keeps no server state; the client drops its token.
func Logout(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondSuccess(w, http.StatusOK, "Logged out successfully", nil)
	}
}

// ForgotPassword always reports success so callers cannot probe for accounts.
func ForgotPassword(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForgotPasswordRequest
		if err := decodeBody(r, &req); err != nil {
			badBody(w)
			return
		}
		if normalizeEmail(req.Email) == "" {
			respondError(w, http.StatusBadRequest, "Email is required")
			return
		}
		respondSuccess(w, http.StatusOK, "If an account exists for this email, a reset link has been sent", nil)
	}
}
