// Package server assembles the HTTP surface: routes, middleware and CORS.
package server

import (
	"net/http"

	"activity-points/handlers"
	"activity-points/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type Options struct {
	// AllowedOrigins of ["*"] (or empty) permits any origin.
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
}

func anyOrigin(origins []string) bool {
	return len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
}

// New builds the root handler. Per-route middleware runs inside the router so
// that metrics see the matched route template. env is copied, so handlers
// built from the same Env with different Options do not interfere.
func New(env *handlers.Env, opts Options) http.Handler {
	own := *env
	env = &own
	env.AllowOrigin = ""
	if anyOrigin(opts.AllowedOrigins) {
		env.AllowOrigin = "*"
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.NotFound)

	r.Use(middleware.Metrics)
	r.Use(middleware.Auth(env.Codec))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Handler)
	}

	// Preflight on any path.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(handlers.Preflight)

	r.HandleFunc("/health", handlers.Health(env)).Methods(http.MethodGet)
	r.Handle("/metrics", middleware.MetricsHandler()).Methods(http.MethodGet)
	if env.Hub != nil {
		r.HandleFunc("/ws", env.Hub.ServeWS).Methods(http.MethodGet)
	}

	activities := r.PathPrefix("/activities").Subrouter()
	activities.HandleFunc("", handlers.ListActivities(env)).Methods(http.MethodGet)
	activities.HandleFunc("", handlers.CreateActivity(env)).Methods(http.MethodPost)
	activities.HandleFunc("/my", handlers.MyActivities(env)).Methods(http.MethodGet)
	activities.HandleFunc("/{id}", handlers.GetActivity(env)).Methods(http.MethodGet)
	activities.HandleFunc("/{id}", handlers.UpdateActivity(env)).Methods(http.MethodPut)
	activities.HandleFunc("/{id}", handlers.DeleteActivity(env)).Methods(http.MethodDelete)
	activities.HandleFunc("/{id}/join", handlers.JoinActivity(env)).Methods(http.MethodPost)
	activities.HandleFunc("/{id}/leave", handlers.LeaveActivity(env)).Methods(http.MethodPost)
	activities.HandleFunc("/{id}/invite", handlers.InviteToActivity(env)).Methods(http.MethodPost)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", handlers.Register(env)).Methods(http.MethodPost)
	auth.HandleFunc("/login", handlers.Login(env)).Methods(http.MethodPost)
	auth.HandleFunc("/logout", handlers.Logout(env)).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", handlers.ForgotPassword(env)).Methods(http.MethodPost)
	auth.Handle("/verify", middleware.RequireIdentity(handlers.Verify(env))).Methods(http.MethodGet)
	auth.Handle("/me", middleware.RequireIdentity(handlers.Me(env))).Methods(http.MethodGet)

	points := r.PathPrefix("/points").Subrouter()
	points.HandleFunc("", handlers.GetPoints(env)).Methods(http.MethodGet)
	points.HandleFunc("/history", handlers.PointsHistory(env)).Methods(http.MethodGet)
	points.HandleFunc("/rates", handlers.ConversionRates(env)).Methods(http.MethodGet)
	points.HandleFunc("/add", handlers.AddPoints(env)).Methods(http.MethodPost)
	points.HandleFunc("/donate", handlers.DonatePoints(env)).Methods(http.MethodPost)
	points.HandleFunc("/transfer", handlers.TransferPoints(env)).Methods(http.MethodPost)
	points.HandleFunc("/convert", handlers.ConvertPoints(env)).Methods(http.MethodPost)

	leaderboard := r.PathPrefix("/leaderboard").Subrouter()
	leaderboard.HandleFunc("", handlers.Leaderboard(env)).Methods(http.MethodGet)
	leaderboard.HandleFunc("/world", handlers.WorldLeaderboard(env)).Methods(http.MethodGet)
	leaderboard.HandleFunc("/countries", handlers.Countries(env)).Methods(http.MethodGet)
	leaderboard.HandleFunc("/country/{code}", handlers.CountryLeaderboard(env)).Methods(http.MethodGet)
	leaderboard.HandleFunc("/user/{id}", handlers.UserRank(env)).Methods(http.MethodGet)

	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("", handlers.GetUser(env)).Methods(http.MethodGet)
	users.HandleFunc("", handlers.UpdateUser(env)).Methods(http.MethodPut)
	users.HandleFunc("/{id}", handlers.GetUser(env)).Methods(http.MethodGet)
	users.HandleFunc("/{id}", handlers.UpdateUser(env)).Methods(http.MethodPut)
	users.HandleFunc("/{id}", handlers.DeleteUser(env)).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:       opts.AllowedOrigins,
		AllowedMethods:       []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"Content-Type", "Authorization"},
		OptionsSuccessStatus: http.StatusOK,
	})

	return middleware.Logger(middleware.Recover(c.Handler(env.CrossOrigin(r))))
}
