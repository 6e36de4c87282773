package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activity-points/config"
	"activity-points/database"
	"activity-points/events"
	"activity-points/fixtures"
	"activity-points/handlers"
	"activity-points/middleware"
	"activity-points/server"
	"activity-points/token"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	store, err := database.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("store connection error")
	}
	defer store.Close()
	log.Info().Str("driver", store.Driver).Msg("store ready")

	if cfg.SeedDemo {
		seed, err := fixtures.LoadSeed()
		if err != nil {
			log.Fatal().Err(err).Msg("seed fixtures error")
		}
		seeded, err := database.Seed(ctx, store, seed)
		if err != nil {
			log.Fatal().Err(err).Msg("seed error")
		}
		if seeded {
			log.Info().Int("activities", len(seed.Activities)).Msg("demo data seeded")
		}
	}

	leaderboard, err := fixtures.LoadLeaderboard()
	if err != nil {
		log.Fatal().Err(err).Msg("leaderboard fixtures error")
	}

	// Tokens
	var codec token.Codec = token.NewBase64Codec()
	if cfg.Token.Secret != "" {
		codec = token.NewJWTCodec(cfg.Token.Secret)
	} else {
		log.Warn().Msg("TOKEN_SECRET not set, issuing unsigned tokens")
	}

	// Events
	hub := events.NewHub()
	go hub.Run(ctx)
	publishers := events.Multi{hub}
	if brokers := cfg.Events.Brokers(); len(brokers) > 0 {
		kafka := events.NewKafkaPublisher(brokers, cfg.Events.KafkaTopic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
		log.Info().Strs("brokers", brokers).Str("topic", cfg.Events.KafkaTopic).Msg("publishing events to kafka")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(3 * time.Minute)
			}
		}
	}()

	env := &handlers.Env{
		Store:       store,
		Codec:       codec,
		TokenTTL:    cfg.Token.TTL,
		Events:      publishers,
		Leaderboard: leaderboard,
		Hub:         hub,
		StartedAt:   time.Now(),
	}

	srv := &http.Server{
		Handler: server.New(env, server.Options{
			AllowedOrigins: cfg.AllowedOrigins(),
			Limiter:        limiter,
		}),
		Addr:         cfg.Addr(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
