package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"

	"cms-console/internal/auth"
	"cms-console/internal/backend"
	"cms-console/internal/config"
	"cms-console/internal/db"
	"cms-console/internal/form"
	internalhttp "cms-console/internal/http"
	"cms-console/internal/jobs"
	"cms-console/internal/logging"
	"cms-console/internal/metrics"
	"cms-console/internal/session"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTPublicKey, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt verifier init failed")
	}
	if !verifier.Verifies() {
		logger.Warn().Msg("no JWT key configured, token signatures are not checked")
	}

	api := backend.New(cfg.BackendURL, &http.Client{
		Timeout:   cfg.BackendTimeout,
		Transport: m.InstrumentTransport(nil),
	})

	var backing scs.Store
	var pgStore *session.PostgresStore
	switch cfg.SessionStore {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("redis ping failed")
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("redis close error")
			}
		}()
		backing = session.NewRedisStore(redisClient)
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("db connection failed")
		}
		defer pool.Close()
		pgStore = session.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("session table migration failed")
		}
		backing = pgStore
	}
	logger.Info().Str("store", cfg.SessionStore).Msg("session store ready")

	sessions := session.NewStore(session.NewManager(session.Options{
		Lifetime:     cfg.SessionLifetime,
		IdleTimeout:  cfg.SessionIdleTimeout,
		CookieSecure: cfg.CookieSecure,
		Backing:      backing,
	}), api, verifier, logger)

	forms := form.NewRegistry(cfg.FormIdleTimeout, func(_ context.Context, owner string, uploads []form.Upload) {
		for _, u := range uploads {
			logger.Warn().Str("owner", owner).Str("field", u.Field).Str("url", u.URL).Msg("upload left unreferenced")
		}
		m.OrphanedUploads.Add(float64(len(uploads)))
	})

	jobs.StartFormSweepJob(ctx, cfg.CleanupInterval, forms, logger)
	if pgStore != nil {
		jobs.StartSessionCleanupJob(ctx, cfg.CleanupInterval, pgStore, logger)
	}

	server, err := internalhttp.NewServer(cfg, api, sessions, forms, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("server init failed")
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.BackendURL).Msg("console listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
