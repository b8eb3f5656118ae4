package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mailer"
	httpapi "yamdb/internal/microservices/http-api"
	"yamdb/internal/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database_unavailable", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	sender, err := mailer.NewSender(cfg, logger)
	if err != nil {
		logger.Error("mailer_setup_failed", "error", err)
		os.Exit(1)
	}

	limiter, closeLimiter := authLimiter(cfg, logger)
	defer closeLimiter()

	router := httpapi.NewRouter(httpapi.NewServices(db, cfg, sender, logger), httpapi.Options{
		PageSize:    cfg.PageSize,
		AuthLimiter: limiter,
		Metrics:     cfg.PrometheusEnabled,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_http_server", "addr", srv.Addr, "mail_backend", cfg.MailBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown_failed", "error", err)
		return
	}
	logger.Info("server_stopped_gracefully")
}

// authLimiter prefers the shared Redis limiter and falls back to an
// in-process one when Redis is not configured or not reachable.
func authLimiter(cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, func()) {
	local := func() (ratelimit.Limiter, func()) {
		return ratelimit.NewLocalLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow), func() {}
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, func() {}
	}
	if cfg.RedisURL == "" {
		logger.Info("rate_limiter_local", "reason", "REDIS_URL not set")
		return local()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("rate_limiter_local", "reason", "invalid REDIS_URL", "error", err)
		return local()
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate_limiter_local", "reason", "redis unreachable", "error", err)
		_ = client.Close()
		return local()
	}

	limiter, err := ratelimit.NewRedisLimiter(client, "yamdb:ratelimit", cfg.AuthRateLimit, cfg.AuthRateWindow)
	if err != nil {
		_ = client.Close()
		return local()
	}
	logger.Info("rate_limiter_redis", "addr", opts.Addr)
	return limiter, func() { _ = client.Close() }
}
