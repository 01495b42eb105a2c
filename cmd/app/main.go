// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qris-payment-service/internal/config"
	pg "qris-payment-service/internal/infra/db/postgres"
	"qris-payment-service/internal/infra/logging"
	"qris-payment-service/internal/infra/metrics"
	"qris-payment-service/internal/infra/payment"
	red "qris-payment-service/internal/infra/redis"
	"qris-payment-service/internal/infra/sched"
	"qris-payment-service/internal/infra/web"
	"qris-payment-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	if cfg.Payment.Xendit.CallbackToken == "" && !cfg.Runtime.Dev {
		// A public callback route without a token check means anyone can forge
		// a payment completion.
		log.Fatalf("payment.xendit.callback_token is required outside dev mode")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis (optional; only the create rate limit depends on it) ----
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; create endpoint rate limiting disabled")
	}

	// ---- Repositories ----
	sessionRepo := pg.NewSessionRepo(pool)

	// ---- Gateway ----
	gateway := payment.NewXenditGateway(
		cfg.Payment.Xendit.SecretKey,
		cfg.Payment.Xendit.BaseURL,
		cfg.Payment.Xendit.CallbackToken,
		cfg.Payment.CallTimeout,
	)

	// ---- Use cases ----
	sessionUC := usecase.NewSessionUseCase(sessionRepo, gateway, usecase.SessionConfig{
		MinAmount:   cfg.Payment.MinAmount,
		Window:      cfg.Payment.SessionWindow,
		CallTimeout: cfg.Payment.CallTimeout,
		CallbackURL: cfg.Payment.Xendit.CallbackURL,
	}, logger)

	// ---- Workers ----
	expiry := sched.NewExpiryWorker(cfg.Worker.ExpiryInterval, sessionUC, logger)
	go func() {
		if err := expiry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("expiry worker stopped")
		}
	}()
	reconciler := sched.NewReconciler(sessionUC, sessionRepo, gateway, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileAfter, logger)
	go func() {
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("payment reconciler stopped")
		}
	}()

	// ---- HTTP ----
	server := web.NewServer(sessionUC, gateway, limiter, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ---- Shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
