// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basa-org/basa-events/internal/auth"
	"github.com/basa-org/basa-events/internal/checkout"
	"github.com/basa-org/basa-events/internal/config"
	"github.com/basa-org/basa-events/internal/database"
	"github.com/basa-org/basa-events/internal/handler"
	"github.com/basa-org/basa-events/internal/notify"
	"github.com/basa-org/basa-events/internal/payment"
	"github.com/basa-org/basa-events/internal/repository"
	"github.com/basa-org/basa-events/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if cfg.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if cfg.IsProduction() && cfg.CORSOrigin == "*" {
		slog.Warn("CORS_ORIGIN allows any origin in production")
	}

	ctx := context.Background()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("connected to postgres", "host", cfg.DB.Host, "db", cfg.DB.Name)

	// ── 2. Redis and the broker ───────────────────────────────────────────
	rdb, err := checkout.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()
	checkouts := checkout.NewStore(rdb, cfg.CheckoutTTL)

	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQPURL, notify.QueueRegistrationConfirmed, notify.QueueMemberCreated)
		if err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		slog.Warn("AMQP_URL not set, confirmation notifications are disabled")
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	payments := payment.NewInitiator(payment.NewStripeProvider(cfg.StripeSecretKey), cfg.Currency)

	eventSvc := service.NewEventService(
		repository.NewEventRepository(pool),
		repository.NewRegistrationRepository(pool),
		checkouts,
		payments,
		publisher,
	)
	memberSvc := service.NewMembershipService(repository.NewMemberRepository(pool), payments, publisher)

	router := handler.NewRouter(handler.RouterConfig{
		Events:      handler.NewEventHandler(eventSvc),
		Memberships: handler.NewMembershipHandler(memberSvc),
		Verifier:    auth.NewVerifier(cfg.JWTSecret),
		CORSOrigin:  cfg.CORSOrigin,
		Checks: map[string]handler.Check{
			"postgres": pool.Ping,
			"redis":    checkouts.Ping,
		},
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
