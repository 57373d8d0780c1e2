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
	"strings"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/auth"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/config"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/database"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/events"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/handler"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/repository"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/service"
	"github.com/spf13/pflag"
)

func main() {
	envFile := pflag.String("env-file", ".env", "file of KEY=value pairs loaded into the environment")
	port := pflag.String("port", "", "listen port (overrides PORT)")
	store := pflag.String("store", "", "storage backend: postgres or memory (overrides BOOKING_STORE)")
	seed := pflag.String("seed", "", "YAML fixture loaded into the memory store")
	migrate := pflag.Bool("migrate", false, "create database tables before serving")
	issueToken := pflag.Int("issue-token", 0, "print a bearer token for this user id and exit")
	pflag.Parse()

	if *port != "" {
		os.Setenv("PORT", *port)
	}
	if *store != "" {
		os.Setenv("BOOKING_STORE", *store)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	tokens := auth.NewTokens(cfg.JWTSecret, 24*time.Hour)

	if *issueToken > 0 {
		token, err := tokens.Issue(*issueToken)
		if err != nil {
			logger.Error("issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, logger, tokens, *seed, *migrate); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, tokens *auth.Tokens, seed string, migrate bool) error {
	ctx := context.Background()

	// ── 1. Storage ───────────────────────────────────────────────────────
	var repos service.Repositories
	switch cfg.Store {
	case config.StoreMemory:
		mem := repository.NewMemoryStore()
		if seed != "" {
			f, err := os.Open(seed)
			if err != nil {
				return fmt.Errorf("open seed: %w", err)
			}
			err = repository.LoadFixture(f, mem)
			f.Close()
			if err != nil {
				return err
			}
		}
		repos = service.Repositories{
			Rooms:       mem.Rooms(),
			Enrollments: mem.Enrollments(),
			Tickets:     mem.Tickets(),
			Bookings:    mem.Bookings(),
		}
		logger.Info("using in-memory store", "seed", seed)
	default:
		pool, err := database.NewPool(ctx, cfg.DB, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to PostgreSQL", "host", cfg.DB.Host, "db", cfg.DB.DBName)

		if migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info("schema applied")
		}
		repos = service.Repositories{
			Rooms:       repository.NewRoomRepository(pool),
			Enrollments: repository.NewEnrollmentRepository(pool),
			Tickets:     repository.NewTicketRepository(pool),
			Bookings:    repository.NewBookingRepository(pool),
		}
	}

	// ── 2. Booking events ────────────────────────────────────────────────
	publisher := events.Discard
	if cfg.RabbitMQURL != "" {
		broker, err := events.NewBroker(cfg.RabbitMQURL, cfg.Exchange, logger)
		if err != nil {
			// Bookings still work without the broker; events are best effort.
			logger.Warn("rabbitmq unavailable, booking events disabled", "error", err)
		} else {
			defer broker.Close()
			publisher = broker
		}
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	policy := service.Policy{
		RevalidateOnUpdate: cfg.RevalidateOnUpdate,
		Ownership:          service.OwnByUser,
		SinglePerUser:      cfg.SinglePerUser,
	}
	if cfg.Ownership == config.OwnershipPath {
		policy.Ownership = service.OwnByPath
	}
	svc := service.NewBookingService(repos, policy, publisher, logger)
	bookingHandler := handler.NewBookingHandler(svc, logger)

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.NewRouter(bookingHandler, tokens, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
