package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/config"
	"github.com/SachinRathod0101/Time-left-backend/internal/database"
	"github.com/SachinRathod0101/Time-left-backend/internal/handlers"
	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/middleware"
	"github.com/SachinRathod0101/Time-left-backend/internal/routes"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), config.Load())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.IsProduction())
	slog.SetDefault(logger)

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	mongoClient, db, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer database.DisconnectMongo(mongoClient)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	pg, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer pg.Close()
	if err := database.MigratePostgres(cfg.PostgresURI); err != nil {
		return fmt.Errorf("migrate PostgreSQL: %w", err)
	}

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	defer database.DisconnectRedis(rdb)

	var uploader services.ImageUploader
	if u, err := services.NewImageUploader(cfg); err != nil {
		log.Printf("Warning: image store unavailable: %v", err)
		log.Println("Image uploads will fail until it is configured")
	} else {
		if m, ok := u.(*services.MinioUploader); ok {
			if err := m.EnsureBucket(ctx); err != nil {
				log.Printf("Warning: failed to ensure MinIO bucket: %v", err)
			}
		}
		uploader = u
		log.Printf("✅ Image store ready (%s)", cfg.ImageStore)
	}

	var mailer services.Mailer = services.LogMailer{}
	if cfg.MailConfigured() {
		mailer = services.NewSMTPMailer(cfg.SMTP)
		log.Println("✅ SMTP mailer configured")
	} else {
		log.Println("Warning: EMAIL_HOST not set. Approval emails will only be logged")
	}

	var gateway services.OrderGateway
	if g, err := services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpaySecret); err != nil {
		log.Printf("Warning: %v. Payment orders will not be available", err)
	} else {
		gateway = g
	}

	users := store.NewUserRepository(db)
	events := store.NewEventRepository(db)
	icebreakers := store.NewIcebreakerRepository(db)
	payments := store.NewPaymentRepository(pg)

	feed := services.NewEventFeed(rdb)
	feed.Start(ctx)
	dispatcher := services.NewDispatcher(mailer, cfg.ExternalCallTimeout)

	userSvc := services.NewUserService(users, services.NewTokenManager(cfg.JWTSecret, cfg.JWTExpire),
		services.NewRedisRevocationList(rdb), uploader, cfg.ExternalCallTimeout)
	eventSvc := services.NewEventService(events, users, icebreakers, uploader, dispatcher, feed,
		services.EventServiceConfig{FrontendURL: cfg.FrontendURL, ExternalCallTimeout: cfg.ExternalCallTimeout})
	icebreakerSvc := services.NewIcebreakerService(
		services.NewCachedIcebreakers(icebreakers, services.NewCache(rdb, services.DefaultCacheTTL)))
	paymentSvc := services.NewPaymentService(gateway, payments, cfg.OrderAmount, cfg.OrderCurrency, cfg.ExternalCallTimeout)

	router := routes.NewRouter(cfg, logger, routes.Handlers{
		Auth:        userSvc,
		Users:       handlers.NewUserHandler(userSvc),
		Events:      handlers.NewEventHandler(eventSvc),
		Icebreakers: handlers.NewIcebreakerHandler(icebreakerSvc),
		Payments:    handlers.NewPaymentHandler(paymentSvc),
		Feed:        handlers.NewEventFeedHandler(userSvc, eventSvc, feed, cfg.AllowedOrigins),
		RateLimit:   middleware.NewRateLimiter(rdb).Handler,
	})
	if cfg.IsProduction() {
		log.Println("✅ Production security enabled (security headers, host check, login rate limiting)")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 TimeLeft backend running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: graceful shutdown failed: %v", err)
	}
	// Approval emails already accepted must finish before the process exits.
	dispatcher.Wait()
	log.Println("Server stopped")
	return nil
}
