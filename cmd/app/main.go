package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "barbershop/docs"
	"barbershop/internal/booking"
	"barbershop/internal/chapa"
	"barbershop/internal/config"
	"barbershop/internal/db"
	"barbershop/internal/email"
	"barbershop/internal/events"
	"barbershop/internal/logger"
	"barbershop/internal/payment"
	"barbershop/internal/server"

	"github.com/redis/go-redis/v9"
)

// @title MB Barbershop Booking API
// @version 1.0
// @description Slot booking and Chapa payment confirmation for a barbershop.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWith(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting barbershop booking service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo   booking.Repository
		health server.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")

		repo = booking.NewPostgresRepository(database)
		health = database.PingContext
	} else {
		logger.Warn("DATABASE_URL not set, bookings are kept in memory")
		repo = booking.NewMemoryRepository()
	}

	var notifiers []payment.Notifier

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		emailService := email.New(rdb, email.Options{
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			SMTPHost: cfg.SMTPHost,
			SMTPPort: cfg.SMTPPort,
			SMTPUser: cfg.SMTPUser,
			SMTPPass: cfg.SMTPPass,
		})
		defer emailService.Close()

		go emailService.Start(ctx)
		go reportQueueLength(ctx, emailService)

		notifiers = append(notifiers, emailService)
		logger.Info("Email notifications enabled", "redis", cfg.RedisAddr)
	}

	if cfg.AMQPURL != "" {
		publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Event publishing disabled", "error", err.Error())
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
			logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
		}
	}

	if cfg.ChapaSecretKey == "" {
		logger.Warn("CHAPA_SECRET_KEY not set, payment initialization will be rejected by the gateway")
	}
	gateway := chapa.NewClient(cfg.ChapaBaseURL, cfg.ChapaSecretKey, chapa.WithVerifyTimeout(cfg.VerifyTimeout))

	bookings := booking.NewService(repo, cfg.Schedule())
	payments := payment.NewService(bookings, repo, gateway, payment.Config{
		AppURL:              cfg.AppURL,
		Currency:            cfg.Currency,
		CountryCode:         cfg.CountryCode,
		TxRefPrefix:         cfg.TxRefPrefix,
		FallbackEmailDomain: cfg.FallbackEmailDomain,
		ShopName:            cfg.ShopName,
	}, notifiers...)

	srv := server.New(cfg, server.Deps{
		Bookings: bookings,
		Payments: payments,
		Health:   health,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func reportQueueLength(ctx context.Context, emails *email.Service) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emails.QueueLength(ctx)
		}
	}
}
