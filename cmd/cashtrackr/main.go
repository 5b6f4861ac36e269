package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashtrackr/internal/auth"
	"cashtrackr/internal/config"
	apphttp "cashtrackr/internal/http"
	applog "cashtrackr/internal/log"
	"cashtrackr/internal/mail"
	"cashtrackr/internal/storage"
	"cashtrackr/internal/token"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	codec, err := token.NewCodec([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		logger.Error("Failed to initialize token codec", applog.FieldError, err)
		os.Exit(1)
	}

	hasher := auth.NewHasher(cfg.BcryptCost)

	// Without a broker, emails degrade to log lines so local development
	// does not require RabbitMQ.
	var dispatcher mail.Dispatcher = mail.LogDispatcher{}
	if cfg.AMQPURL != "" {
		client, err := mail.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		dispatcher = client
		logger.Info("AMQP mail dispatch enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, emails will be logged")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, codec, hasher, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting cashtrackr server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
