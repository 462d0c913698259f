package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patient-registration/internal/config"
	domainPatient "patient-registration/internal/domain/patient"
	"patient-registration/internal/infrastructure/database/postgres"
	"patient-registration/internal/infrastructure/events"
	"patient-registration/internal/infrastructure/lock"
	"patient-registration/internal/infrastructure/mail"
	"patient-registration/internal/logger"
	"patient-registration/internal/routes"
	"patient-registration/internal/usecase/patient"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "patient-registration",
		Short: "Patient registration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patient registration API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the patients table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := postgres.NewDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return err
			}

			logger.Info("Migrations applied")
			return nil
		},
	}
}

// bootstrap loads configuration and initializes the global logger.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Starting application", zap.String("environment", env))
	return cfg, nil
}

func runServer() error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	publisher, closePublisher := newEventPublisher(cfg)
	defer closePublisher()

	router := routes.SetupRoutes(cfg, routes.Dependencies{
		DB:       db,
		Notifier: notifier,
		Events:   publisher,
		Locker:   locker,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// leaves room for the SMTP call in forgot-password
		WriteTimeout: cfg.SMTP.SendTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	logger.Info("Server exited properly")
	return nil
}

func newLocker(cfg *config.Config) (patient.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, using in-process locking")
		return lock.NewLocalLocker(), func() {}, nil
	}

	locker, err := lock.NewRedisLocker(cfg)
	if err != nil {
		return nil, nil, err
	}
	return locker, func() { _ = locker.Close() }, nil
}

func newNotifier(cfg *config.Config) (domainPatient.Notifier, error) {
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP not configured, OTP emails will only be logged")
		return mail.NewLogSender(cfg), nil
	}
	return mail.NewSMTPSender(cfg)
}

// newEventPublisher never fails startup; audit events are best effort.
func newEventPublisher(cfg *config.Config) (domainPatient.EventPublisher, func()) {
	if cfg.MQTT.Broker == "" {
		return events.NoopPublisher{}, func() {}
	}

	client, err := events.NewMQTTClient(cfg)
	if err != nil {
		logger.Warn("MQTT unavailable, audit events disabled", zap.Error(err))
		return events.NoopPublisher{}, func() {}
	}
	return events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix), client.Disconnect
}
