package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pokebattle-backend/internal/config"
	"pokebattle-backend/internal/handlers"
	"pokebattle-backend/internal/repository"
	"pokebattle-backend/internal/services"
	"pokebattle-backend/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Open the flat-file store
	st, err := store.New(cfg.Storage.DataDir, repository.Collections...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data store")
	}
	log.Info().Str("data_dir", st.Dir()).Msg("Data store ready")

	// Initialize repositories
	userRepo := repository.NewUserRepository(st)
	battleRepo := repository.NewBattleRepository(st)

	// Optional push notifications
	var notifier services.Notifier
	if cfg.APNs.Enabled() {
		pushService, err := services.NewPushService(
			userRepo,
			cfg.APNs.KeyPath,
			cfg.APNs.KeyID,
			cfg.APNs.TeamID,
			cfg.APNs.Topic,
			cfg.APNs.Production,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push service")
		}
		notifier = pushService
		log.Info().Bool("production", cfg.APNs.Production).Msg("Push notifications enabled")
	}

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	friendService := services.NewFriendService(userRepo)
	battleService := services.NewBattleService(battleRepo, userRepo, notifier)
	wsHub := services.NewWSHub()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Optional S3 backups
	if cfg.Backup.Enabled() {
		backupService, err := services.NewBackupService(
			st,
			cfg.Backup.Region,
			cfg.Backup.Bucket,
			cfg.Backup.Prefix,
			cfg.Backup.AccessKey,
			cfg.Backup.SecretKey,
			cfg.Backup.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup service")
		}
		go backupService.Run(ctx, cfg.Backup.Interval)
		log.Info().
			Str("bucket", cfg.Backup.Bucket).
			Dur("interval", cfg.Backup.Interval).
			Msg("Backups enabled")
	}

	r := handlers.NewRouter(handlers.Services{
		Users:   userService,
		Friends: friendService,
		Battles: battleService,
		Hub:     wsHub,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// configPath returns CONFIG_PATH or config.yaml
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
