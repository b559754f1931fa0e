package main

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/bootstrap"
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title           PetAdoptAPI
// @version         1.0
// @description     Owner and adopter conversations about pets, with live inbox and chat updates over websocket.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the app token.
func main() {
	cfg := config.LoadAppConfig()

	slog.SetDefault(config.NewLogger(cfg.AppEnv))

	drv := config.InitDB(cfg)
	defer func() {
		if err := drv.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	var redisAdapter *adapter.RedisAdapter
	if cfg.RedisHost != "" {
		var err error
		redisAdapter, err = adapter.NewRedisAdapter(cfg)
		if err != nil {
			os.Exit(1)
		}
		defer redisAdapter.Close()
	}

	var changes feed.Feed
	if redisAdapter != nil {
		changes = feed.NewRedisFeed(redisAdapter.Client(), cfg.FeedChannel)
	} else {
		slog.Warn("Redis not configured, using in-process change feed. Live updates stay within this instance")
		changes = feed.NewLocalFeed()
	}

	repo := repository.NewRepository(drv, redisAdapter, cfg)
	storageAdapter := adapter.NewStorageAdapter(cfg, config.NewS3Client(cfg))

	app := bootstrap.Init(cfg, repo, changes, config.NewValidator(), storageAdapter)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting PetAdoptAPI", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
}
