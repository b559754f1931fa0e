package main

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/repository"
	"PetAdoptAPI/internal/scheduler"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := config.LoadAppConfig()

	slog.SetDefault(config.NewLogger(cfg.AppEnv))

	cfg.DBMigrate = false

	drv := config.InitDB(cfg)
	defer func() {
		if err := drv.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	srv := scheduler.New(cfg, repository.NewRepository(drv, nil, cfg))
	if err := srv.Start(); err != nil {
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down scheduler...")
	srv.Stop()
}
