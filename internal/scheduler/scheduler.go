package scheduler

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/repository"
	"PetAdoptAPI/internal/scheduler/job"
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cfg  *config.AppConfig
	repo *repository.Repository
	cron *cron.Cron
}

func New(cfg *config.AppConfig, repo *repository.Repository) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		repo: repo,
		cron: cron.New(),
	}
}

func (s *Scheduler) Start() error {
	slog.Info("Starting Scheduler...")

	if err := s.registerJobs(); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Scheduler started successfully")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) registerJobs() error {
	_, err := s.cron.AddFunc(s.cfg.UnreadReconcileCron, func() {
		slog.Info("Starting Unread Reconcile Job")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := job.RunUnreadReconcile(ctx, s.repo.Chat); err != nil {
			slog.Error("Unread Reconcile Job failed", "error", err)
		} else {
			slog.Info("Unread Reconcile Job completed")
		}
	})
	if err != nil {
		slog.Error("Failed to register Unread Reconcile job", "error", err, "schedule", s.cfg.UnreadReconcileCron)
		return err
	}

	slog.Info("Registered Unread Reconcile Job", "schedule", s.cfg.UnreadReconcileCron)
	return nil
}
