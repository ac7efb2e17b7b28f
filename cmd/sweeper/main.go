package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/recruitflow/booking-engine/internal/app/bootstrap"
	"github.com/recruitflow/booking-engine/internal/bookinglink"
	"github.com/recruitflow/booking-engine/internal/candidates"
	appconfig "github.com/recruitflow/booking-engine/internal/config"
	"github.com/recruitflow/booking-engine/internal/events"
	"github.com/recruitflow/booking-engine/internal/interviews"
	"github.com/recruitflow/booking-engine/internal/jobs"
	"github.com/recruitflow/booking-engine/internal/notify"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// The sweeper owns the recurring jobs: the lapsed-interview sweep, the
// expired-link sweep and the outbox deliverer. It runs as a single instance
// alongside any number of API replicas.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-engine sweeper", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	linkStore := bookinglink.NewStore(pool)
	candStore := candidates.NewStore(pool)
	ivStore := interviews.NewStore(pool)
	outboxStore := events.NewOutboxStore(pool)

	runner := jobs.NewRunner(logger)
	lapseSweep := interviews.NewLapsedInterviewProcessor(ivStore, candStore, outboxStore, logger)
	expirySweep := bookinglink.NewExpiredLinkSweeper(linkStore, candStore, outboxStore, logger)
	if err := runner.Register(jobs.Job{Name: "lapsed_interviews", Every: cfg.LapsedSweepInterval, Run: lapseSweep.Run}); err != nil {
		logger.Error("failed to register sweep", "error", err)
		os.Exit(1)
	}
	if err := runner.Register(jobs.Job{Name: "expired_links", Every: cfg.ExpiredSweepInterval, Run: expirySweep.Run}); err != nil {
		logger.Error("failed to register sweep", "error", err)
		os.Exit(1)
	}

	var sender notify.EmailSender = notify.NewLogSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.NotifyFromEmail,
		FromName:  cfg.NotifyFromName,
	}, logger); sg != nil {
		sender = sg
	}
	notifier := notify.NewService(sender, candStore, cfg.OpsEmail, logger)
	deliverer := events.NewDeliverer(outboxStore, notifier, logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxInterval)

	go deliverer.Start(ctx)
	runner.Start(ctx)

	logger.Info("sweeper stopped")
}
