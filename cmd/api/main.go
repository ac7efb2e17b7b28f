package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recruitflow/booking-engine/internal/api/router"
	"github.com/recruitflow/booking-engine/internal/app/bootstrap"
	"github.com/recruitflow/booking-engine/internal/booking"
	"github.com/recruitflow/booking-engine/internal/bookinglink"
	"github.com/recruitflow/booking-engine/internal/candidates"
	appconfig "github.com/recruitflow/booking-engine/internal/config"
	"github.com/recruitflow/booking-engine/internal/events"
	httpmiddleware "github.com/recruitflow/booking-engine/internal/http/middleware"
	"github.com/recruitflow/booking-engine/internal/interviews"
	"github.com/recruitflow/booking-engine/internal/jobs"
	"github.com/recruitflow/booking-engine/internal/observability/metrics"
	"github.com/recruitflow/booking-engine/internal/ops"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-engine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis is optional at startup: booking falls back to default schedules
	// and the rate limiter fails open.
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, false)
	availStore := bootstrap.BuildAvailabilityStore(redisClient)

	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		logger.Error("invalid booking timezone", "error", err, "tz", cfg.BookingTimezone)
		os.Exit(1)
	}

	// Stores
	linkStore := bookinglink.NewStore(pool)
	candStore := candidates.NewStore(pool)
	ivStore := interviews.NewStore(pool)
	outboxStore := events.NewOutboxStore(pool)

	// Services
	reactor := interviews.NewReactor(ivStore, outboxStore, logger)
	candService := candidates.NewService(candStore, reactor, logger)
	ivService := interviews.NewService(ivStore, candStore, outboxStore, logger)
	validator := bookinglink.NewValidator(linkStore, logger)
	bookingMetrics := metrics.NewBookingMetrics(nil)
	bookingService := booking.NewService(validator, availStore, ivStore, candStore, bookingMetrics, loc, logger)

	// Sweeps are registered here so ops can trigger them on demand; the
	// sweeper binary owns the schedule.
	runner := jobs.NewRunner(logger)
	lapseSweep := interviews.NewLapsedInterviewProcessor(ivStore, candStore, outboxStore, logger).WithMetrics(bookingMetrics)
	expirySweep := bookinglink.NewExpiredLinkSweeper(linkStore, candStore, outboxStore, logger).WithMetrics(bookingMetrics)
	if err := runner.Register(jobs.Job{Name: "lapsed_interviews", Every: cfg.LapsedSweepInterval, Run: lapseSweep.Run}); err != nil {
		logger.Error("failed to register sweep", "error", err)
		os.Exit(1)
	}
	if err := runner.Register(jobs.Job{Name: "expired_links", Every: cfg.ExpiredSweepInterval, Run: expirySweep.Run}); err != nil {
		logger.Error("failed to register sweep", "error", err)
		os.Exit(1)
	}

	// Handlers
	bookingHandler := booking.NewHandler(bookingService, logger)
	opsHandler := ops.NewHandler(linkStore, availStore, candService, ivService, runner, logger)

	routerCfg := &router.Config{
		Logger:         logger,
		BookingHandler: bookingHandler,
		OpsHandler:     opsHandler,
		MetricsHandler: promhttp.Handler(),
	}
	if redisClient != nil {
		limiter := httpmiddleware.NewRedisRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
		routerCfg.RateLimit = limiter.Middleware(logger)
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
