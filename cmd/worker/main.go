package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/db"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/reminder"
	"github.com/geocoder89/rentalhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "rentalhub-worker"

func main() {
	once := flag.Bool("once", false, "run a single reminder sweep and exit")
	flag.Parse()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		cctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(cctx)
	}()

	loc, err := cfg.ReminderLocation()
	if err != nil {
		log.Error("config invalid", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPoolWithRetry(ctx, cfg.DBURL, cfg.DBMaxConns, 5, log)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	prom := observability.NewProm(reg)
	stats := observability.NewSweepStats()

	notifier := notifications.NewGateway(notifications.GatewayConfig{
		SMTP: notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		},
		Timeout:       cfg.NotifierTimeout(),
		OnStateChange: func(s notifications.State) { prom.SetNotifierState(float64(s)) },
	}, log)

	sweeper := reminder.NewService(postgres.NewBookingsRepo(pool, prom), notifier, reminder.Config{
		Location:    loc,
		Concurrency: cfg.ReminderConcurrency,
	}, log).WithMetrics(prom, stats)

	runner, err := reminder.NewRunner(reminder.RunnerConfig{
		Schedule: cfg.ReminderSchedule,
		Location: loc,
	}, sweeper, pool, stats, log)
	if err != nil {
		log.Error("runner init failed", "err", err)
		os.Exit(1)
	}

	if *once {
		res, err := runner.RunOnce(ctx)
		if err != nil {
			log.Error("reminder sweep failed", "err", err)
			os.Exit(1)
		}
		log.Info("reminder sweep done", "found", res.Found, "sent", res.Sent, "failed", res.Failed)
		return
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           runner.HealthHandler(prom.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	if err := runner.Run(ctx); err != nil {
		log.Error("runner stopped with error", "err", err)
	}

	cctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(cctx)

	log.Info("worker shutdown complete")
}
