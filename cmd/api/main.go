package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/rentalhub/internal/account"
	"github.com/geocoder89/rentalhub/internal/admission"
	"github.com/geocoder89/rentalhub/internal/auth"
	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/db"
	httpx "github.com/geocoder89/rentalhub/internal/http"
	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/redisclient"
	"github.com/geocoder89/rentalhub/internal/reminder"
	"github.com/geocoder89/rentalhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "rentalhub-api"

func main() {
	// Load the config set up
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

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}
	if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// rate limiter window store: shared Redis when configured
	var store middlewares.WindowStore = middlewares.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pctx)
		cancel()
		if err != nil {
			log.Error("redis ping failed", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		store = rdb
	}

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

	// repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	favoritesRepo := postgres.NewFavoritesRepo(pool, prom)
	providersRepo := postgres.NewProvidersRepo(pool, prom)
	bookingsRepo := postgres.NewBookingsRepo(pool, prom)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.ResetTokenTTL())

	// services
	accounts := account.NewService(usersRepo, favoritesRepo, providersRepo, tokens, notifier, account.Config{
		AllowAdminSignup: cfg.AllowAdminSignup,
		PublicBaseURL:    cfg.PublicBaseURL,
	}, log)
	bookings := admission.NewService(bookingsRepo, providersRepo, log, prom)

	sweepStats := observability.NewSweepStats()
	sweeper := reminder.NewService(bookingsRepo, notifier, reminder.Config{
		Location:    loc,
		Concurrency: cfg.ReminderConcurrency,
	}, log).WithMetrics(prom, sweepStats)

	router := httpx.NewRouter(httpx.Deps{
		Log:          log,
		Prom:         prom,
		ServiceName:  serviceName,
		Production:   cfg.IsProduction(),
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Auth:         middlewares.NewAuthMiddleware(tokens, "token"),
		RateLimiter:  middlewares.NewRateLimiter(store, cfg.RateLimit, cfg.RateLimitWindow(), prom, log),
		Health:       handlers.NewHealthHandler(pool.Ping),
		Accounts: handlers.NewAuthHandler(accounts, handlers.CookieConfig{
			Name:   "token",
			Secure: cfg.IsProduction(),
			TTL:    cfg.AccessTokenTTL(),
		}),
		Favorites: handlers.NewFavoritesHandler(accounts),
		Providers: handlers.NewProvidersHandler(providersRepo),
		Bookings:  handlers.NewBookingsHandler(bookings),
		Reminders: handlers.NewAdminRemindersHandler(sweeper, sweepStats, 2*time.Minute),
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server shutting down")
	case err := <-errCh:
		log.Error("server failed", "err", err)
	}

	cctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(cctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}
	log.Info("shutdown complete")
}
