// Command api runs the HTTP edge: auth, prediction submission/read, and the
// admin-gated dispatcher trigger. Grounded on the teacher's cmd/server/main.go
// lifecycle shape (load config, build router, serve, wait for signal,
// graceful shutdown), generalized from a single placeholder handler to this
// module's full service graph.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"worldcup-predict/internal/dispatch"
	"worldcup-predict/internal/fraud"
	"worldcup-predict/internal/httpapi"
	"worldcup-predict/internal/otp"
	"worldcup-predict/internal/platform/broker"
	"worldcup-predict/internal/platform/config"
	"worldcup-predict/internal/platform/httpserver"
	"worldcup-predict/internal/platform/logger"
	"worldcup-predict/internal/platform/metrics"
	"worldcup-predict/internal/prediction"
	"worldcup-predict/internal/session"
	"worldcup-predict/internal/teams"
	"worldcup-predict/internal/token"
	"worldcup-predict/internal/user"

	"worldcup-predict/internal/platform/redisclient"
)

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.PoolSize)

	cache, err := redisclient.New(cfg.Redis)
	if err != nil {
		logger.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	brokerClient, err := broker.Connect(cfg.Broker.URL, cfg.Broker.Queue,
		broker.WithMaxRetries(cfg.Broker.MaxRetries),
		broker.WithPrefetch(cfg.Broker.Prefetch),
	)
	if err != nil {
		logger.Error("broker connect failed", "error", err)
		os.Exit(1)
	}
	defer brokerClient.Close()

	m := metrics.New()

	userStore := user.NewPostgresStore(db, user.WithAdminChecker(func(phone string) bool {
		return cfg.AdminPhones[phone]
	}))
	adminChecker := user.NewAdminLookup(userStore)

	sessionStore := session.NewPostgresStore(db)
	sessionCache := session.NewCache(cache)
	fraudService := fraud.New(
		session.NewFraudSessionLister(sessionStore),
		cache,
		fraud.WithLogger(logger),
		fraud.WithMetrics(m),
	)
	sessionService := session.New(sessionStore, sessionCache, session.Config{
		AccessTTL:         cfg.Session.AccessTTL(),
		RefreshTTL:        cfg.Session.RefreshTTL(),
		RecentLookupLimit: cfg.Session.RecentLookupLimit,
		BulkRefreshLimit:  cfg.Session.BulkRefreshLimit,
	},
		session.WithLogger(logger),
		session.WithMetrics(m),
		session.WithFraudChecker(fraudService),
		session.WithTokenParams(token.Params{
			TokenBytes: cfg.Session.TokenLength,
			BcryptCost: cfg.Session.BcryptRounds,
			PrefixLen:  token.DefaultParams.PrefixLen,
		}),
	)

	otpService := otp.New(cache, userStore, otp.NewSandboxSender(logger), otp.Config{
		Length:            cfg.OTP.Length,
		TTL:               cfg.OTP.TTL(),
		SendCooldown:      cfg.OTP.Cooldown(),
		VerifyWindow:      cfg.OTP.VerifyWindow(),
		MaxVerifyAttempts: int64(cfg.OTP.MaxVerifyAttempts),
	},
		otp.WithLogger(logger),
		otp.WithMetrics(m),
		otp.WithFraudSignaler(fraudService),
	)

	teamsStore := teams.NewPostgresStore(db)
	teamsService := teams.New(teamsStore, cache)

	predictionStore := prediction.NewPostgresStore(db)
	predictionService := prediction.New(predictionStore)

	dispatchService := dispatch.New(
		dispatch.NewPostgresStore(db),
		cache,
		brokerClient,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(m),
	)

	authHandler := httpapi.NewAuthHandler(otpService, sessionService, cfg.SMS.Sandbox, logger)
	predictionHandler := httpapi.NewPredictionHandler(teamsService, predictionService)
	adminHandler := httpapi.NewAdminHandler(dispatchService, cfg.Prediction.AsyncEnabled)

	validator := httpapi.NewSessionValidator(sessionService)

	router := httpapi.NewRouter(
		authHandler,
		predictionHandler,
		adminHandler,
		validator,
		adminChecker,
		logger,
		cfg.Session.EnableIPValidation,
	)

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, mux)

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
