// Command worker runs the C12 scoring consumer: it pulls jobs off the
// broker queue assembled by cmd/api's dispatcher trigger and scores each
// submission against the ground-truth partition. Grounded on the same
// cmd/server/main.go lifecycle shape as cmd/api, generalized to a
// consume-loop process instead of an HTTP server.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"worldcup-predict/internal/platform/broker"
	"worldcup-predict/internal/platform/config"
	"worldcup-predict/internal/platform/logger"
	"worldcup-predict/internal/platform/metrics"
	"worldcup-predict/internal/platform/redisclient"
	"worldcup-predict/internal/prediction"
	"worldcup-predict/internal/teams"
	"worldcup-predict/internal/worker"
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

	predictionStore := prediction.NewPostgresStore(db)
	teamsService := teams.New(teams.NewPostgresStore(db), cache)

	handler := worker.New(predictionStore, predictionStore, teamsService, cache,
		worker.WithLogger(logger),
		worker.WithMetrics(m),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Info("worker consuming", "queue", cfg.Broker.Queue)
		if err := brokerClient.Consume(ctx, handler.Handle, logger); err != nil {
			logger.Error("consume loop exited", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()
}
