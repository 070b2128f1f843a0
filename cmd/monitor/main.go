// Command monitor is the optional CLI spec.md §6 names: it prints the same
// total/processed/pending/queueDepth snapshot as
// GET /prediction/admin/processing-status and exits. Grounded on the
// dispatcher's own counter-read path (internal/dispatch.Service.Status).
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"worldcup-predict/internal/dispatch"
	"worldcup-predict/internal/platform/broker"
	"worldcup-predict/internal/platform/config"
	"worldcup-predict/internal/platform/redisclient"
)

type snapshot struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Pending    int `json:"pending"`
	QueueDepth int `json:"queueDepth"`
}

func main() {
	// Diagnostics go to stderr, deliberately not through the shared
	// internal/platform/logger (which writes to stdout) — monitor's stdout
	// must carry only the JSON snapshot a caller might pipe elsewhere.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

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

	dispatchService := dispatch.New(dispatch.NewPostgresStore(db), cache, brokerClient)

	status, err := dispatchService.Status(context.Background())
	if err != nil {
		logger.Error("status read failed", "error", err)
		os.Exit(1)
	}

	out := snapshot{
		Total:      status.Total,
		Processed:  status.Processed,
		Pending:    status.Pending,
		QueueDepth: status.QueueDepth,
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		logger.Error("encode failed", "error", err)
		os.Exit(1)
	}
}
