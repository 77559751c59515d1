package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/adapter/repository/audit"
	"github.com/talenthub/prefhub/internal/adapter/repository/postgres"
	redisrepo "github.com/talenthub/prefhub/internal/adapter/repository/redis"
	"github.com/talenthub/prefhub/internal/pkg/config"
	"github.com/talenthub/prefhub/internal/pkg/logger"
	"github.com/talenthub/prefhub/internal/usecase"
)

const (
	consumerGroup = "preference-sync"
	upsertRetries = 3
	retryBackoff  = 500 * time.Millisecond
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting preference sync worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info("shutdown signal received, stopping sync worker...")
		cancel()
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	// Create a unique consumer name for this instance
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "syncer-default"
	}

	m := metrics.NewPreferenceMetrics()

	changelog, err := redisrepo.NewChangeLogRepository(redisClient, log, cfg.ChangeStream, consumerGroup)
	if err != nil {
		log.Error("failed to create change log repository", "error", err)
		os.Exit(1)
	}
	snapshots := postgres.NewSnapshotRepository(db, log)

	syncUseCase := usecase.NewSyncPreferencesUseCase(
		changelog, snapshots, log, m,
		consumerGroup, consumerName,
		cfg.SyncBatchSize, upsertRetries, retryBackoff,
	)

	// Export the audit journal before draining the live feed: it holds
	// mutations whose stream events may have been lost.
	if cfg.AuditDir != "" {
		journal, err := audit.NewAuditRepository(cfg.AuditDir, cfg.AuditSegmentSize, cfg.AuditMaxDiskSize, log)
		if err != nil {
			log.Error("failed to open audit journal", "error", err)
			os.Exit(1)
		}
		if err := syncUseCase.ReconcileJournal(ctx, journal); err != nil {
			log.Error("failed to reconcile audit journal", "error", err)
		}
		journal.Close()
	}

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	log.Info("sync worker started, draining change feed...", "group", consumerGroup, "consumer", consumerName)

Loop:
	for {
		select {
		case <-ticker.C:
			if _, err := syncUseCase.ProcessBatch(ctx); err != nil {
				log.Error("error processing change batch", "error", err)
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down sync loop")
			break Loop
		}
	}

	log.Info("sync worker shut down gracefully")
}
