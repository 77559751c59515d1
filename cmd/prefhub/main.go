package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/talenthub/prefhub/internal/adapter/api"
	"github.com/talenthub/prefhub/internal/adapter/api/handler"
	"github.com/talenthub/prefhub/internal/adapter/api/middleware"
	"github.com/talenthub/prefhub/internal/adapter/httpclient"
	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/adapter/remote"
	"github.com/talenthub/prefhub/internal/adapter/repository/audit"
	"github.com/talenthub/prefhub/internal/adapter/repository/postgres"
	redisrepo "github.com/talenthub/prefhub/internal/adapter/repository/redis"
	"github.com/talenthub/prefhub/internal/adapter/storage"
	"github.com/talenthub/prefhub/internal/domain"
	"github.com/talenthub/prefhub/internal/pkg/config"
	"github.com/talenthub/prefhub/internal/pkg/logger"
	"github.com/talenthub/prefhub/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

const changeConsumerGroup = "preference-sync"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewPreferenceMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("could not connect to redis, storage reads will degrade to defaults", "error", err)
	}

	// --- Initialize Repositories ---
	tenantRepo := postgres.NewTenantRepository(db, logger, cfg.TenantCacheTTL, m)
	userRepo := postgres.NewUserRepository(db, logger)

	changelog, err := redisrepo.NewChangeLogRepository(redisClient, logger, cfg.ChangeStream, changeConsumerGroup)
	if err != nil {
		logger.Error("failed to initialize change log repository", "error", err)
		os.Exit(1)
	}

	var auditRepo domain.AuditRepository
	if cfg.AuditDir != "" {
		repo, err := audit.NewAuditRepository(cfg.AuditDir, cfg.AuditSegmentSize, cfg.AuditMaxDiskSize, logger)
		if err != nil {
			logger.Error("failed to initialize audit journal", "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		auditRepo = repo
	}

	var remoteSource domain.SnapshotSource
	if cfg.ProfileAPIURL != "" {
		// A configured service token authenticates snapshot fetches; without
		// one, the caller's own bearer token is forwarded.
		var credential httpclient.CredentialSource = middleware.ContextCredential{}
		if cfg.ProfileAPIToken != "" {
			credential = httpclient.StaticCredential(cfg.ProfileAPIToken)
		}
		remoteSource = remote.NewClient(cfg.ProfileAPIURL, credential, logger, m)
	}

	// --- Storage Scopes ---
	store := storage.NewStore(
		storage.NewRedisBackend(redisClient),
		storage.NewMemoryBackend(),
		logger,
		m,
	)

	// --- Use Cases and Stream Broker ---
	streamBroker := handler.NewPreferenceStreamBroker(logger, m)
	preferences := usecase.NewPreferenceUseCase(
		middleware.ContextIdentityProvider{},
		tenantRepo,
		store,
		remoteSource,
		changelog,
		auditRepo,
		streamBroker,
		m,
		logger,
		cfg.StorageKeyPrefix,
	)

	// --- HTTP Server ---
	router := api.NewRouter(cfg, logger, userRepo, preferences, streamBroker)
	chain := middleware.Logging(logger)(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)(router))

	server := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     chain,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting preference server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("preference server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("preference server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
