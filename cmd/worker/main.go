package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/bootstrap"
	"job-ledger/internal/config"
	"job-ledger/internal/ledger"
	"job-ledger/internal/logging"
	"job-ledger/internal/metrics"
	"job-ledger/internal/repository/postgresql"
	"job-ledger/internal/service"
	"job-ledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgDSN, err := config.MustEnv("POSTGRES_DSN")
	if err != nil {
		log.Fatal(err)
	}
	redisAddr, err := config.MustEnv("REDIS_ADDR")
	if err != nil {
		log.Fatal(err)
	}
	if cfg.StoreDriver == config.DriverMemory {
		// A private in-memory ledger would diverge from the API's.
		log.Fatal("worker needs a shared STORE_DRIVER (postgres, sqlite or redis)")
	}

	// Postgres: command records
	pool, err := bootstrap.OpenCommandRecords(ctx, pgDSN)
	if err != nil {
		log.Fatalf("pg: %v", err)
	}
	defer pool.Close()

	// Redis: queue
	rdb, err := bootstrap.NewRedisClient(ctx, redisAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer rdb.Close()

	// Ledger store
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	m := metrics.New()
	jobSvc := service.NewJobService(store, service.WithMetrics(m))
	if cfg.InstantiateOnStart {
		if _, err := jobSvc.EnsureInstantiated(ctx, cfg.LedgerAdmin, ledger.InstantiateMsg{}); err != nil {
			log.Fatalf("instantiate: %v", err)
		}
	}

	queue := service.NewRedisCommandQueue(rdb, cfg.RedisQueueKey, cfg.RedisProcessingKey)

	// Reaper: periodically returns commands from processing back to the queue
	// (if a worker crashed or restarted)
	go worker.RunReaper(ctx, queue, 30*time.Second, 100)

	processor := worker.NewProcessor(postgresql.NewCommandRepository(pool), jobSvc, m)
	poolWorkers := worker.NewPool(queue, processor, cfg.Workers)

	router := chi.NewRouter()
	router.Method(http.MethodGet, "/metrics", m.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{
		"workers":        cfg.Workers,
		"metrics_addr":   cfg.WorkerMetricsAddr,
		"store":          cfg.StoreDriver,
		"redis_addr":     redisAddr,
		"queue_key":      cfg.RedisQueueKey,
		"processing_key": cfg.RedisProcessingKey,
		"postgres_dsn":   config.RedactDSN(pgDSN),
	}).Info("[worker] config")

	poolWorkers.Run(ctx)

	log.Info("worker stopped")
}
