package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	_ "job-ledger/docs"
	"job-ledger/internal/bootstrap"
	"job-ledger/internal/config"
	"job-ledger/internal/ledger"
	"job-ledger/internal/logging"
	"job-ledger/internal/metrics"
	"job-ledger/internal/repository/postgresql"
	"job-ledger/internal/service"
	httptransport "job-ledger/internal/transport/http"
)

// @title Job Ledger API
// @version 1.0
// @description Job marketplace ledger: jobs, proposals and their lifecycle.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	m := metrics.New()
	jobSvc := service.NewJobService(store, service.WithMetrics(m))

	if cfg.InstantiateOnStart {
		did, err := jobSvc.EnsureInstantiated(ctx, cfg.LedgerAdmin, ledger.InstantiateMsg{})
		if err != nil {
			log.Fatalf("instantiate: %v", err)
		}
		if did {
			log.WithField("admin", cfg.LedgerAdmin).Info("ledger instantiated")
		}
	}

	var cmdSvc *service.CommandService
	if cfg.AsyncEnabled() {
		pool, err := bootstrap.OpenCommandRecords(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("pg: %v", err)
		}
		defer pool.Close()

		rdb, err := bootstrap.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal(err)
		}
		defer rdb.Close()

		cmdSvc = service.NewCommandService(
			postgresql.NewCommandRepository(pool),
			service.NewRedisCommandQueue(rdb, cfg.RedisQueueKey, cfg.RedisProcessingKey),
		)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.Routes(httptransport.NewHandler(jobSvc, cmdSvc, m)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("http shutdown")
		}
	}()

	log.WithFields(log.Fields{
		"addr":         cfg.HTTPAddr,
		"store":        cfg.StoreDriver,
		"async":        cmdSvc != nil,
		"postgres_dsn": config.RedactDSN(cfg.PostgresDSN),
	}).Info("api started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http: %v", err)
	}
	log.Info("api stopped")
}
