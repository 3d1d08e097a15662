// Command arbord serves a disk-backed KD-tree index over HTTP.
//
// Trees are kept resident under a memory budget, evicted least recently
// used, and persisted write-through so a crash never loses an acknowledged
// insert.
//
// Usage:
//
//	arbord
//	PORT=9090 MAX_MEMORY_MB=256 arbord
//
// Configuration is read from the environment:
//
//	HOST                 bind address (default 127.0.0.1)
//	PORT                 listen port (default 8080)
//	MAX_MEMORY_MB        resident tree memory budget (default 1024)
//	BIN_DIRECTORY        local tree storage directory (default bin)
//	MAX_CONCURRENT_LOADS cap on parallel tree loads (default 4)
//	IO_LIMIT_MB_PER_SEC  storage throughput limit (default unlimited)
//	LOG_LEVEL            debug, info, warn, error (default info)
//	LOG_FORMAT           json or text (default json)
//	STORE_BACKEND        local, memory, s3, minio (default local)
//	STORE_COMPRESSION    none, zstd, lz4 (default none)
//	S3_BUCKET, S3_PREFIX                        s3 backend settings
//	MINIO_ENDPOINT, MINIO_BUCKET,
//	MINIO_ACCESS_KEY, MINIO_SECRET_KEY,
//	MINIO_USE_SSL                               minio backend settings
//
// Example requests:
//
//	curl -X POST 'localhost:8080/insert?tree_name=demo' \
//	  -H 'Content-Type: application/json' -d '{"embedding": [1.0, 2.0]}'
//
//	curl -X POST 'localhost:8080/nearesttop?tree_name=demo&n=3' \
//	  -H 'Content-Type: application/json' -d '{"embedding": [1.5, 2.5]}'
//
//	curl 'localhost:8080/status'
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/arbordb/arbor"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newSlogLogger(cfg)
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newSlogLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.logLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := newServerMetrics(reg)

	forest, err := arbor.Open(
		arbor.WithStore(store),
		arbor.WithMaxMemoryBytes(cfg.MaxMemoryMB<<20),
		arbor.WithMaxConcurrentLoads(cfg.MaxConcurrentLoads),
		arbor.WithIOLimitBytesPerSec(cfg.IOLimitMBPerSec<<20),
		arbor.WithLogger(arbor.NewLogger(logger.Handler())),
		arbor.WithMetricsCollector(metrics),
	)
	if err != nil {
		return err
	}
	defer forest.Close()
	registerForestMetrics(reg, forest)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(NewServer(forest, logger),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting arbord",
		slog.String("addr", cfg.Addr()),
		slog.String("backend", cfg.StoreBackend),
		slog.String("directory", cfg.BinDirectory),
		slog.Int64("max_memory_mb", cfg.MaxMemoryMB),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
