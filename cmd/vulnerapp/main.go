package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/pmatran/vulnerapp/internal/adapter/http"
	kafkaadapter "github.com/pmatran/vulnerapp/internal/adapter/kafka"
	"github.com/pmatran/vulnerapp/internal/config"
	"github.com/pmatran/vulnerapp/internal/dataset"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/pmatran/vulnerapp/internal/observability"
	"github.com/pmatran/vulnerapp/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog, err := domain.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogFile, "error", err)
		os.Exit(1)
	}

	files := dataset.Files{
		Levels:      cfg.LevelsPath(),
		Flows:       cfg.FlowsPath(),
		Predictions: cfg.PredictionsPath(),
	}
	store := dataset.NewStore(logger, metrics, dataset.WithLiveLimit(cfg.LiveOverlayLimit))
	watcher := dataset.NewWatcher(files, store, cfg.WatchDebounce, logger, metrics)

	// Without a watcher nothing would ever retry the load, so a failure is fatal.
	if err := watcher.Reload(); err != nil {
		if !cfg.WatchData {
			logger.Error("failed to load dataset", "error", err)
			os.Exit(1)
		}
		logger.Warn("initial dataset load failed, waiting for files", "error", err)
	}

	var figures figure.Builder = figure.NewService(store, catalog, metrics)
	if cfg.FigureCacheSize > 0 {
		figures = figure.NewCached(figures, store, cfg.FigureCacheSize, metrics)
		logger.Info("figure cache enabled", "size", cfg.FigureCacheSize)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Store:         store,
		Figures:       figures,
		Catalog:       catalog,
		DefaultWindow: cfg.DefaultWindowDays,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.WatchData {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
		}()
		p := pipeline.New(reader, pipeline.NewTransformer(logger), store, logger, metrics, cfg.BatchSize)
		g.Go(func() error { return p.Run(gctx) })
		logger.Info("live ingest enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("live ingest disabled")
	}

	logger.Info("vulnerapp listening", "addr", cfg.HTTPAddr, "data_dir", cfg.DataDir)

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // deferred closes are best-effort on a fatal error
	}
	logger.Info("shutdown complete")
}
