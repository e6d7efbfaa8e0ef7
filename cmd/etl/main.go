package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wildfire-data-etl/internal/adapter/filestore"
	"github.com/couchcryptid/wildfire-data-etl/internal/adapter/firms"
	httpadapter "github.com/couchcryptid/wildfire-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wildfire-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-data-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/wildfire-data-etl/internal/config"
	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/couchcryptid/wildfire-data-etl/internal/observability"
	"github.com/couchcryptid/wildfire-data-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if _, ok := domain.LookupRegion(cfg.Region); !ok && cfg.Region != domain.NoRegionFilter {
		logger.Warn("unknown REGION, detections will not be filtered", "region", cfg.Region)
	}

	opts := []pipeline.Option{
		pipeline.WithRegion(cfg.Region),
		pipeline.WithFetchTimeout(cfg.FetchTimeout),
		pipeline.WithRefreshInterval(cfg.RefreshInterval),
	}

	var rnd domain.RandomSource
	if cfg.SpreadSeed != nil {
		rnd = domain.NewSeededRandom(*cfg.SpreadSeed)
	}
	opts = append(opts, pipeline.WithEstimator(domain.NewEstimator(rnd)))

	// Wind enrichment is feature-flagged via WIND_ENABLED.
	if cfg.WindEnabled {
		client := openmeteo.NewClient(cfg.WindBaseURL, cfg.WindTimeout, metrics, logger,
			openmeteo.WithRateLimit(cfg.WindRateLimit))
		opts = append(opts, pipeline.WithWindProvider(openmeteo.NewCachedProvider(client, cfg.WindCacheSize, metrics)))
		logger.Info("wind enrichment enabled", "cache_size", cfg.WindCacheSize, "rate_limit", cfg.WindRateLimit)
	} else {
		logger.Info("wind enrichment disabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	var store pipeline.SnapshotStore
	if cfg.SnapshotPath != "" {
		store = filestore.NewFile(cfg.SnapshotPath)
	} else {
		store = filestore.NewMemory()
		logger.Info("snapshot persistence disabled, keeping snapshots in memory")
	}

	fetcher := firms.NewClient(logger, firms.WithMirrors(cfg.Mirrors))
	sources := []pipeline.Source{
		{Sensor: domain.SensorMODIS, URL: cfg.MODISURL},
		{Sensor: domain.SensorVIIRS, URL: cfg.VIIRSURL},
	}

	p := pipeline.New(fetcher, store, sources, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.CORSAllowedOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
