package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"example.com/progression/internal/api"
	"example.com/progression/internal/catalog"
	"example.com/progression/internal/config"
	"example.com/progression/internal/logging"
	"example.com/progression/internal/outbox"
	"example.com/progression/internal/progress"
	httptransport "example.com/progression/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logFile := logging.Setup(logrus.StandardLogger(), logging.Params{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer logFile.Close()
	log := logrus.WithField("service", "progression-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.StorageBackend).Fatal("failed to open storage")
	}
	defer func() {
		if err := store.close(); err != nil {
			log.WithError(err).Warn("closing storage failed")
		}
	}()

	engineOpts := []progress.Option{
		progress.WithLogger(logrus.WithField("component", "progress")),
		progress.WithPersistTimeout(cfg.PersistTimeout),
	}
	if cfg.ConsecutiveStreaks {
		engineOpts = append(engineOpts, progress.WithConsecutiveStreaks())
	}
	workouts := catalog.Default()
	registry := progress.NewRegistry(workouts, store.factory, engineOpts...)

	handlerOpts := []api.Option{
		api.WithDuels(catalog.Duels),
		api.WithLogger(logrus.WithField("component", "api")),
	}
	if store.logs != nil {
		handlerOpts = append(handlerOpts, api.WithWorkoutLogs(store.logs))
	}
	mux := http.NewServeMux()
	api.NewHandler(registry, workouts, handlerOpts...).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	httpLogger := logrus.WithField("component", "http")
	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	serverCfg.ErrorLogger = httpLogger
	server := httptransport.NewServer(
		serverCfg,
		httptransport.Chain(mux,
			httptransport.RequestLogger(httpLogger),
			httptransport.Recovery(httpLogger),
			httptransport.CORS(cfg.CORSOrigin),
		),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{"address": cfg.HTTPAddress, "backend": cfg.StorageBackend}).Info("progression api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if store.pool != nil {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, outbox.WithLogger(logrus.WithField("component", "kafka")))
		defer func() {
			if err := producer.Close(); err != nil {
				log.WithError(err).Warn("closing kafka producer failed")
			}
		}()
		dispatcher := outbox.NewDispatcher(store.pool, producer,
			outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL),
			cfg.OutboxPollInterval, cfg.OutboxBatchSize,
			outbox.WithLogger(logrus.WithField("component", "outbox")),
		)
		g.Go(func() error {
			dispatcher.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		evictIdleEngines(gctx, registry, cfg.EngineEvictInterval, cfg.EngineIdleTimeout)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
		// drain queued progress writes before the storage is closed
		return registry.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("progression api stopped with error")
	}
}

// evictIdleEngines periodically closes per-user engines that have not been used within
// maxIdle, until ctx is cancelled.
func evictIdleEngines(ctx context.Context, registry *progress.Registry, interval, maxIdle time.Duration) {
	logger := logrus.WithField("component", "registry")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := registry.EvictIdle(ctx, maxIdle)
			if err != nil {
				logger.WithError(err).Warn("closing idle engines failed")
			}
			if evicted > 0 {
				logger.WithFields(logrus.Fields{"evicted": evicted, "active": registry.Len()}).Debug("idle engines evicted")
			}
		}
	}
}
