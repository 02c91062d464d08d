package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cine-catalog/api"
	"cine-catalog/catalog"
	"cine-catalog/config"
	"cine-catalog/logging"
	"cine-catalog/metadata"
	"cine-catalog/metrics"
	"cine-catalog/notifier"
	"cine-catalog/scheduler"
	"cine-catalog/scraper"
	"cine-catalog/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		baseLogger := logging.Base()
		baseLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Configure(logging.Config{Level: cfg.LogLevel})
	logger := logging.WithComponent("main")
	logger.Info().Str("event", "startup").Msg("Starting Cine Catalog")

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// background refreshes stop when this is cancelled at shutdown
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	store := catalog.NewStore()

	var snapshots storage.StorageInterface
	if cfg.SnapshotEnabled {
		snapshots = storage.NewSQLiteStorage(cfg.DataPath)
		if err := snapshots.Initialize(); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize storage")
		}
		defer snapshots.Close()

		n, err := snapshots.RestoreInto(store)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to restore catalog snapshot")
		} else {
			metrics.SetCatalogSize(store.CountByKind())
			logger.Info().Str("event", "snapshot.restored").Int("items", n).Msg("catalog restored from snapshot")
		}
	}

	source, err := metadata.NewClient(metadata.Config{
		BaseURL:   cfg.Metadata.BaseURL,
		APIKey:    cfg.Metadata.APIKey,
		Country:   cfg.Metadata.Country,
		MaxPages:  cfg.Metadata.MaxPages,
		RateLimit: cfg.Metadata.RateLimit,
		Burst:     cfg.Metadata.Burst,
		Timeout:   cfg.Metadata.Timeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create metadata client")
	}

	jobCfg := scheduler.RefreshJobConfig{
		Source:     source,
		Store:      store,
		Attempts:   cfg.Refresh.Attempts,
		RetryDelay: cfg.Refresh.RetryDelay,
		Workers:    cfg.Refresh.DetailWorkers,
		Context:    rootCtx,
	}
	if snapshots != nil {
		jobCfg.Snapshots = snapshots
	}
	if cfg.Refresh.EnrichArtwork {
		jobCfg.Scraper = scraper.NewScraper(cfg.Metadata.Timeout)
	}
	if cfg.Email.Enabled() {
		emailNotifier, err := notifier.NewEmailNotifier(cfg.Email)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create email notifier")
		} else {
			jobCfg.Notifier = emailNotifier
			logger.Info().Str("recipient", cfg.Email.RecipientEmail).Msg("refresh summaries will be emailed")
		}
	} else {
		logger.Info().Msg("email notifications disabled: missing configuration")
	}
	refreshJob := scheduler.NewRefreshJob(jobCfg)

	sched := scheduler.NewScheduler()
	if err := sched.AddIntervalJob(cfg.Refresh.Interval, refreshJob); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule catalog refresh")
	}
	sched.Start()
	logger.Info().Dur("interval", cfg.Refresh.Interval).Msg("catalog refresh scheduled")

	if cfg.Refresh.AtStartup {
		go func() {
			err := sched.RunJobNow(refreshJob.Name())
			if err != nil && !errors.Is(err, scheduler.ErrRefreshInProgress) {
				logger.Warn().Err(err).Msg("initial refresh failed")
			}
		}()
	}

	server := api.NewServer(cfg.HTTPAddr, store, refreshJob)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	// no refresh may still be writing when the snapshot store closes
	cancelRoot()
	sched.Stop()
	refreshJob.Wait()

	logger.Info().Msg("Application exiting")
}
