package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/watchlens/backend/config"
	httpDelivery "github.com/watchlens/backend/internal/delivery/http"
	"github.com/watchlens/backend/internal/infrastructure/cache"
	"github.com/watchlens/backend/internal/infrastructure/feed"
	"github.com/watchlens/backend/internal/infrastructure/storage"
	"github.com/watchlens/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting WatchLens Backend")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Log.Level)
	var out = zerolog.New(os.Stdout)
	if cfg.Server.Environment == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return out.Level(level).With().Timestamp().Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Extraction and normalization share one vocabulary
	vocab := cfg.Vocabulary.Apply(usecase.DefaultVocabulary())

	extractor, err := usecase.NewExtractor(vocab)
	if err != nil {
		return err
	}
	normalizer, err := usecase.NewNormalizer(vocab, usecase.CurrencyConfig{
		Reporting: cfg.Currency.Reporting,
		Rates:     cfg.Currency.Rates,
	})
	if err != nil {
		return err
	}

	// Matching and pricing
	scorer, err := usecase.NewScorer(usecase.Weights{
		Brand:     cfg.Matching.Weights.Brand,
		Reference: cfg.Matching.Weights.Reference,
		Model:     cfg.Matching.Weights.Model,
		Title:     cfg.Matching.Weights.Title,
	})
	if err != nil {
		return err
	}
	matcher, err := usecase.NewMatchingService(scorer, usecase.MatchConfig{
		Threshold:          cfg.Matching.Threshold,
		Workers:            cfg.Matching.Workers,
		EnableDebugLogging: cfg.Matching.Debug,
		Logger:             &logger,
	})
	if err != nil {
		return err
	}
	aggregator, err := usecase.NewPriceAggregator(cfg.Pricing.Discount, cfg.Pricing.MinPriceFloor)
	if err != nil {
		return err
	}
	advisor, err := usecase.NewRepricingAdvisor(usecase.RepricingConfig{
		MinPriceDifference: cfg.Pricing.MinPriceDifference,
		MaxPriceIncrease:   cfg.Pricing.MaxPriceIncrease,
		MaxPriceDecrease:   cfg.Pricing.MaxPriceDecrease,
	})
	if err != nil {
		return err
	}
	reconciler, err := usecase.NewReconciler(scorer, cfg.Matching.Threshold)
	if err != nil {
		return err
	}

	logger.Info().
		Float64("threshold", cfg.Matching.Threshold).
		Float64("discount", cfg.Pricing.Discount).
		Str("currency", cfg.Currency.Reporting).
		Bool("debug", cfg.Matching.Debug).
		Msg("matching configured")

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	memoryCache.StartJanitor(ctx, cfg.Cache.CleanupInterval)

	store, err := storage.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("path", cfg.Storage.Path).Msg("catalog store opened")

	feedClient := feed.NewClient(feed.ClientConfig{
		Timeout:           cfg.Feed.Timeout,
		RequestsPerSecond: cfg.Feed.RequestsPerSecond,
		Burst:             cfg.Feed.Burst,
		UserAgent:         cfg.Feed.UserAgent,
		Logger:            &logger,
	})

	if len(cfg.Feed.AllowedHosts) == 0 {
		logger.Warn().Msg("feed.allowed_hosts is empty, ingestion from export URLs is disabled")
	}

	// Initialize usecase layer
	catalog := usecase.NewCatalogProvider(memoryCache, store, cfg.Cache.TTL, &logger)
	ingest := usecase.NewIngestService(feedClient, store, normalizer, extractor, catalog, usecase.IngestConfig{
		Concurrency:  cfg.Feed.Concurrency,
		AllowedHosts: cfg.Feed.AllowedHosts,
		Logger:       &logger,
	})
	pricing := usecase.NewPricingService(
		catalog,
		usecase.NewQueryPreprocessor(extractor, normalizer, &logger, cfg.Matching.Debug),
		matcher,
		aggregator,
		advisor,
		usecase.PricingServiceConfig{Workers: cfg.Matching.Workers, Logger: &logger},
	)

	handler := httpDelivery.NewHandler(pricing, ingest, catalog, reconciler, &logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
