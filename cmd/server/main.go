package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/feedpilot/backend/config"
	httpDelivery "github.com/feedpilot/backend/internal/delivery/http"
	"github.com/feedpilot/backend/internal/domain"
	"github.com/feedpilot/backend/internal/infrastructure/cache"
	"github.com/feedpilot/backend/internal/infrastructure/llm"
	"github.com/feedpilot/backend/internal/infrastructure/merchant"
	"github.com/feedpilot/backend/internal/infrastructure/metrics"
	"github.com/feedpilot/backend/internal/infrastructure/shopify"
	"github.com/feedpilot/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("Starting FeedPilot Backend v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	runStore, closeStore, err := newRunStore(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize run store")
	}
	defer closeStore()
	logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("Run store ready")

	m := metrics.New()

	optimizer, err := usecase.NewBatchOptimizerFromConfig(cfg.Optimizer, m, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid optimizer configuration")
	}
	logger.Info().
		Int("weights_total", cfg.Optimizer.Weights.Total()).
		Int("tier_high", cfg.Optimizer.Tiers.High).
		Int("tier_medium", cfg.Optimizer.Tiers.Medium).
		Int("phrases", len(cfg.Optimizer.Category.Phrases)).
		Int("keyword_groups", len(cfg.Optimizer.Category.Keywords)).
		Msg("Optimizer configured")

	opts, err := feedServiceOptions(ctx, cfg, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize feed platforms")
	}

	// Initialize usecase layer
	feedService := usecase.NewFeedService(
		optimizer,
		usecase.NewProductParser(cfg.Shopify.Currency),
		runStore,
		usecase.FeedServiceConfig{
			RunTTL:         cfg.Cache.TTL,
			MaxSuggestions: cfg.OpenAI.MaxSuggestions,
		},
		logger,
		opts...,
	)

	// Create HTTP handler and router
	handler := httpDelivery.NewHandler(feedService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger, m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "feedpilot").Logger()
}

// newRunStore returns the cache that holds optimization runs and its close function
func newRunStore(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisCache, func() { _ = redisCache.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache()
	return memoryCache, func() { _ = memoryCache.Close() }, nil
}

// feedServiceOptions wires the configured feed platforms and the title suggester.
// Shopify is the preferred catalog source; Merchant Center always receives the labels.
func feedServiceOptions(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) ([]usecase.FeedServiceOption, error) {
	var opts []usecase.FeedServiceOption

	var merchantClient *merchant.Client
	if cfg.Merchant.Enabled() {
		client, err := merchant.NewClient(ctx, merchant.Config{
			MerchantID:      cfg.Merchant.MerchantID,
			CredentialsFile: cfg.Merchant.CredentialsFile,
			Endpoint:        cfg.Merchant.Endpoint,
			BatchSize:       cfg.Merchant.BatchSize,
			ContentLanguage: cfg.Merchant.ContentLanguage,
			FeedLabel:       cfg.Merchant.FeedLabel,
		}, logger)
		if err != nil {
			return nil, err
		}
		merchantClient = client
		opts = append(opts, usecase.WithFeedPublisher(m.InstrumentPublisher(client)))
		logger.Info().Uint64("merchant_id", cfg.Merchant.MerchantID).Msg("Merchant Center publishing enabled")
	}

	switch {
	case cfg.Shopify.Enabled():
		client := shopify.NewClient(shopify.Config{
			StoreURL:          cfg.Shopify.StoreURL,
			AccessToken:       cfg.Shopify.AccessToken,
			APIVersion:        cfg.Shopify.APIVersion,
			Currency:          cfg.Shopify.Currency,
			RequestsPerSecond: cfg.RateLimit.Shopify,
		}, logger)
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
			logger.Debug().Msg("Shopify client debug mode enabled")
		}
		opts = append(opts, usecase.WithFeedProvider(client))
		logger.Info().Str("store", cfg.Shopify.StoreURL).Msg("Shopify catalog source enabled")
	case merchantClient != nil:
		opts = append(opts, usecase.WithFeedProvider(merchantClient))
		logger.Info().Msg("Merchant Center catalog source enabled")
	default:
		logger.Warn().Msg("No feed provider configured - /feeds/sync will answer 501")
	}

	if cfg.OpenAI.Enabled() {
		opts = append(opts, usecase.WithTitleSuggester(llm.NewTitleSuggester(llm.Config{
			APIKey:         cfg.OpenAI.APIKey,
			Model:          cfg.OpenAI.Model,
			BaseURL:        cfg.OpenAI.BaseURL,
			MaxTitleLength: cfg.Optimizer.Validation.MaxTitleLength,
		}, logger)))
		logger.Info().Str("model", cfg.OpenAI.Model).Str("key", maskKey(cfg.OpenAI.APIKey)).Msg("AI title suggestions enabled")
	}

	return opts, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..."
}
