package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylelens/backend/config"
	httpDelivery "github.com/stylelens/backend/internal/delivery/http"
	"github.com/stylelens/backend/internal/infrastructure/cache"
	"github.com/stylelens/backend/internal/infrastructure/store"
	"github.com/stylelens/backend/internal/infrastructure/taxonomy"
	"github.com/stylelens/backend/internal/infrastructure/vision"
	"github.com/stylelens/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("model", cfg.Vision.Model).
		Msg("starting stylelens backend")

	taxonomyRepo, err := taxonomy.NewFromFile(cfg.Extraction.TaxonomyPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Extraction.TaxonomyPath).Msg("failed to load taxonomy")
	}

	extractionStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open extraction store")
	}
	defer extractionStore.Close()

	resultCache := cache.NewMemoryCache()

	visionClient := vision.NewClient(
		cfg.Vision.APIKey,
		cfg.Vision.BaseURL,
		cfg.Vision.Model,
		cfg.Vision.RequestsPerMinute,
		logger,
	)

	extractionService := usecase.NewExtractionService(
		visionClient,
		taxonomyRepo,
		resultCache,
		extractionStore,
		usecase.ExtractionServiceConfig{
			CallTimeout:         cfg.Vision.CallTimeout,
			CacheTTL:            cfg.Extraction.CacheTTL,
			ConfidenceThreshold: cfg.Extraction.ConfidenceThreshold,
		},
		logger,
	)

	handler := httpDelivery.NewHandler(extractionService, taxonomyRepo, extractionStore, logger)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("server listening")

	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newLogger builds the process logger: console output in development, JSON
// elsewhere
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Server.Environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Str("service", "stylelens-backend").Logger()
}
