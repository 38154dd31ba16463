package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/config"
	"github.com/cengkuru/costknowledgehub/internal/db"
	dbRedis "github.com/cengkuru/costknowledgehub/internal/db/redis"
	"github.com/cengkuru/costknowledgehub/internal/domain"
	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/topic"
	logpkg "github.com/cengkuru/costknowledgehub/internal/logger"
	"github.com/cengkuru/costknowledgehub/internal/metrics"
	"github.com/cengkuru/costknowledgehub/internal/repository/embcache"
	resourcerepo "github.com/cengkuru/costknowledgehub/internal/repository/resource"
	searchrepo "github.com/cengkuru/costknowledgehub/internal/repository/search"
	taxonomyrepo "github.com/cengkuru/costknowledgehub/internal/repository/taxonomy"
	chiTransport "github.com/cengkuru/costknowledgehub/internal/transport/chi"
	openaiEmb "github.com/cengkuru/costknowledgehub/internal/transport/openai"
	embeddinguc "github.com/cengkuru/costknowledgehub/internal/usecase/embedding"
	healthuc "github.com/cengkuru/costknowledgehub/internal/usecase/health"
	lifecycleuc "github.com/cengkuru/costknowledgehub/internal/usecase/lifecycle"
	resourceuc "github.com/cengkuru/costknowledgehub/internal/usecase/resource"
	searchuc "github.com/cengkuru/costknowledgehub/internal/usecase/search"
	"github.com/cengkuru/costknowledgehub/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, Version: version.Version})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting knowledge hub API server",
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, cfg.Database.Readiness()); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCatalogMetrics()

	keys := resourcerepo.NewKeys(cfg.Storage.KeyPrefix)
	resourceRepo := resourcerepo.New(store, keys)
	searchRepo := searchrepo.New(store, keys)
	taxonomyRepo := taxonomyrepo.New(store, keys)

	// Nil interface (not a typed nil pointer) when no provider is configured.
	var embedder domain.Embedder
	var embeddingHealth healthuc.EmbeddingChecker
	if cfg.Embedding.Enabled() {
		base, chain := buildEmbedder(cfg, store, logger)
		embedder = chain
		embeddingHealth = base
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Float64("requests_per_second", cfg.Embedding.RequestsPerSecond),
		)
	} else {
		logger.Warn("Embedding provider not configured, resources are stored without embeddings")
	}

	topics := topic.NewCache(taxonomyRepo, cfg.Topics.RefreshInterval(), logger).
		WithRefreshObserver(metrics.TopicRefreshObserver)

	weights := request.Weights{Keyword: cfg.Search.KeywordWeight, Semantic: cfg.Search.SemanticWeight}
	searchSvc := searchuc.New(searchRepo, topics, searchuc.Options{
		CandidatePool:     cfg.Search.CandidatePool,
		SemanticScanLimit: cfg.Search.SemanticScanLimit,
		Requests:          metrics.SearchRequestsTotal,
		Duration:          metrics.SearchDuration,
		Degradations:      metrics.HybridDegradationsTotal,
	}, logger)

	// Index creation failures are logged inside; the API still starts.
	searchSvc.EnsureIndex(ctx)

	var resourceEmbedder resourceuc.Embedder
	if embedder != nil {
		resourceEmbedder = embedder
	}
	resourceSvc := resourceuc.New(resourceRepo, resourceEmbedder, metrics.ResourceClicksTotal, logger)
	lifecycleSvc := lifecycleuc.New(resourceRepo, domlc.NewGate(), metrics.LifecycleTransitionsTotal, logger)
	healthSvc := healthuc.New(store, searchRepo, embeddingHealth, logger)

	server := chiTransport.NewServer(resourceSvc, lifecycleSvc, searchSvc, taxonomyRepo, healthSvc, chiTransport.Options{
		APIKeys:         cfg.Auth.APIKeys,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		Weights:         weights,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout(),
		WriteTimeout: cfg.HTTP.WriteTimeout(),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached -> Instruction.
// It returns the base provider for health checks alongside the full chain.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) (*openaiEmb.Embedder, domain.Embedder) {
	ec := cfg.Embedding

	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:        ec.APIKey,
		BaseURL:       ec.BaseURL,
		Model:         ec.Model,
		Dimensions:    ec.Dimensions,
		MaxInputRunes: ec.MaxInputRunes,
		Provider:      ec.Provider,
		Logger:        logger,
	})

	// Rate-limited provider calls; cache hits skip the limiter.
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, ec.Provider, ec.Model, embeddinguc.NewLimiter(ec.RequestsPerSecond, ec.Burst), logger,
	)

	embedder = embcache.New(embedder, store, embcache.Options{
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		TTL:        ec.CacheTTL(),
	}, metrics.EmbeddingCacheTotal, logger)

	// Instruction prefix is outermost so the cache key includes it
	instruction := ec.DocumentInstruction
	if instruction == "" {
		instruction = domain.DefaultDocumentInstruction
	}
	return base, domain.NewInstructionEmbedder(embedder, instruction)
}
