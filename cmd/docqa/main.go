package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/extract"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
	chunksrepo "github.com/kailas-cloud/docqa/internal/repository/chunks"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	"github.com/kailas-cloud/docqa/internal/repository/uploads"
	"github.com/kailas-cloud/docqa/internal/retry"
	anthropicGen "github.com/kailas-cloud/docqa/internal/transport/anthropic"
	chiTransport "github.com/kailas-cloud/docqa/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/docqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	documentuc "github.com/kailas-cloud/docqa/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register retrieval metrics explicitly (no init())
	metrics.RegisterRAGMetrics()

	// Embedding provider, optionally behind the cache
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder interface {
		domain.Embedder
		domain.BatchEmbedder
	} = baseEmbedder
	if cfg.Embedding.CacheTTLSec > 0 {
		embedder = embcache.New(
			baseEmbedder, store, cfg.Storage.KeyPrefix,
			time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.CacheTTLSec > 0),
	)

	generator := buildGenerator(cfg, logger)

	// Chunk repository and index
	chunkRepo := chunksrepo.New(
		store, cfg.Retrieval.Collection, cfg.Storage.KeyPrefix,
		cfg.Embedding.Dimensions,
		chunksrepo.HNSWConfig{M: cfg.Retrieval.HNSWM, EFConstruct: cfg.Retrieval.HNSWEFConstruct},
	)
	if cfg.Retrieval.ResetOnStart {
		err = chunkRepo.Reset(ctx)
	} else {
		err = chunkRepo.EnsureIndex(ctx)
	}
	if err != nil {
		logger.Fatal("Failed to prepare vector index", zap.Error(err))
	}

	fileStore, err := uploads.New(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal("Failed to create upload store", zap.Error(err))
	}

	splitter, err := chunk.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}

	extractor := extract.New(logger)

	// Use case services
	docSvc := documentuc.New(extractor, splitter, embedder, chunkRepo, fileStore)

	policy := retry.New(
		cfg.LLM.MaxAttempts,
		time.Duration(cfg.LLM.BaseDelaySec)*time.Second,
		time.Duration(cfg.LLM.MaxDelaySec)*time.Second,
		domain.ErrProviderUnavailable,
	)
	answerSvc := answeruc.New(embedder, chunkRepo, generator, policy, answeruc.Options{
		DefaultTopK: cfg.Retrieval.TopK,
		MaxTopK:     cfg.Retrieval.MaxTopK,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	healthSvc := healthuc.New().
		Register("database", store.Ping).
		Register("embedding", baseEmbedder.HealthCheck)

	server := chiTransport.NewServer(docSvc, answerSvc, healthSvc, chiTransport.Config{
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		APIKeys:        cfg.Auth.APIKeys,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildGenerator selects the answer provider from config.
func buildGenerator(cfg config.Config, logger *zap.Logger) answeruc.Generator {
	switch cfg.LLM.Provider {
	case "anthropic":
		return anthropicGen.NewGenerator(&anthropicGen.GeneratorConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Logger:  logger,
		})
	default:
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Logger:  logger,
		})
	}
}
