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

	"github.com/shopquery/shopquery/internal/api"
	"github.com/shopquery/shopquery/internal/config"
	"github.com/shopquery/shopquery/internal/executor"
	"github.com/shopquery/shopquery/internal/knowledge"
	"github.com/shopquery/shopquery/internal/llm"
	"github.com/shopquery/shopquery/internal/observability"
	"github.com/shopquery/shopquery/internal/pipeline"
	"github.com/shopquery/shopquery/internal/retrieval"
	"github.com/shopquery/shopquery/internal/schema"
	"github.com/shopquery/shopquery/internal/shaper"
	"github.com/shopquery/shopquery/internal/sqlgen"
	"github.com/shopquery/shopquery/internal/storage"
	s3store "github.com/shopquery/shopquery/internal/storage/s3"
	"github.com/shopquery/shopquery/internal/warehouse"
)

func main() {
	cfg, err := config.LoadFromEnv("shopquery-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx := context.Background()

	db, err := warehouse.Open(ctx, cfg.Warehouse)
	if err != nil {
		logger.Error("failed to open warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	catalog, err := schema.Load(ctx, db, warehouse.SchemaName(cfg.Warehouse.Engine))
	if err != nil {
		logger.Error("failed to introspect warehouse schema", slog.Any("error", err))
		os.Exit(1)
	}

	var objectStore storage.ObjectStore
	if cfg.ObjectStore.Endpoint != "" {
		objectStore, err = s3store.New(ctx, s3store.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			Bucket:          cfg.ObjectStore.Bucket,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			UseSSL:          cfg.ObjectStore.UseSSL,
			Prefix:          cfg.ObjectStore.Prefix,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
	}

	items, err := knowledge.LoadArtifact(ctx, cfg.Knowledge, objectStore)
	if err != nil {
		logger.Error("failed to load knowledge artifact", slog.Any("error", err))
		os.Exit(1)
	}
	store := knowledge.NewStore()
	if err := store.Ingest(items); err != nil {
		logger.Error("failed to ingest knowledge items", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("knowledge base loaded", slog.Int("items", store.Len()))

	aiClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:    cfg.AI.BaseURL,
		APIKey:     cfg.AI.APIKey,
		ChatModel:  cfg.AI.ChatModel,
		EmbedModel: cfg.AI.EmbedModel,
		Timeout:    cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize ai client", slog.Any("error", err))
		os.Exit(1)
	}

	retriever, err := retrieval.NewRetriever(aiClient, store, cfg.Knowledge.TopK)
	if err != nil {
		logger.Error("failed to build retriever", slog.Any("error", err))
		os.Exit(1)
	}
	generator, err := sqlgen.NewGenerator(aiClient, catalog, cfg.AI.Temperature)
	if err != nil {
		logger.Error("failed to build sql generator", slog.Any("error", err))
		os.Exit(1)
	}
	runner, err := executor.New(db, catalog, cfg.Executor)
	if err != nil {
		logger.Error("failed to build executor", slog.Any("error", err))
		os.Exit(1)
	}
	answerPipeline, err := pipeline.New(retriever, generator, runner, shaper.New(cfg.Shaper.MaxBarCategories), catalog.Summary(), cfg.Knowledge.CharBudget, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:   logger,
		Pipeline: answerPipeline,
		Browser:  runner,
		Catalog:  catalog,
		Readiness: api.CombineReadinessChecks(
			api.CheckWarehouseConfig(cfg),
			api.CheckKnowledgeConfig(cfg),
			func(ctx context.Context) error { return db.PingContext(ctx) },
		),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-runCtx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
