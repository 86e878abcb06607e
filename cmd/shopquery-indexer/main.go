package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shopquery/shopquery/internal/config"
	"github.com/shopquery/shopquery/internal/knowledge"
	"github.com/shopquery/shopquery/internal/llm"
	"github.com/shopquery/shopquery/internal/observability"
	"github.com/shopquery/shopquery/internal/storage"
	s3store "github.com/shopquery/shopquery/internal/storage/s3"
)

// The indexer embeds the seed corpus and writes the knowledge-base artifact
// the API service loads at startup. Run it whenever the corpus or the
// embedding model changes.
func main() {
	cfg, err := config.LoadFromEnv("shopquery-indexer")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	documents, err := knowledge.LoadSeedDocuments(cfg.Knowledge.SeedPath)
	if err != nil {
		logger.Error("failed to load seed corpus", slog.Any("error", err))
		os.Exit(1)
	}

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

	ctx := context.Background()
	items := make([]knowledge.ContextItem, 0, len(documents))
	for _, document := range documents {
		embedding, err := aiClient.Embed(ctx, document.Text)
		if err != nil {
			logger.Error("failed to embed document", slog.String("kind", string(document.Kind)), slog.Any("error", err))
			os.Exit(1)
		}
		items = append(items, knowledge.ContextItem{
			ID:        uuid.NewString(),
			Kind:      document.Kind,
			Text:      document.Text,
			Embedding: embedding,
		})
	}
	logger.Info("embedded seed corpus", slog.Int("items", len(items)), slog.String("model", cfg.AI.EmbedModel))

	artifact, err := knowledge.EncodeItemsToParquet(items)
	if err != nil {
		logger.Error("failed to encode artifact", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Knowledge.ArtifactPath != "" {
		if err := os.WriteFile(cfg.Knowledge.ArtifactPath, artifact, 0o644); err != nil {
			logger.Error("failed to write artifact file", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("wrote artifact file", slog.String("path", cfg.Knowledge.ArtifactPath), slog.Int("bytes", len(artifact)))
	}

	if cfg.ObjectStore.Endpoint != "" {
		objectStore, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: true,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}

		key := cfg.Knowledge.ObjectKey
		if key == "" {
			key, err = storage.BuildArtifactKey(cfg.AI.EmbedModel, time.Now())
			if err != nil {
				logger.Error("failed to build artifact key", slog.Any("error", err))
				os.Exit(1)
			}
		}
		info, err := objectStore.Put(ctx, key, bytes.NewReader(artifact), int64(len(artifact)), storage.PutOptions{ContentType: "application/octet-stream"})
		if err != nil {
			logger.Error("failed to upload artifact", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("uploaded artifact", slog.String("key", info.Key), slog.Int64("bytes", info.Size))
	}
}
