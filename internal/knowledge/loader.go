package knowledge

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopquery/shopquery/internal/config"
	"github.com/shopquery/shopquery/internal/storage"
)

// LoadArtifact reads the knowledge-base artifact, preferring the object store
// when an object key is configured and falling back to the local path.
func LoadArtifact(ctx context.Context, cfg config.KnowledgeConfig, store storage.ObjectStore) ([]ContextItem, error) {
	data, err := readArtifact(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	items, err := DecodeItemsFromParquet(data)
	if err != nil {
		return nil, fmt.Errorf("decode knowledge artifact: %w", err)
	}
	return items, nil
}

func readArtifact(ctx context.Context, cfg config.KnowledgeConfig, store storage.ObjectStore) ([]byte, error) {
	if cfg.ObjectKey != "" && store != nil {
		reader, err := store.Get(ctx, cfg.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("get knowledge artifact %q: %w", cfg.ObjectKey, err)
		}
		defer func() { _ = reader.Close() }()
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("read knowledge artifact %q: %w", cfg.ObjectKey, err)
		}
		return data, nil
	}

	if cfg.ArtifactPath == "" {
		return nil, fmt.Errorf("no knowledge artifact configured")
	}
	data, err := os.ReadFile(cfg.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("read knowledge artifact %q: %w", cfg.ArtifactPath, err)
	}
	return data, nil
}
