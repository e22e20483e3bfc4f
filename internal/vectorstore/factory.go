package vectorstore

import (
	"context"
	"fmt"

	"docsync-rag/internal/config"
)

// New builds the backend selected by config.
func New(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "chromem":
		return NewChromemStore(cfg.Path, cfg.Namespace)
	case "pgvector":
		return NewPgvectorStore(ctx, cfg.Pgvector.URL, cfg.Pgvector.Password, cfg.Namespace, cfg.Dimension, cfg.Pgvector.Debug)
	case "pinecone":
		return NewPineconeStore(cfg.Pinecone.Host, cfg.Pinecone.APIKey, cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
