// Package vectorstore abstracts the vector index the sync engine writes
// to and the retriever reads from. Backends: chromem (embedded),
// pgvector (Postgres) and pinecone (REST).
package vectorstore

import (
	"context"

	"docsync-rag/internal/models"
)

// Vector is one chunk embedding plus its retrievable metadata.
type Vector struct {
	ID         string
	Values     []float32
	DocumentID string
	FileName   string
	ChunkIndex int
	Preview    string
}

// Store is implemented by every backend. All operations are scoped to
// the namespace the backend was constructed with.
type Store interface {
	// Upsert writes or overwrites one vector.
	Upsert(ctx context.Context, v Vector) error

	// Query returns the topK nearest vectors with metadata, best first.
	Query(ctx context.Context, vector []float32, topK int) ([]models.QueryMatch, error)

	// DeleteIDs removes exactly the given vector IDs.
	DeleteIDs(ctx context.Context, ids []string) error

	// DeleteWhere removes every vector whose document_id metadata
	// matches, catching orphans DeleteIDs cannot reach.
	DeleteWhere(ctx context.Context, documentID string) error

	Close() error
}
