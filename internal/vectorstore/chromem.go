package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"docsync-rag/internal/models"
)

const compress = false

// ChromemStore is the embedded backend. The namespace maps to a chromem
// collection; vectors persist under the configured directory.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

func NewChromemStore(path, namespace string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	// Embeddings are always supplied by the caller, so no embedding
	// function is registered.
	collection, err := db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, v Vector) error {
	doc := chromem.Document{
		ID:        v.ID,
		Content:   v.Preview,
		Embedding: v.Values,
		Metadata: map[string]string{
			models.MetaDocumentID: v.DocumentID,
			models.MetaFileName:   v.FileName,
			models.MetaChunkIndex: strconv.Itoa(v.ChunkIndex),
			models.MetaText:       v.Preview,
		},
	}
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, topK int) ([]models.QueryMatch, error) {
	// chromem rejects nResults larger than the collection.
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	matches := make([]models.QueryMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, models.QueryMatch{
			VectorID: r.ID,
			Score:    r.Similarity,
			FileName: r.Metadata[models.MetaFileName],
			Preview:  r.Metadata[models.MetaText],
		})
	}
	return matches, nil
}

func (s *ChromemStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete by ids: %w", err)
	}
	return nil
}

func (s *ChromemStore) DeleteWhere(ctx context.Context, documentID string) error {
	where := map[string]string{models.MetaDocumentID: documentID}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete by document: %w", err)
	}
	return nil
}

func (s *ChromemStore) Close() error {
	return nil
}
