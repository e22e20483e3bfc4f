// Package indexer runs the chunk → embed → upsert pipeline for one
// document. Indexing is best effort: a failed chunk is logged, counted
// and skipped, and only successfully upserted vector IDs are reported
// back so state never references a vector that is not in the index.
package indexer

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"docsync-rag/internal/chunker"
	"docsync-rag/internal/embedding"
	"docsync-rag/internal/models"
	"docsync-rag/internal/vectorstore"
)

type Indexer struct {
	embedder  embedding.Embedder
	store     vectorstore.Store
	chunkSize int
	overlap   int
	delay     time.Duration
}

// NewIndexer wires the pipeline. delay is the cooperative throttle
// between chunk upserts.
func NewIndexer(embedder embedding.Embedder, store vectorstore.Store, chunkSize, overlap int, delay time.Duration) *Indexer {
	return &Indexer{
		embedder:  embedder,
		store:     store,
		chunkSize: chunkSize,
		overlap:   overlap,
		delay:     delay,
	}
}

// IndexDocument chunks, embeds and upserts the document's content.
// It returns the IDs of vectors now present in the index and the number
// of chunks that failed. Empty content is zero chunks, not an error.
func (ix *Indexer) IndexDocument(ctx context.Context, doc models.Document) ([]string, int, error) {
	chunks, err := chunker.Split(doc.Content, ix.chunkSize, ix.overlap)
	if err != nil {
		return nil, 0, err
	}
	log.Info().Str("document", doc.Name).Int("chunks", len(chunks)).Msg("Split text into chunks")

	vectorIDs := make([]string, 0, len(chunks))
	failed := 0
	for i, text := range chunks {
		if err := ctx.Err(); err != nil {
			return vectorIDs, failed, err
		}

		chunk := models.Chunk{DocumentID: doc.ID, Index: i, Text: text}

		values, err := embedding.Embed(ctx, ix.embedder, text)
		if err != nil {
			log.Error().Err(err).Str("document", doc.Name).Int("chunk", i).Msg("Error obtaining embedding")
			failed++
			continue
		}

		vector := vectorstore.Vector{
			ID:         chunk.VectorID(),
			Values:     values,
			DocumentID: doc.ID,
			FileName:   doc.Name,
			ChunkIndex: i,
			Preview:    preview(text),
		}
		if err := ix.store.Upsert(ctx, vector); err != nil {
			log.Error().Err(err).Str("document", doc.Name).Int("chunk", i).Msg("Error upserting vector")
			failed++
			continue
		}
		vectorIDs = append(vectorIDs, vector.ID)

		if ix.delay > 0 && i < len(chunks)-1 {
			time.Sleep(ix.delay)
		}
	}
	return vectorIDs, failed, nil
}

// preview truncates to the byte budget without cutting a rune in half,
// so the stored metadata stays valid UTF-8.
func preview(text string) string {
	if len(text) <= models.PreviewBytes {
		return text
	}
	cut := models.PreviewBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
