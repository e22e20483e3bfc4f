// Package syncer reconciles the vector index against the live document
// listing, one cycle at a time. Removals run before upserts, and state
// is persisted after every document so a crash loses at most the
// in-flight item's progress.
package syncer

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"docsync-rag/internal/helper"
	"docsync-rag/internal/models"
	"docsync-rag/internal/source"
	"docsync-rag/internal/state"
	"docsync-rag/internal/vectorstore"
)

// DocumentIndexer is the pipeline that (re)indexes one document.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc models.Document) (vectorIDs []string, failed int, err error)
}

// Report summarises one sync cycle.
type Report struct {
	RunID   string
	Started time.Time
	Added   int
	Updated int
	Removed int
	Errors  int
}

type Engine struct {
	state   *state.Store
	source  source.Source
	store   vectorstore.Store
	indexer DocumentIndexer
}

func NewEngine(st *state.Store, src source.Source, store vectorstore.Store, indexer DocumentIndexer) *Engine {
	return &Engine{state: st, source: src, store: store, indexer: indexer}
}

// Sync runs one full reconciliation cycle. The returned error is
// reserved for state-store failures; provider failures are counted in
// the report and retried naturally on the next cycle.
func (e *Engine) Sync(ctx context.Context) (Report, error) {
	report := Report{RunID: helper.RunID(), Started: time.Now()}
	log.Info().Str("run_id", report.RunID).Time("started", report.Started).Msg("=== Update started ===")

	records, err := e.state.Load()
	if err != nil {
		return report, err
	}

	docs, err := e.source.List(ctx)
	skipRemovals := false
	if err != nil {
		// A listing failure means nothing is visible, not that
		// everything was deleted. Keep all records this cycle.
		log.Error().Err(err).Msg("Source listing failed, treating snapshot as empty")
		docs = nil
		skipRemovals = true
		report.Errors++
	}

	live := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		live[doc.ID] = struct{}{}
	}

	if !skipRemovals {
		e.removalPass(ctx, records, live, &report)
	}
	e.upsertPass(ctx, records, docs, &report)

	log.Info().
		Str("run_id", report.RunID).
		Int("added", report.Added).
		Int("updated", report.Updated).
		Int("removed", report.Removed).
		Int("errors", report.Errors).
		Msg("Sync cycle complete")
	return report, nil
}

// removalPass deletes vectors for documents that vanished from the
// source. Each confirmed removal is persisted immediately.
func (e *Engine) removalPass(ctx context.Context, records map[string]models.IndexRecord, live map[string]struct{}, report *Report) {
	for id, record := range records {
		if _, ok := live[id]; ok {
			continue
		}
		log.Info().Str("document_id", id).Str("name", record.Name).Msg("Removing vectors for deleted document")
		if !e.deleteVectors(ctx, id, record) {
			report.Errors++
			continue
		}
		delete(records, id)
		if err := e.state.Save(records); err != nil {
			log.Error().Err(err).Msg("Error saving state after removal")
			report.Errors++
			continue
		}
		report.Removed++
	}
}

// upsertPass (re)indexes new and modified documents in listing order.
func (e *Engine) upsertPass(ctx context.Context, records map[string]models.IndexRecord, docs []models.Document, report *Report) {
	for _, doc := range docs {
		record, exists := records[doc.ID]
		if exists && doc.Modified <= record.Modified {
			continue
		}

		if doc.Content == "" || !utf8.ValidString(doc.Content) {
			// Content could not be fetched or decoded. Leave any
			// prior record alone so the next cycle retries.
			log.Error().Str("document_id", doc.ID).Str("name", doc.Name).Msg("No readable content, skipping")
			report.Errors++
			continue
		}

		// Chunk identity is positional, so stale vectors must go
		// before reindexing or a shrinking document would leave
		// trailing chunks with no owner.
		if exists {
			if !e.deleteVectors(ctx, doc.ID, record) {
				log.Error().Str("document_id", doc.ID).Msg("Could not clear old vectors, deferring reindex")
				report.Errors++
				continue
			}
		}

		vectorIDs, failed, err := e.indexer.IndexDocument(ctx, doc)
		report.Errors += failed
		if err != nil {
			log.Error().Err(err).Str("document_id", doc.ID).Msg("Indexing failed")
			report.Errors++
			continue
		}

		records[doc.ID] = models.IndexRecord{
			Name:     doc.Name,
			Modified: doc.Modified,
			Vectors:  vectorIDs,
		}
		if err := e.state.Save(records); err != nil {
			log.Error().Err(err).Str("document_id", doc.ID).Msg("Error saving state after indexing")
			report.Errors++
			continue
		}
		if exists {
			report.Updated++
		} else {
			report.Added++
		}
		log.Info().Str("name", doc.Name).Int("vectors", len(vectorIDs)).Msg("Document processed and upserted")
	}
}

// deleteVectors clears a document's vectors in two tiers: the recorded
// IDs first, then a metadata-filter sweep that also catches orphans
// from earlier partial failures. True means at least one tier
// succeeded and the record may be dropped.
func (e *Engine) deleteVectors(ctx context.Context, documentID string, record models.IndexRecord) bool {
	ok := false
	if len(record.Vectors) > 0 {
		if err := e.store.DeleteIDs(ctx, record.Vectors); err != nil {
			log.Error().Err(err).Str("document_id", documentID).Msg("Vector ID deletion failed")
		} else {
			log.Debug().Str("document_id", documentID).Int("count", len(record.Vectors)).Msg("Deleted recorded vectors")
			ok = true
		}
	}
	if err := e.store.DeleteWhere(ctx, documentID); err != nil {
		log.Error().Err(err).Str("document_id", documentID).Msg("Metadata filter deletion failed")
	} else {
		ok = true
	}
	return ok
}
