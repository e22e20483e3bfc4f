// Package source lists the documents a sync cycle reconciles against.
package source

import (
	"context"

	"docsync-rag/internal/models"
)

// Source returns one full snapshot of the visible documents, content
// included. A document whose content could not be fetched or decoded is
// returned with empty Content; the sync engine leaves its prior state
// untouched so the next cycle retries it.
type Source interface {
	List(ctx context.Context) ([]models.Document, error)
}
