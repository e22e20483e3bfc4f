package models

import (
	"errors"
	"strconv"
)

// Document is a snapshot of one source document for a sync cycle.
// Modified is an opaque marker from the source; markers from the same
// source compare lexically, newer ones sorting strictly greater.
type Document struct {
	ID       string
	Name     string
	Modified string
	Content  string
}

// Chunk is one slice of a document's content, addressed by position.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
}

// VectorID returns the stable composite key for the chunk's vector.
func (c Chunk) VectorID() string {
	return c.DocumentID + "_" + strconv.Itoa(c.Index)
}

// IndexRecord is the persisted proof of which vectors a document owns.
// Vectors holds exactly the IDs that were successfully upserted for the
// recorded Modified marker.
type IndexRecord struct {
	Name     string   `json:"name"`
	Modified string   `json:"modified"`
	Vectors  []string `json:"vectors"`
}

// QueryMatch is one ranked hit from the vector store.
type QueryMatch struct {
	VectorID string
	Score    float32
	FileName string
	Preview  string
}

// PromptResponse carries the assembled answer for a user question.
type PromptResponse struct {
	Query   string
	Source  string
	Content string
}

var (
	// ErrEmbeddingFailed marks a chunk whose embedding request failed.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrSourceUnavailable marks a listing failure; the cycle treats the
	// snapshot as empty and skips the removal pass.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrStateCorrupt marks an unreadable state file. Fatal at startup.
	ErrStateCorrupt = errors.New("state file corrupt")
)
