package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync-rag/internal/models"
	"docsync-rag/internal/state"
	"docsync-rag/internal/vectorstore"
)

type fakeSource struct {
	docs []models.Document
	err  error
}

func (f *fakeSource) List(context.Context) ([]models.Document, error) {
	return f.docs, f.err
}

type fakeVecStore struct {
	deletedIDs   [][]string
	deletedWhere []string
	failIDs      bool
	failWhere    bool
}

func (f *fakeVecStore) Upsert(context.Context, vectorstore.Vector) error { return nil }
func (f *fakeVecStore) Query(context.Context, []float32, int) ([]models.QueryMatch, error) {
	return nil, nil
}

func (f *fakeVecStore) DeleteIDs(_ context.Context, ids []string) error {
	if f.failIDs {
		return errors.New("delete ids error")
	}
	f.deletedIDs = append(f.deletedIDs, ids)
	return nil
}

func (f *fakeVecStore) DeleteWhere(_ context.Context, documentID string) error {
	if f.failWhere {
		return errors.New("delete filter error")
	}
	f.deletedWhere = append(f.deletedWhere, documentID)
	return nil
}

func (f *fakeVecStore) Close() error { return nil }

// fakeIndexer returns one vector ID per chunksFor(doc) without touching
// an embedder or the store.
type fakeIndexer struct {
	chunksFor func(models.Document) int
	failed    int
	indexed   []string
}

func (f *fakeIndexer) IndexDocument(_ context.Context, doc models.Document) ([]string, int, error) {
	f.indexed = append(f.indexed, doc.ID)
	n := 1
	if f.chunksFor != nil {
		n = f.chunksFor(doc)
	}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, models.Chunk{DocumentID: doc.ID, Index: i}.VectorID())
	}
	return ids, f.failed, nil
}

func newTestEngine(t *testing.T, src *fakeSource, store *fakeVecStore, ix *fakeIndexer) (*Engine, *state.Store) {
	t.Helper()
	st := state.NewStore(filepath.Join(t.TempDir(), "processed_files.json"))
	return NewEngine(st, src, store, ix), st
}

func TestSync_AddsNewDocuments(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
		{ID: "b", Name: "b.txt", Modified: "1", Content: "beta"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{}
	engine, st := newTestEngine(t, src, store, ix)

	report, err := engine.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Zero(t, report.Updated)
	assert.Zero(t, report.Removed)
	assert.Zero(t, report.Errors)
	assert.Equal(t, []string{"a", "b"}, ix.indexed, "documents processed in listing order")

	records, err := st.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.IndexRecord{Name: "a.txt", Modified: "1", Vectors: []string{"a_0"}}, records["a"])
}

func TestSync_SecondCycleIsNoOp(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{}
	engine, _ := newTestEngine(t, src, store, ix)

	_, err := engine.Sync(context.Background())
	require.NoError(t, err)
	report, err := engine.Sync(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Added)
	assert.Zero(t, report.Updated)
	assert.Zero(t, report.Removed)
	assert.Len(t, ix.indexed, 1, "unchanged document must not be reindexed")
	assert.Empty(t, store.deletedIDs)
}

func TestSync_RemovesVanishedDocument(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
		{ID: "b", Name: "b.txt", Modified: "1", Content: "beta"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{}
	engine, st := newTestEngine(t, src, store, ix)

	_, err := engine.Sync(context.Background())
	require.NoError(t, err)

	src.docs = src.docs[:1]
	report, err := engine.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	assert.Contains(t, store.deletedWhere, "b")
	require.Len(t, store.deletedIDs, 1)
	assert.Equal(t, []string{"b_0"}, store.deletedIDs[0])

	records, err := st.Load()
	require.NoError(t, err)
	assert.NotContains(t, records, "b")
	assert.Contains(t, records, "a")
}

func TestSync_ShrinkingUpdateClearsOldVectors(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "long long"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{chunksFor: func(doc models.Document) int {
		if doc.Modified == "1" {
			return 3
		}
		return 1
	}}
	engine, st := newTestEngine(t, src, store, ix)

	_, err := engine.Sync(context.Background())
	require.NoError(t, err)

	src.docs[0].Modified = "2"
	src.docs[0].Content = "short"
	report, err := engine.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	require.Len(t, store.deletedIDs, 1)
	assert.Equal(t, []string{"a_0", "a_1", "a_2"}, store.deletedIDs[0], "every old vector cleared before reindex")

	records, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a_0"}, records["a"].Vectors)
	assert.Equal(t, "2", records["a"].Modified)
}

func TestSync_ListingFailureKeepsRecords(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{}
	engine, st := newTestEngine(t, src, store, ix)

	_, err := engine.Sync(context.Background())
	require.NoError(t, err)

	src.err = models.ErrSourceUnavailable
	report, err := engine.Sync(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Removed, "a failed listing is not a deletion")
	assert.Equal(t, 1, report.Errors)
	assert.Empty(t, store.deletedWhere)

	records, err := st.Load()
	require.NoError(t, err)
	assert.Contains(t, records, "a")
}

func TestSync_UnreadableContentKeepsRecord(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{}
	engine, st := newTestEngine(t, src, store, ix)

	_, err := engine.Sync(context.Background())
	require.NoError(t, err)

	src.docs[0].Modified = "2"
	src.docs[0].Content = ""
	report, err := engine.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Errors)
	assert.Zero(t, report.Updated)
	assert.Len(t, ix.indexed, 1, "unreadable document must not reach the indexer")
	assert.Empty(t, store.deletedIDs, "old vectors stay until content is readable again")

	records, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "1", records["a"].Modified, "record untouched so the next cycle retries")
}

func TestSync_DeleteFailureRetainsRecord(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{}
	engine, st := newTestEngine(t, src, store, ix)

	_, err := engine.Sync(context.Background())
	require.NoError(t, err)

	src.docs = nil
	store.failIDs = true
	store.failWhere = true
	report, err := engine.Sync(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Removed)
	assert.Equal(t, 1, report.Errors)

	records, err := st.Load()
	require.NoError(t, err)
	assert.Contains(t, records, "a", "record kept so deletion is retried next cycle")
}

func TestSync_IndexerFailuresCounted(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "a", Name: "a.txt", Modified: "1", Content: "alpha"},
	}}
	store := &fakeVecStore{}
	ix := &fakeIndexer{failed: 2}
	engine, _ := newTestEngine(t, src, store, ix)

	report, err := engine.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Errors)
	assert.Equal(t, 1, report.Added, "partial failure still records the surviving vectors")
}
