package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync-rag/internal/models"
)

type recordedRequest struct {
	path   string
	apiKey string
	body   map[string]any
}

func newPineconeServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, recordedRequest{
			path:   r.URL.Path,
			apiKey: r.Header.Get("Api-Key"),
			body:   body,
		})
		w.WriteHeader(status)
		if response != "" {
			_, _ = w.Write([]byte(response))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestPineconeStore_Upsert(t *testing.T) {
	srv, requests := newPineconeServer(t, http.StatusOK, `{}`)
	store := NewPineconeStore(srv.URL, "test-key", "prod")

	err := store.Upsert(context.Background(), Vector{
		ID:         "doc1_0",
		Values:     []float32{0.1, 0.2},
		DocumentID: "doc1",
		FileName:   "doc1.txt",
		ChunkIndex: 0,
		Preview:    "chunk text",
	})
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/vectors/upsert", req.path)
	assert.Equal(t, "test-key", req.apiKey)
	assert.Equal(t, "prod", req.body["namespace"])

	vectors := req.body["vectors"].([]any)
	require.Len(t, vectors, 1)
	vec := vectors[0].(map[string]any)
	assert.Equal(t, "doc1_0", vec["id"])
	meta := vec["metadata"].(map[string]any)
	assert.Equal(t, "doc1", meta[models.MetaDocumentID])
	assert.Equal(t, "doc1.txt", meta[models.MetaFileName])
	assert.Equal(t, "0", meta[models.MetaChunkIndex])
	assert.Equal(t, "chunk text", meta[models.MetaText])
}

func TestPineconeStore_Query(t *testing.T) {
	response := `{"matches":[
		{"id":"doc1_0","score":0.93,"metadata":{"file_name":"doc1.txt","text":"first"}},
		{"id":"doc2_0","score":0.87,"metadata":{"file_name":"doc2.txt","text":"second"}}
	]}`
	srv, requests := newPineconeServer(t, http.StatusOK, response)
	store := NewPineconeStore(srv.URL, "test-key", "prod")

	matches, err := store.Query(context.Background(), []float32{0.5, 0.5}, 3)
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/query", req.path)
	assert.Equal(t, float64(3), req.body["topK"])
	assert.Equal(t, true, req.body["includeMetadata"])

	require.Len(t, matches, 2)
	assert.Equal(t, models.QueryMatch{VectorID: "doc1_0", Score: 0.93, FileName: "doc1.txt", Preview: "first"}, matches[0])
	assert.Equal(t, "doc2.txt", matches[1].FileName)
}

func TestPineconeStore_DeleteIDs(t *testing.T) {
	srv, requests := newPineconeServer(t, http.StatusOK, `{}`)
	store := NewPineconeStore(srv.URL, "test-key", "prod")

	require.NoError(t, store.DeleteIDs(context.Background(), []string{"doc1_0", "doc1_1"}))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/vectors/delete", req.path)
	assert.Equal(t, []any{"doc1_0", "doc1_1"}, req.body["ids"])
	assert.Equal(t, "prod", req.body["namespace"])
}

func TestPineconeStore_DeleteIDsEmpty(t *testing.T) {
	srv, requests := newPineconeServer(t, http.StatusOK, `{}`)
	store := NewPineconeStore(srv.URL, "test-key", "prod")

	require.NoError(t, store.DeleteIDs(context.Background(), nil))
	assert.Empty(t, *requests, "no request for an empty ID list")
}

func TestPineconeStore_DeleteWhere(t *testing.T) {
	srv, requests := newPineconeServer(t, http.StatusOK, `{}`)
	store := NewPineconeStore(srv.URL, "test-key", "prod")

	require.NoError(t, store.DeleteWhere(context.Background(), "doc1"))

	require.Len(t, *requests, 1)
	filter := (*requests)[0].body["filter"].(map[string]any)
	eq := filter[models.MetaDocumentID].(map[string]any)
	assert.Equal(t, "doc1", eq["$eq"])
}

func TestPineconeStore_ErrorStatus(t *testing.T) {
	srv, _ := newPineconeServer(t, http.StatusUnauthorized, `{"message":"bad api key"}`)
	store := NewPineconeStore(srv.URL, "wrong-key", "prod")

	err := store.Upsert(context.Background(), Vector{ID: "x", Values: []float32{0.1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad api key")
}

func TestPineconeStore_TrailingSlashHost(t *testing.T) {
	srv, requests := newPineconeServer(t, http.StatusOK, `{}`)
	store := NewPineconeStore(srv.URL+"/", "test-key", "prod")

	require.NoError(t, store.DeleteWhere(context.Background(), "doc1"))
	require.Len(t, *requests, 1)
	assert.Equal(t, "/vectors/delete", (*requests)[0].path)
}
