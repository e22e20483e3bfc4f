package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docsync-rag/internal/models"
)

const defaultPineconeTimeout = 30 * time.Second

// PineconeStore is a minimal REST client to a Pinecone serverless index.
// Every request is scoped to the configured namespace.
type PineconeStore struct {
	host      string
	apiKey    string
	namespace string
	client    *http.Client
}

func NewPineconeStore(host, apiKey, namespace string) *PineconeStore {
	return &PineconeStore{
		host:      strings.TrimSuffix(host, "/"),
		apiKey:    apiKey,
		namespace: namespace,
		client:    &http.Client{Timeout: defaultPineconeTimeout},
	}
}

type pineconeVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

func (s *PineconeStore) Upsert(ctx context.Context, v Vector) error {
	body := map[string]any{
		"vectors": []pineconeVector{{
			ID:     v.ID,
			Values: v.Values,
			Metadata: map[string]string{
				models.MetaDocumentID: v.DocumentID,
				models.MetaFileName:   v.FileName,
				models.MetaChunkIndex: fmt.Sprintf("%d", v.ChunkIndex),
				models.MetaText:       v.Preview,
			},
		}},
		"namespace": s.namespace,
	}
	return s.postJSON(ctx, "/vectors/upsert", body, nil)
}

func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]models.QueryMatch, error) {
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       s.namespace,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []struct {
			ID       string            `json:"id"`
			Score    float32           `json:"score"`
			Metadata map[string]string `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.postJSON(ctx, "/query", body, &resp); err != nil {
		return nil, err
	}
	matches := make([]models.QueryMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, models.QueryMatch{
			VectorID: m.ID,
			Score:    m.Score,
			FileName: m.Metadata[models.MetaFileName],
			Preview:  m.Metadata[models.MetaText],
		})
	}
	return matches, nil
}

func (s *PineconeStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{
		"ids":       ids,
		"namespace": s.namespace,
	}
	return s.postJSON(ctx, "/vectors/delete", body, nil)
}

func (s *PineconeStore) DeleteWhere(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter":    map[string]any{models.MetaDocumentID: map[string]any{"$eq": documentID}},
		"namespace": s.namespace,
	}
	return s.postJSON(ctx, "/vectors/delete", body, nil)
}

func (s *PineconeStore) Close() error {
	return nil
}

func (s *PineconeStore) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pinecone POST %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
