// Package rag answers questions over the indexed documents. Provider
// failures never escape as errors: the caller always gets a printable
// response, degraded if necessary.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docsync-rag/internal/embedding"
	"docsync-rag/internal/models"
	"docsync-rag/internal/vectorstore"
)

// ChatClient produces the final answer from the retrieved context.
type ChatClient interface {
	GenerateAnswer(ctx context.Context, systemPrompt, contextText, question string) (string, error)
}

type RAG struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	chat     ChatClient
	topK     int
}

func NewRAG(embedder embedding.Embedder, store vectorstore.Store, chat ChatClient, topK int) *RAG {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &RAG{embedder: embedder, store: store, chat: chat, topK: topK}
}

// Query embeds the question, retrieves the nearest chunks and asks the
// chat model for an answer grounded in them. When retrieval yields no
// usable context the fixed not-found answer is returned without
// calling the model.
func (r *RAG) Query(ctx context.Context, question string) models.PromptResponse {
	response := models.PromptResponse{Query: question}

	queryEmbedding, err := embedding.Embed(ctx, r.embedder, question)
	if err != nil {
		log.Error().Err(err).Msg("Error obtaining query embedding")
		response.Content = "Error obtaining query embedding."
		return response
	}

	matches, err := r.store.Query(ctx, queryEmbedding, r.topK)
	if err != nil {
		log.Error().Err(err).Msg("Error querying vector index")
		response.Content = fmt.Sprintf("Error querying vector index: %v", err)
		return response
	}
	if len(matches) == 0 {
		response.Content = models.NotFoundAnswer
		return response
	}

	contextText := buildContext(matches)
	if strings.TrimSpace(contextText) == "" {
		response.Content = models.NotFoundAnswer
		return response
	}
	response.Source = buildSource(matches)

	answer, err := r.chat.GenerateAnswer(ctx, models.SystemPrompt, contextText, question)
	if err != nil {
		log.Error().Err(err).Msg("Error generating answer")
		response.Content = fmt.Sprintf("Error: %v", err)
		return response
	}
	response.Content = answer
	return response
}

// buildContext joins the retrieved previews in similarity order.
func buildContext(matches []models.QueryMatch) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Preview != "" {
			parts = append(parts, m.Preview)
		}
	}
	return strings.Join(parts, " ")
}

// buildSource lists the distinct file names behind the matches, best
// ranked first.
func buildSource(matches []models.QueryMatch) string {
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		if m.FileName == "" {
			continue
		}
		if _, ok := seen[m.FileName]; ok {
			continue
		}
		seen[m.FileName] = struct{}{}
		names = append(names, m.FileName)
	}
	return strings.Join(names, ", ")
}
