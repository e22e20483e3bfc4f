// Package llmservice calls the chat model that turns retrieved context
// into an answer.
package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docsync-rag/internal/config"
)

// Client wraps one configured chat model endpoint.
type Client struct {
	llm llms.Model
}

func NewClient(llmConfig *config.LLMConfig) (*Client, error) {
	llm, err := newChatModel(llmConfig)
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm}, nil
}

// GenerateAnswer sends the system instruction, retrieved context and the
// user question to the chat model and returns its reply.
func (c *Client) GenerateAnswer(ctx context.Context, systemPrompt, contextText, question string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf("%s\n\nContext: %s", systemPrompt, contextText)}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: question}},
		},
	}

	res, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("chat model returned no choices")
	}
	return res.Choices[0].Content, nil
}

func newChatModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	switch llmConfig.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		return openai.New(opts...)
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", llmConfig.Provider)
	}
}
