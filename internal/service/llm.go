package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"debatehub/internal/apperr"
	"debatehub/internal/config"
)

// LLMClient talks to an OpenAI-compatible endpoint (LM Studio, Ollama,
// OpenAI itself). It implements both the embedder and generator ports of
// the RAG pipeline.
type LLMClient struct {
	client     *openai.Client
	embedModel string
	chatModel  string
}

// NewLLMClient builds the client from config.
func NewLLMClient(cfg *config.Config) *LLMClient {
	oaiCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	oaiCfg.BaseURL = cfg.OpenAI.BaseURL
	return &LLMClient{
		client:     openai.NewClientWithConfig(oaiCfg),
		embedModel: cfg.OpenAI.EmbedModel,
		chatModel:  cfg.OpenAI.ChatModel,
	}
}

// Embed returns the embedding vector for one text.
func (l *LLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request, returning vectors in input
// order regardless of the order the provider answers in.
func (l *LLMClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := l.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(l.embedModel),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEmbedding, err)
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", apperr.ErrEmbedding, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: no embedding for input %d", apperr.ErrEmbedding, i)
		}
	}
	return out, nil
}

// Complete runs a single-turn chat completion and returns the trimmed
// answer text.
func (l *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", apperr.ErrGeneration)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
