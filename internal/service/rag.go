package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"debatehub/internal/apperr"
	"debatehub/internal/chunk"
	"debatehub/internal/config"
	"debatehub/internal/index"
	"debatehub/internal/model"
	"debatehub/internal/pdf"
)

// NoHistoryReply is returned when a question arrives before any debate
// history exists for the client. Not an error.
const NoHistoryReply = "I couldn't find any debate history for you yet. Complete a debate first, then ask me about it."

const systemPrompt = "You are an assistant that answers questions about a user's past debates. " +
	"Answer strictly from the CONTEXT section of the message. " +
	"If the context does not contain enough information to answer, say so instead of guessing."

// Pipeline stages, used to attribute failures to the step that raised
// them.
type stage string

const (
	stageLoading    stage = "loading"
	stageChunking   stage = "chunking"
	stageIndexing   stage = "indexing"
	stageRetrieving stage = "retrieving"
	stageGenerating stage = "generating"
)

// DebateSource loads the debate records a question runs against.
type DebateSource interface {
	ListByClient(ctx context.Context, clientID string) ([]model.Debate, error)
}

// Generator produces the final answer from an assembled prompt.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// IndexFactory creates a fresh index for one request.
type IndexFactory func(ctx context.Context) (index.Index, error)

// RAGService runs the question pipeline: load history, chunk, build a
// request-scoped index, retrieve, generate. Nothing is shared between
// requests.
type RAGService struct {
	source       DebateSource
	embedder     index.Embedder
	generator    Generator
	newIndex     IndexFactory
	chunkSize    int
	chunkOverlap int
	topK         int
	callTimeout  time.Duration
}

// NewRAGService wires the pipeline from its collaborators and config.
func NewRAGService(source DebateSource, embedder index.Embedder, generator Generator, newIndex IndexFactory, cfg config.RAG) *RAGService {
	return &RAGService{
		source:       source,
		embedder:     embedder,
		generator:    generator,
		newIndex:     newIndex,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		topK:         cfg.TopK,
		callTimeout:  time.Duration(cfg.CallTimeoutSecs) * time.Second,
	}
}

// Answer runs the full pipeline for one question. Every external call
// gets its own deadline; failures are terminal, no retries.
func (s *RAGService) Answer(ctx context.Context, question, clientID string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", apperr.ErrValidation)
	}

	debates, err := s.loadHistory(ctx, clientID)
	if err != nil {
		return "", failAt(stageLoading, err)
	}
	if len(debates) == 0 {
		return NoHistoryReply, nil
	}

	sources := s.chunkDebates(debates)
	if len(sources) == 0 {
		return NoHistoryReply, nil
	}

	idx, err := s.newIndex(ctx)
	if err != nil {
		return "", failAt(stageIndexing, err)
	}
	defer func() {
		if cerr := idx.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Printf("index close: %v", cerr)
		}
	}()

	if err := s.buildIndex(ctx, idx, sources); err != nil {
		return "", failAt(stageIndexing, err)
	}

	contexts, err := s.retrieve(ctx, idx, question)
	if err != nil {
		return "", failAt(stageRetrieving, err)
	}

	reply, err := s.generate(ctx, contexts, question)
	if err != nil {
		return "", failAt(stageGenerating, err)
	}
	return reply, nil
}

func (s *RAGService) loadHistory(ctx context.Context, clientID string) ([]model.Debate, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.source.ListByClient(ctx, clientID)
}

// chunkDebates flattens each record into one text blob and splits all
// blobs into overlapping chunks tagged with the record's metadata.
func (s *RAGService) chunkDebates(debates []model.Debate) []index.Source {
	var sources []index.Source
	for _, d := range debates {
		blob := flatten(d)
		if blob == "" {
			continue
		}
		for _, part := range chunk.Split(blob, s.chunkSize, s.chunkOverlap) {
			sources = append(sources, index.Source{Text: part, Topic: d.Topic, ClientID: d.ClientID})
		}
	}
	return sources
}

func (s *RAGService) buildIndex(ctx context.Context, idx index.Index, sources []index.Source) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return index.Build(ctx, idx, sources, s.embedder)
}

func (s *RAGService) retrieve(ctx context.Context, idx index.Index, question string) ([]string, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return index.Retrieve(ctx, idx, s.embedder, question, s.topK)
}

func (s *RAGService) generate(ctx context.Context, contexts []string, question string) (string, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.generator.Complete(ctx, systemPrompt, userPrompt(contexts, question))
}

func (s *RAGService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

func failAt(st stage, err error) error {
	return fmt.Errorf("%s: %w", st, err)
}

// flatten renders one debate as a header naming topic and client,
// followed by the transcript as "<speaker>: <content>" lines, followed
// by whatever text the attachments carry. A record with no usable text
// yields an empty blob.
func flatten(d model.Debate) string {
	var b strings.Builder
	wrote := false
	for _, m := range d.ChatHistory {
		fmt.Fprintf(&b, "%s: %s\n", m.Speaker, m.Content)
		wrote = true
	}
	for _, a := range d.Attachments {
		if txt, ok := pdf.AttachmentText(a); ok && txt != "" {
			fmt.Fprintf(&b, "Attachment %s: %s\n", a.Filename, txt)
			wrote = true
		}
	}
	if !wrote {
		return ""
	}
	header := fmt.Sprintf("Debate on %q (client %s, user role %s)\n", d.Topic, d.ClientID, d.UserRole)
	return header + b.String()
}

// userPrompt concatenates the retrieved chunks in result order and
// appends the literal question.
func userPrompt(contexts []string, question string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	for _, c := range contexts {
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
