// Package index provides the request-scoped vector index used by the
// RAG pipeline, with interchangeable in-memory and pgvector backends.
package index

import (
	"context"
	"fmt"

	"debatehub/internal/apperr"
)

// buildBatchSize bounds how many chunk texts go into one embedding call.
const buildBatchSize = 64

// Source is a chunk awaiting embedding, tagged with the metadata of the
// debate it came from.
type Source struct {
	Text     string
	Topic    string
	ClientID string
}

// Entry is one indexed (vector, text, metadata) triple.
type Entry struct {
	Vector   []float32
	Text     string
	Topic    string
	ClientID string
}

// Index holds entries for a single request and answers top-k similarity
// queries. Instances are exclusively owned by one request; Close must be
// called when the request finishes.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]Entry, error)
	Close(ctx context.Context) error
}

// Embedder maps text to fixed-dimension vectors. The same embedder must
// be used for building and querying one index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Build embeds every source in batches and adds the entries to idx. Any
// embedding or insert failure aborts the build; callers discard the
// index via Close on error, so no partial index is ever queried.
func Build(ctx context.Context, idx Index, sources []Source, emb Embedder) error {
	for start := 0; start < len(sources); start += buildBatchSize {
		end := start + buildBatchSize
		if end > len(sources) {
			end = len(sources)
		}
		batch := sources[start:end]
		texts := make([]string, len(batch))
		for i, src := range batch {
			texts[i] = src.Text
		}
		vectors, err := emb.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%w: got %d vectors for %d chunks", apperr.ErrEmbedding, len(vectors), len(batch))
		}
		entries := make([]Entry, len(batch))
		for i, src := range batch {
			entries[i] = Entry{
				Vector:   vectors[i],
				Text:     src.Text,
				Topic:    src.Topic,
				ClientID: src.ClientID,
			}
		}
		if err := idx.Add(ctx, entries); err != nil {
			return err
		}
	}
	return nil
}

// Retrieve embeds question with the same embedder the index was built
// with, queries the top k entries and returns their texts in
// similarity-descending order.
func Retrieve(ctx context.Context, idx Index, emb Embedder, question string, k int) ([]string, error) {
	vector, err := emb.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	entries, err := idx.Query(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return texts, nil
}
