package chat

import (
	"context"
	"fmt"

	"github.com/fabfab/herhaq/embeddings"
	"github.com/fabfab/herhaq/knowledge"
)

const defaultBatchSize = 32

// BuildIndex embeds every chunk and only then loads the index, so a provider
// failure never leaves a partially populated index behind.
func BuildIndex(ctx context.Context, idx Index, embedder embeddings.Embedder, chunks []knowledge.Chunk, batchSize int) error {
	if idx == nil {
		return fmt.Errorf("index is not configured")
	}
	if embedder == nil {
		return fmt.Errorf("embedder is not configured")
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	entries := make([]Entry, 0, len(chunks))
	dim := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, chunks[i].Text)
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return &EmbeddingError{Stage: "index", Err: err}
		}
		if len(vectors) != len(texts) {
			return &EmbeddingError{Stage: "index", Err: fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors))}
		}

		for i, vec := range vectors {
			chunk := chunks[start+i]
			if len(vec) == 0 {
				return &EmbeddingError{Stage: "index", Err: fmt.Errorf("empty vector for chunk %s", chunk.ID)}
			}
			if dim == 0 {
				dim = len(vec)
			} else if len(vec) != dim {
				return &EmbeddingError{Stage: "index", Err: fmt.Errorf("chunk %s has dimension %d, expected %d", chunk.ID, len(vec), dim)}
			}
			if vectorNorm(vec) == 0 {
				return &EmbeddingError{Stage: "index", Err: fmt.Errorf("zero vector for chunk %s", chunk.ID)}
			}
			entries = append(entries, Entry{Chunk: chunk, Embedding: vec})
		}
	}

	if err := idx.Load(ctx, entries); err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	return nil
}
