package chat

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/fabfab/herhaq/knowledge"
)

const defaultSimilarityLimit = 2

type VectorStore interface {
	SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]ChunkResult, error)
}

// Index is a VectorStore that is loaded once with every (chunk, vector) pair
// before it serves queries. Implementations must not be mutated after Load.
type Index interface {
	VectorStore
	Load(ctx context.Context, entries []Entry) error
	Len() int
}

// validateEntries checks that every vector is non-empty, has a non-zero norm
// and shares the dimension of the first one, returning that dimension. A
// zero vector has no cosine similarity to anything.
func validateEntries(entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("no entries to load")
	}
	dim := len(entries[0].Embedding)
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		entry := &entries[i]
		if len(entry.Embedding) == 0 {
			return 0, fmt.Errorf("chunk %s has an empty embedding", entry.Chunk.ID)
		}
		if len(entry.Embedding) != dim {
			return 0, fmt.Errorf("chunk %s has dimension %d, expected %d", entry.Chunk.ID, len(entry.Embedding), dim)
		}
		if vectorNorm(entry.Embedding) == 0 {
			return 0, fmt.Errorf("chunk %s has a zero embedding", entry.Chunk.ID)
		}
		if _, dup := seen[entry.Chunk.ID]; dup {
			return 0, fmt.Errorf("duplicate chunk id %s", entry.Chunk.ID)
		}
		seen[entry.Chunk.ID] = struct{}{}
	}
	return dim, nil
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func checkQuery(embedding []float32, dim int) (float64, error) {
	if len(embedding) == 0 {
		return 0, fmt.Errorf("embedding is empty")
	}
	if dim > 0 && len(embedding) != dim {
		return 0, fmt.Errorf("query dimension %d does not match index dimension %d", len(embedding), dim)
	}
	norm := vectorNorm(embedding)
	if norm == 0 {
		return 0, fmt.Errorf("query embedding is a zero vector")
	}
	return norm, nil
}

// rankResults orders by score descending with insertion order breaking ties
// and truncates to limit.
func rankResults(results []ChunkResult, limit int) []ChunkResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Ordinal < results[j].Ordinal
	})
	if limit < len(results) {
		results = results[:limit]
	}
	return results
}

func resultFromChunk(chunk knowledge.Chunk, score float64) ChunkResult {
	return ChunkResult{
		ChunkID:    chunk.ID,
		DocumentID: chunk.DocumentID,
		Title:      chunk.Title,
		Path:       chunk.Path,
		Content:    chunk.Text,
		Ordinal:    chunk.Ordinal,
		Score:      score,
	}
}
