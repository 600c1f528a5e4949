package chat

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
)

type memoryEntry struct {
	entry Entry
	norm  float64
}

type memorySnapshot struct {
	entries   []memoryEntry
	dimension int
}

// MemoryStore is a brute-force cosine index held in process memory. Load
// publishes an immutable snapshot, so searches run without locks.
type MemoryStore struct {
	snapshot atomic.Pointer[memorySnapshot]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context, entries []Entry) error {
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}

	snap := &memorySnapshot{
		entries:   make([]memoryEntry, len(entries)),
		dimension: dim,
	}
	for i := range entries {
		embedding := make([]float32, len(entries[i].Embedding))
		copy(embedding, entries[i].Embedding)
		snap.entries[i] = memoryEntry{
			entry: Entry{Chunk: entries[i].Chunk, Embedding: embedding},
			norm:  vectorNorm(embedding),
		}
	}
	sort.SliceStable(snap.entries, func(i, j int) bool {
		return snap.entries[i].entry.Chunk.Ordinal < snap.entries[j].entry.Chunk.Ordinal
	})

	if !s.snapshot.CompareAndSwap(nil, snap) {
		return fmt.Errorf("memory index is already loaded")
	}
	return nil
}

func (s *MemoryStore) Len() int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

func (s *MemoryStore) SimilarChunks(_ context.Context, embedding []float32, limit int) ([]ChunkResult, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, fmt.Errorf("memory index is not loaded")
	}
	queryNorm, err := checkQuery(embedding, snap.dimension)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSimilarityLimit
	}

	results := make([]ChunkResult, len(snap.entries))
	for i := range snap.entries {
		item := &snap.entries[i]
		results[i] = resultFromChunk(item.entry.Chunk, cosine(embedding, item.entry.Embedding, queryNorm, item.norm))
	}

	return rankResults(results, limit), nil
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

var _ Index = (*MemoryStore)(nil)
