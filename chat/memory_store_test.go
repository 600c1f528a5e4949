package chat_test

import (
	"context"
	"testing"

	"github.com/fabfab/herhaq/chat"
)

func loadEntries(t *testing.T, idx chat.Index, vectors ...[]float32) {
	t.Helper()
	texts := make([]string, len(vectors))
	for i := range vectors {
		texts[i] = "chunk"
	}
	chunks := testChunks(texts...)
	entries := make([]chat.Entry, len(vectors))
	for i := range vectors {
		entries[i] = chat.Entry{Chunk: chunks[i], Embedding: vectors[i]}
	}
	if err := idx.Load(context.Background(), entries); err != nil {
		t.Fatalf("load index: %v", err)
	}
}

func chunkIDs(results []chat.ChunkResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	return ids
}

func TestMemoryStoreReturnsExactlyK(t *testing.T) {
	store := chat.NewMemoryStore()
	loadEntries(t, store, []float32{1, 0}, []float32{0, 1}, []float32{1, 1}, []float32{-1, 0})

	results, err := store.SimilarChunks(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID != "doc-a:0" || results[1].ChunkID != "doc-c:0" {
		t.Fatalf("unexpected order: %v", chunkIDs(results))
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results are not sorted by score: %v", results)
	}
}

func TestMemoryStoreReturnsAllWhenKExceedsSize(t *testing.T) {
	store := chat.NewMemoryStore()
	loadEntries(t, store, []float32{1, 0}, []float32{0, 1}, []float32{1, 1})

	results, err := store.SimilarChunks(context.Background(), []float32{0.3, 0.7}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected all 3 chunks, got %d", len(results))
	}

	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.ChunkID] {
			t.Fatalf("chunk %s returned twice", r.ChunkID)
		}
		seen[r.ChunkID] = true
	}
}

func TestMemoryStoreBreaksTiesByInsertionOrder(t *testing.T) {
	store := chat.NewMemoryStore()
	loadEntries(t, store, []float32{0, 1}, []float32{2, 0}, []float32{1, 0}, []float32{3, 0})

	results, err := store.SimilarChunks(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := chunkIDs(results)
	want := []string{"doc-b:0", "doc-c:0", "doc-d:0"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMemoryStoreSearchIsDeterministic(t *testing.T) {
	store := chat.NewMemoryStore()
	loadEntries(t, store, []float32{1, 2, 3}, []float32{3, 2, 1}, []float32{1, 1, 1}, []float32{2, 2, 2})

	first, err := store.SimilarChunks(context.Background(), []float32{1, 1, 1}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := store.SimilarChunks(context.Background(), []float32{1, 1, 1}, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a, b := chunkIDs(first), chunkIDs(again)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("search order changed: %v vs %v", a, b)
			}
		}
	}
	if store.Len() != 4 {
		t.Fatalf("search must not change the index, len %d", store.Len())
	}
}

func TestMemoryStoreRejectsSecondLoad(t *testing.T) {
	store := chat.NewMemoryStore()
	loadEntries(t, store, []float32{1, 0})

	err := store.Load(context.Background(), []chat.Entry{{Chunk: testChunks("x")[0], Embedding: []float32{0, 1}}})
	if err == nil {
		t.Fatal("expected error when loading twice")
	}
	if store.Len() != 1 {
		t.Fatalf("expected original index to remain, len %d", store.Len())
	}
}

func TestMemoryStoreValidatesVectors(t *testing.T) {
	store := chat.NewMemoryStore()
	chunks := testChunks("a", "b")
	err := store.Load(context.Background(), []chat.Entry{
		{Chunk: chunks[0], Embedding: []float32{1, 0}},
		{Chunk: chunks[1], Embedding: []float32{1, 0, 0}},
	})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty index, len %d", store.Len())
	}

	err = store.Load(context.Background(), []chat.Entry{
		{Chunk: chunks[0], Embedding: []float32{0, 0}},
		{Chunk: chunks[1], Embedding: []float32{1, 0}},
	})
	if err == nil {
		t.Fatal("expected zero vector error")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty index, len %d", store.Len())
	}

	if _, err := store.SimilarChunks(context.Background(), []float32{1, 0}, 1); err == nil {
		t.Fatal("expected error searching an unloaded index")
	}

	loadEntries(t, store, []float32{1, 0})
	if _, err := store.SimilarChunks(context.Background(), []float32{1, 0, 0}, 1); err == nil {
		t.Fatal("expected error for query dimension mismatch")
	}
	if _, err := store.SimilarChunks(context.Background(), []float32{0, 0}, 1); err == nil {
		t.Fatal("expected error for zero query vector")
	}
}
