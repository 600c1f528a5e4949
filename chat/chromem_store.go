package chat

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/knowledge"
)

const chromemCollection = "herhaq-corpus"

// ChromemStore keeps the index in an in-memory chromem-go collection.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  atomic.Int64
	loaded     atomic.Bool
	logger     zerolog.Logger
}

func NewChromemStore(logger zerolog.Logger) (*ChromemStore, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection: %w", err)
	}
	return &ChromemStore{db: db, collection: collection, logger: logger}, nil
}

func (s *ChromemStore) Load(ctx context.Context, entries []Entry) error {
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}
	if !s.loaded.CompareAndSwap(false, true) {
		return fmt.Errorf("chromem index is already loaded")
	}

	docs := make([]chromem.Document, len(entries))
	for i := range entries {
		chunk := entries[i].Chunk
		embedding := make([]float32, len(entries[i].Embedding))
		copy(embedding, entries[i].Embedding)
		docs[i] = chromem.Document{
			ID:      chunk.ID,
			Content: chunk.Text,
			Metadata: map[string]string{
				"document_id": chunk.DocumentID,
				"path":        chunk.Path,
				"title":       chunk.Title,
				"index":       strconv.Itoa(chunk.Index),
				"ordinal":     strconv.Itoa(chunk.Ordinal),
			},
			Embedding: embedding,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		// Nothing partial may stay visible; start from an empty collection.
		_ = s.db.DeleteCollection(chromemCollection)
		if collection, createErr := s.db.GetOrCreateCollection(chromemCollection, nil, nil); createErr == nil {
			s.collection = collection
		}
		s.loaded.Store(false)
		return fmt.Errorf("add chromem documents: %w", err)
	}
	s.dimension.Store(int64(dim))

	s.logger.Debug().Int("chunks", len(docs)).Msg("chromem collection loaded")
	return nil
}

func (s *ChromemStore) Len() int {
	if !s.loaded.Load() {
		return 0
	}
	return s.collection.Count()
}

// SimilarChunks asks chromem for every document and ranks them itself, since
// chromem does not order equal similarities by insertion.
func (s *ChromemStore) SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]ChunkResult, error) {
	count := s.Len()
	if count == 0 {
		return nil, fmt.Errorf("chromem index is not loaded")
	}
	if _, err := checkQuery(embedding, int(s.dimension.Load())); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSimilarityLimit
	}

	query := make([]float32, len(embedding))
	copy(query, embedding)

	found, err := s.collection.QueryEmbedding(ctx, query, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query chromem collection: %w", err)
	}

	results := make([]ChunkResult, 0, len(found))
	for _, res := range found {
		chunk, convErr := chunkFromMetadata(res.ID, res.Content, res.Metadata)
		if convErr != nil {
			return nil, convErr
		}
		results = append(results, resultFromChunk(chunk, float64(res.Similarity)))
	}

	return rankResults(results, limit), nil
}

func chunkFromMetadata(id, content string, meta map[string]string) (knowledge.Chunk, error) {
	ordinal, err := strconv.Atoi(meta["ordinal"])
	if err != nil {
		return knowledge.Chunk{}, fmt.Errorf("chunk %s has invalid ordinal %q", id, meta["ordinal"])
	}
	index, _ := strconv.Atoi(meta["index"])
	return knowledge.Chunk{
		ID:         id,
		DocumentID: meta["document_id"],
		Path:       meta["path"],
		Title:      meta["title"],
		Index:      index,
		Ordinal:    ordinal,
		Text:       content,
	}, nil
}

var _ Index = (*ChromemStore)(nil)
