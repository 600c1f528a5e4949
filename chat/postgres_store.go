package chat

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/database"
)

// PostgresVectorStore keeps the index in pgvector tables. The tables are
// rebuilt on every Load; nothing in them is treated as durable.
type PostgresVectorStore struct {
	pool      *pgxpool.Pool
	dimension atomic.Int64
	count     atomic.Int64
	logger    zerolog.Logger
}

func NewPostgresVectorStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresVectorStore {
	return &PostgresVectorStore{pool: pool, logger: logger}
}

func (s *PostgresVectorStore) Load(ctx context.Context, entries []Entry) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}
	if s.count.Load() > 0 {
		return fmt.Errorf("postgres index is already loaded")
	}

	if err := database.EnsureRAGSchema(ctx, s.pool, dim); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := database.ResetRAGTables(ctx, tx); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	seenDocs := make(map[string]struct{})
	for i := range entries {
		chunk := entries[i].Chunk
		if _, ok := seenDocs[chunk.DocumentID]; !ok {
			seenDocs[chunk.DocumentID] = struct{}{}
			batch.Queue(`INSERT INTO herhaq_documents (id, source_path, title) VALUES ($1, $2, $3)`,
				chunk.DocumentID, chunk.Path, chunk.Title)
		}
		batch.Queue(`INSERT INTO herhaq_chunks (id, document_id, chunk_index, ordinal, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			chunk.ID, chunk.DocumentID, chunk.Index, chunk.Ordinal, chunk.Text, pgvector.NewVector(entries[i].Embedding))
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, execErr := results.Exec(); execErr != nil {
			_ = results.Close()
			return fmt.Errorf("insert index rows: %w", execErr)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close insert batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}

	s.dimension.Store(int64(dim))
	s.count.Store(int64(len(entries)))
	s.logger.Debug().Int("chunks", len(entries)).Int("documents", len(seenDocs)).Msg("postgres index loaded")
	return nil
}

func (s *PostgresVectorStore) Len() int {
	return int(s.count.Load())
}

func (s *PostgresVectorStore) SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]ChunkResult, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("postgres index is not loaded")
	}
	if _, err := checkQuery(embedding, int(s.dimension.Load())); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSimilarityLimit
	}

	rows, err := s.pool.Query(ctx, `
        SELECT
            hc.id,
            hc.document_id,
            hd.title,
            hd.source_path,
            hc.content,
            hc.ordinal,
            (hc.embedding <=> $1::vector) AS distance
        FROM herhaq_chunks hc
        JOIN herhaq_documents hd ON hd.id = hc.document_id
        ORDER BY hc.embedding <=> $1::vector, hc.ordinal
        LIMIT $2
    `, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]ChunkResult, 0, limit)
	for rows.Next() {
		var item ChunkResult
		var distance float64
		if scanErr := rows.Scan(&item.ChunkID, &item.DocumentID, &item.Title, &item.Path, &item.Content, &item.Ordinal, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		item.Score = 1 - distance
		results = append(results, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

var _ Index = (*PostgresVectorStore)(nil)
