package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureRAGSchema creates the document and chunk tables. The chunk embedding
// column is fixed to dimension, so a model change needs a fresh schema.
func EnsureRAGSchema(ctx context.Context, db Execer, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS herhaq_documents (
			id TEXT PRIMARY KEY,
			source_path TEXT UNIQUE NOT NULL,
			title TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS herhaq_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES herhaq_documents(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			ordinal INT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			UNIQUE(document_id, chunk_index)
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_herhaq_chunks_document ON herhaq_chunks(document_id)",
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}

// ResetRAGTables empties both tables ahead of a rebuild.
func ResetRAGTables(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, "TRUNCATE herhaq_chunks, herhaq_documents"); err != nil {
		return fmt.Errorf("truncate rag tables: %w", err)
	}
	return nil
}
