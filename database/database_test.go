package database

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	if r.failOn != "" && strings.Contains(sql, r.failOn) {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}
	return pgconn.CommandTag{}, nil
}

func TestEnsureRAGSchemaRejectsInvalidDimension(t *testing.T) {
	err := EnsureRAGSchema(context.Background(), nil, 0)
	if err == nil {
		t.Fatal("expected error when dimension is not positive")
	}
}

func TestEnsureRAGSchemaUsesDimension(t *testing.T) {
	db := &recordingExecer{}
	if err := EnsureRAGSchema(context.Background(), db, 768); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(db.statements, "\n")
	if !strings.Contains(joined, "VECTOR(768)") {
		t.Fatalf("expected vector column sized to 768:\n%s", joined)
	}
	if !strings.Contains(joined, "ordinal INT NOT NULL") {
		t.Fatalf("expected ordinal column:\n%s", joined)
	}
}

func TestEnsureRAGSchemaStopsOnFailure(t *testing.T) {
	db := &recordingExecer{failOn: "EXTENSION"}
	if err := EnsureRAGSchema(context.Background(), db, 3); err == nil {
		t.Fatal("expected error when the extension cannot be created")
	}
	if len(db.statements) != 1 {
		t.Fatalf("expected to stop after the first failure, ran %d statements", len(db.statements))
	}
}

func TestNewPostgresPoolRequiresDSN(t *testing.T) {
	if _, err := NewPostgresPool(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestDatabaseConnectivity(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_DB_INTEGRATION_TESTS=1 to run database connectivity checks")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, os.Getenv("POSTGRES_DSN"))
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	defer pool.Close()

	var ok int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&ok); err != nil || ok != 1 {
		t.Fatalf("unexpected ping result %d: %v", ok, err)
	}
}
