package embeddings

import (
	"context"
	"testing"

	"github.com/fabfab/herhaq/config"
)

func TestNewEmbedderDefaults(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{
			Provider:  config.ProviderOllama,
			Model:     "nomic-embed-text",
			Dimension: 768,
		},
		OllamaHost: "http://localhost:11434",
	}

	embedder, err := NewEmbedder(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected embedder, got error: %v", err)
	}

	if embedder == nil {
		t.Fatal("expected non-nil embedder")
	}
}

func TestNewEmbedderOpenAIMissingKey(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{
			Provider:  config.ProviderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
	}

	if _, err := NewEmbedder(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}

func TestNewEmbedderGeminiMissingKey(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{Provider: config.ProviderGemini, Model: "text-embedding-004"},
	}

	if _, err := NewEmbedder(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing GEMINI_API_KEY")
	}
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	cfg := config.Config{Embeddings: config.EmbeddingConfig{Provider: "cohere"}}

	if _, err := NewEmbedder(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestCheckDimension(t *testing.T) {
	if err := checkDimension("test", 3, []float32{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := checkDimension("test", 0, []float32{1}); err != nil {
		t.Fatalf("dimension 0 should accept any length: %v", err)
	}
	if err := checkDimension("test", 3, []float32{1, 2}); err == nil {
		t.Fatal("expected mismatch error")
	}
	if err := checkDimension("test", 0, nil); err == nil {
		t.Fatal("expected error for empty vector")
	}
}
