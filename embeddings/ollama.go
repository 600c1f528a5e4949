package embeddings

import (
	"context"
	"fmt"
	"strings"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

type ollamaEmbedder struct {
	embedder  *lcembeddings.EmbedderImpl
	dimension int
}

func NewOllamaEmbedder(opts Options) (Embedder, error) {
	host := strings.TrimRight(opts.OllamaHost, "/")
	if host == "" {
		host = "http://localhost:11434"
	}

	llm, err := ollama.New(
		ollama.WithServerURL(host),
		ollama.WithModel(opts.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	embedder, err := lcembeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	return &ollamaEmbedder{embedder: embedder, dimension: opts.Dimension}, nil
}

func (e *ollamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("call ollama embeddings API: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(vectors), len(texts))
	}

	for _, vec := range vectors {
		if err := checkDimension("ollama", e.dimension, vec); err != nil {
			return nil, err
		}
	}

	return vectors, nil
}
