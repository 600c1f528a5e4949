package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type geminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
}

func NewGeminiEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiEmbedder{client: client, model: opts.Model, dimension: opts.Dimension}, nil
}

func (e *geminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var embedCfg *genai.EmbedContentConfig
	if e.dimension > 0 {
		dim := int32(e.dimension)
		embedCfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, embedCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini embeddings: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned an unexpected number of embeddings for %d inputs", len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("gemini returned a nil embedding at %d", i)
		}
		if err := checkDimension("gemini", e.dimension, emb.Values); err != nil {
			return nil, err
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}
