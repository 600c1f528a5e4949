package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/embeddings"
	"github.com/fabfab/herhaq/llm"
)

const snippetLimit = 500

type Service struct {
	vectors  VectorStore
	embedder embeddings.Embedder
	llm      llm.Client
	template PromptTemplate
	topK     int
	timeout  time.Duration
	logger   zerolog.Logger
}

type Options struct {
	// TopK is the default number of chunks retrieved per question.
	TopK int
	// Timeout bounds each provider call. Zero means no bound beyond ctx.
	Timeout  time.Duration
	Template PromptTemplate
}

type Config struct {
	SimilarityLimit int
}

func NewService(vectors VectorStore, embedder embeddings.Embedder, llmClient llm.Client, opts Options, logger zerolog.Logger) *Service {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultSimilarityLimit
	}

	return &Service{
		vectors:  vectors,
		embedder: embedder,
		llm:      llmClient,
		template: opts.Template,
		topK:     topK,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Answer returns only the generated text for question.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	resp, err := s.Chat(ctx, question, Config{})
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

func (s *Service) Chat(ctx context.Context, question string, cfg Config) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, ErrEmptyQuery
	}
	if s.embedder == nil {
		return Response{}, fmt.Errorf("embedder is not configured")
	}
	if s.vectors == nil {
		return Response{}, fmt.Errorf("vector store is not configured")
	}
	if s.llm == nil {
		return Response{}, fmt.Errorf("llm client is not configured")
	}
	if s.template.text == "" {
		return Response{}, fmt.Errorf("prompt template is not configured")
	}

	limit := cfg.SimilarityLimit
	if limit <= 0 {
		limit = s.topK
	}

	queryVector, err := s.embedQuestion(ctx, question)
	if err != nil {
		return Response{}, err
	}

	chunks, err := s.vectors.SimilarChunks(ctx, queryVector, limit)
	if err != nil {
		return Response{}, fmt.Errorf("vector search: %w", err)
	}
	if len(chunks) == 0 {
		s.logger.Warn().Msg("no context retrieved for question")
	}

	prompt := s.template.Render(buildContext(chunks), question)
	answer, err := s.generate(ctx, prompt)
	if err != nil {
		return Response{}, err
	}

	s.logger.Debug().Int("chunks", len(chunks)).Int("answer_length", len(answer)).Msg("question answered")
	return Response{Answer: answer, Sources: mergeSources(chunks)}, nil
}

func (s *Service) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	callCtx, cancel := s.providerContext(ctx)
	defer cancel()

	vectors, err := s.embedder.Embed(callCtx, []string{question})
	if err != nil {
		return nil, &EmbeddingError{Stage: "query", Err: err}
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, &EmbeddingError{Stage: "query", Err: fmt.Errorf("embedder returned no vectors")}
	}
	return vectors[0], nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := s.providerContext(ctx)
	defer cancel()

	generated, err := s.llm.Generate(callCtx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	answer := strings.TrimSpace(generated)
	if answer == "" {
		return "", &GenerationError{Err: fmt.Errorf("empty completion")}
	}
	return answer, nil
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// mergeSources groups retrieved chunks by document, keeping each document's
// best score and the order in which documents were first retrieved.
func mergeSources(chunks []ChunkResult) []Source {
	grouped := make(map[string]*Source, len(chunks))
	order := make([]string, 0, len(chunks))
	for i := range chunks {
		chunk := chunks[i]
		source, ok := grouped[chunk.DocumentID]
		if !ok {
			source = &Source{
				DocumentID: chunk.DocumentID,
				Title:      chunk.Title,
				Path:       chunk.Path,
				Score:      chunk.Score,
			}
			grouped[chunk.DocumentID] = source
			order = append(order, chunk.DocumentID)
		} else if chunk.Score > source.Score {
			source.Score = chunk.Score
		}

		snippet := strings.TrimSpace(chunk.Content)
		if runes := []rune(snippet); len(runes) > snippetLimit {
			snippet = string(runes[:snippetLimit]) + "..."
		}
		if source.Snippet == "" {
			source.Snippet = snippet
		} else if !strings.Contains(source.Snippet, snippet) {
			source.Snippet += contextSeparator + snippet
		}
	}

	sources := make([]Source, 0, len(order))
	for _, id := range order {
		sources = append(sources, *grouped[id])
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Score > sources[j].Score
	})

	return sources
}
