// Package app performs the one-time startup composition: providers, corpus,
// index, query engine and tone processor.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/chat"
	"github.com/fabfab/herhaq/config"
	"github.com/fabfab/herhaq/database"
	"github.com/fabfab/herhaq/embeddings"
	"github.com/fabfab/herhaq/ingestion"
	"github.com/fabfab/herhaq/llm"
	"github.com/fabfab/herhaq/tone"
)

// App holds everything built at startup. It is read-only once Initialize
// returns and is shared by all requests.
type App struct {
	Config   config.Config
	Corpus   ingestion.Corpus
	Index    chat.Index
	Engine   *chat.Service
	Tone     tone.Processor
	Embedder embeddings.Embedder
	LLM      llm.Client

	pool *pgxpool.Pool
}

type Option func(*options)

type options struct {
	embedder embeddings.Embedder
	llm      llm.Client
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithLLM replaces the configured generation provider.
func WithLLM(c llm.Client) Option {
	return func(o *options) { o.llm = c }
}

// Initialize builds the App. A *ingestion.LoadError or a *chat.EmbeddingError
// means the service must not start.
func Initialize(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Embedder: o.embedder, LLM: o.llm}

	if a.Embedder == nil {
		embedder, err := embeddings.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		a.Embedder = embedder
	}
	if a.LLM == nil {
		client, err := llm.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create llm client: %w", err)
		}
		a.LLM = client
	}

	template, err := chat.NewPromptTemplate(cfg.Persona.PromptTemplate)
	if err != nil {
		return nil, err
	}

	loader := ingestion.NewService(ingestion.Options{
		ChunkSize:    cfg.Corpus.ChunkSize,
		ChunkOverlap: cfg.Corpus.ChunkOverlap,
	}, logger)
	corpus, err := loader.LoadDirectory(ctx, cfg.Corpus.Dir)
	if err != nil {
		return nil, err
	}
	a.Corpus = corpus

	idx, err := a.newIndex(ctx, logger)
	if err != nil {
		return nil, err
	}
	if err := chat.BuildIndex(ctx, idx, a.Embedder, corpus.Chunks, cfg.Index.BatchSize); err != nil {
		a.Close()
		return nil, err
	}
	a.Index = idx

	a.Engine = chat.NewService(idx, a.Embedder, a.LLM, chat.Options{
		TopK:     cfg.Index.TopK,
		Timeout:  cfg.ProviderTimeout,
		Template: template,
	}, logger)
	a.Tone = tone.New(cfg.Persona)

	logger.Info().
		Str("backend", cfg.Index.Backend).
		Str("provider", cfg.LLM.Provider).
		Int("documents", len(corpus.Documents)).
		Int("chunks", idx.Len()).
		Msg("index ready")
	return a, nil
}

func (a *App) newIndex(ctx context.Context, logger zerolog.Logger) (chat.Index, error) {
	switch a.Config.Index.Backend {
	case config.BackendMemory:
		return chat.NewMemoryStore(), nil
	case config.BackendChromem:
		return chat.NewChromemStore(logger)
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, a.Config.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		return chat.NewPostgresVectorStore(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s", a.Config.Index.Backend)
	}
}

// Close releases the Postgres pool when the postgres backend is in use.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
