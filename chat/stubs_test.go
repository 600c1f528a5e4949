package chat_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/fabfab/herhaq/embeddings"
	"github.com/fabfab/herhaq/knowledge"
	"github.com/fabfab/herhaq/llm"
)

var vocabulary = []string{"women", "right", "have", "safety", "work", "weather", "sunny", "today"}

// keywordEmbedder maps text onto vocabulary counts so similarity is
// predictable without a provider.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *keywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(vocabulary))
		for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return r < 'a' || r > 'z'
		}) {
			word = strings.TrimSuffix(word, "s")
			for dim, term := range vocabulary {
				if strings.TrimSuffix(term, "s") == word {
					vec[dim]++
				}
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *keywordEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

var _ embeddings.Embedder = (*keywordEmbedder)(nil)

type fixedEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

// blockingEmbedder waits for the context to end.
type blockingEmbedder struct{}

func (blockingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type recordingLLM struct {
	answer  string
	err     error
	block   bool
	calls   int
	prompts []string
}

func (s *recordingLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	if len(messages) == 0 {
		return "", errors.New("no messages provided")
	}
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

var _ llm.Client = (*recordingLLM)(nil)

func testChunks(texts ...string) []knowledge.Chunk {
	chunks := make([]knowledge.Chunk, len(texts))
	for i, text := range texts {
		docID := "doc-" + string(rune('a'+i))
		chunks[i] = knowledge.Chunk{
			ID:         knowledge.ChunkID(docID, 0),
			DocumentID: docID,
			Path:       docID + ".txt",
			Title:      docID,
			Ordinal:    i,
			Text:       text,
		}
	}
	return chunks
}
