package chat

import (
	"github.com/fabfab/herhaq/knowledge"
)

type ChunkResult struct {
	ChunkID    string
	DocumentID string
	Title      string
	Path       string
	Content    string
	Ordinal    int
	Score      float64
}

// Entry pairs a chunk with its embedding for loading into an Index.
type Entry struct {
	Chunk     knowledge.Chunk
	Embedding []float32
}

type Source struct {
	DocumentID string
	Title      string
	Path       string
	Snippet    string
	Score      float64
}

type Response struct {
	Answer  string
	Sources []Source
}
