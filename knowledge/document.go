// Package knowledge defines the corpus types shared by the loader, the
// vector index and the query engine.
package knowledge

import "fmt"

// Document is one source file read from the corpus directory. Documents are
// created once at startup and never mutated.
type Document struct {
	ID     string
	Path   string
	Title  string
	Format string
	// SHA is the hex sha256 of the raw file; identical files load once.
	SHA    string
	Text   string
}

// Chunk is the unit that gets embedded and retrieved. DocumentID and Path
// point back at the source Document.
type Chunk struct {
	ID         string
	DocumentID string
	Path       string
	Title      string
	Index      int
	// Ordinal is the chunk's position across the whole corpus and is the
	// tie-break key for equal similarity scores.
	Ordinal int
	Text    string
}

// ChunkID builds the stable identifier of the index-th chunk of a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}
