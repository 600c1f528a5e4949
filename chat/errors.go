package chat

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when the question is empty or whitespace only.
var ErrEmptyQuery = errors.New("query is empty")

// EmbeddingError reports an embedding provider failure. Stage is "index" for
// startup indexing and "query" for per-request embedding.
type EmbeddingError struct {
	Stage string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Stage, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
