package ingestion

import (
	"errors"
	"fmt"
)

// ErrNoDocuments reports a corpus directory without a single readable file.
var ErrNoDocuments = errors.New("no readable documents")

// LoadError means the corpus could not be loaded at all. It is fatal at
// startup.
type LoadError struct {
	Dir string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load corpus %s: %v", e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
