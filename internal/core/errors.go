package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when no extractor handles a file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtraction indicates a source could not be read or converted to text.
	ErrExtraction = errors.New("extraction failed")

	// ErrCapabilityUnavailable indicates a required external converter is missing.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrIndexingPartialFailure indicates some chunks of a document were not indexed.
	ErrIndexingPartialFailure = errors.New("indexing partially failed")

	// ErrNotFound indicates a document, notebook or blob does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidChunkConfig is returned for chunk sizes that cannot make progress.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrDimensionMismatch indicates the embedder and index disagree on vector size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidInput marks a request that is malformed or missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)

// ExtractionError wraps the underlying cause of a failed extraction.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// NewExtractionError wraps err as an extraction failure for source.
func NewExtractionError(source string, err error) error {
	if err == nil {
		return nil
	}
	return &ExtractionError{Source: source, Err: err}
}

// IndexingError reports which chunk ordinals of a document failed to index.
type IndexingError struct {
	DocumentID string
	Expected   int
	Indexed    int
	Failed     []int
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("index document %s: %d of %d chunks indexed", e.DocumentID, e.Indexed, e.Expected)
}

func (e *IndexingError) Is(target error) bool {
	return target == ErrIndexingPartialFailure
}

// IsNotFound reports whether err signals a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
