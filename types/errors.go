package types

import (
	"errors"
	"fmt"
)

// ErrFileNotFound distinguishes a missing source file from a failed
// extraction of an existing one.
var ErrFileNotFound = errors.New("source file not found")

// ErrNotReady signals that a document has not finished processing and
// cannot serve derived content yet.
var ErrNotReady = errors.New("document is not ready")

// ExtractionError means the source file was unreadable, corrupt or the OCR
// service failed. Fatal to the document run.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "extraction failed: " + e.Err.Error() }
func (e *ExtractionError) Unwrap() error { return e.Err }

// GenerationError means a generation-service call failed (correction,
// reformulation, answer or summary).
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// EmbeddingError means the embedding service call failed.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding failed: " + e.Err.Error() }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// VectorSearchError wraps index provisioning, upsert and query failures.
type VectorSearchError struct {
	Err error
}

func (e *VectorSearchError) Error() string { return "vector search failed: " + e.Err.Error() }
func (e *VectorSearchError) Unwrap() error { return e.Err }

// MetadataStoreError wraps persistence read/write failures.
type MetadataStoreError struct {
	Err error
}

func (e *MetadataStoreError) Error() string { return "metadata store failed: " + e.Err.Error() }
func (e *MetadataStoreError) Unwrap() error { return e.Err }

// NotFoundError is a client error: the requested resource has no record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
