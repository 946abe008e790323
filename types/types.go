package types

import (
	"time"

	"github.com/google/uuid"
)

// Status is the document lifecycle state. A document record is created with
// StatusProcessing before the pipeline starts, so a tracked document always
// has an observable status.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is the metadata record for one uploaded file. Text fields stay
// empty until the corresponding pipeline stage has run.
type Document struct {
	ID          uuid.UUID `bson:"_id" json:"doc_id"`
	Filename    string    `bson:"filename" json:"filename"`
	StoragePath string    `bson:"storage_path" json:"storage_path"`
	Status      Status    `bson:"status" json:"status"`
	RawText     string    `bson:"raw_text,omitempty" json:"raw_text,omitempty"`
	CleanedText string    `bson:"cleaned_text,omitempty" json:"cleaned_text,omitempty"`
	Summary     string    `bson:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Text returns the best available document text for downstream use.
func (d *Document) Text() string {
	if d.CleanedText != "" {
		return d.CleanedText
	}
	return d.RawText
}

// DocumentUpdate describes a partial merge into a document record. Nil fields
// are left untouched; updated_at always refreshes.
type DocumentUpdate struct {
	Status      *Status
	RawText     *string
	CleanedText *string
	Summary     *string
}

// ParentChunk is a large document segment used as answer context. ParentID is
// the 0-based position of the segment within its document's chunking run, so
// it is only unique together with DocID.
type ParentChunk struct {
	DocID    uuid.UUID `bson:"doc_id"`
	ParentID int       `bson:"parent_id"`
	Text     string    `bson:"text"`
}

// ParentKey identifies a parent chunk across documents.
type ParentKey struct {
	DocID    uuid.UUID
	ParentID int
}

// ChildChunk is a small segment used for similarity matching. Its text is a
// contiguous substring of the owning parent's text.
type ChildChunk struct {
	ID        uuid.UUID
	DocID     uuid.UUID
	ParentID  int
	Text      string
	Embedding []float32
}

// VectorMatch is one ranked similarity hit from the child index.
type VectorMatch struct {
	DocID    uuid.UUID
	ParentID int
	Text     string
	Score    float64
}
