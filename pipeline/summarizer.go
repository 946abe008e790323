package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"docanalyzer/logger"
	"docanalyzer/store"
	"docanalyzer/types"
)

// TextSummarizer condenses document text into key points.
type TextSummarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Summarizer produces and caches document summaries.
type Summarizer struct {
	generator TextSummarizer
	meta      store.DBStorer
	log       *logger.Logger
}

func NewSummarizer(generator TextSummarizer, meta store.DBStorer, log *logger.Logger) *Summarizer {
	return &Summarizer{
		generator: generator,
		meta:      meta,
		log:       log,
	}
}

// SummarizeDocument summarizes a completed document. The first call
// generates and persists the summary; later calls return the cached
// text without touching the generator.
func (s *Summarizer) SummarizeDocument(ctx context.Context, docID uuid.UUID) (*types.SummarizeResponse, error) {
	doc, err := s.meta.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	if doc.Status != types.StatusCompleted {
		return nil, fmt.Errorf("%w: document %s has status %s", types.ErrNotReady, docID, doc.Status)
	}

	text := doc.Text()
	if doc.Summary != "" {
		return &types.SummarizeResponse{
			Summary:        doc.Summary,
			OriginalLength: len(text),
			SummaryLength:  len(doc.Summary),
		}, nil
	}

	summary, err := s.generator.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.meta.UpdateDocument(ctx, docID, types.DocumentUpdate{Summary: &summary}); err != nil {
		// The summary is still usable; losing the cache only costs a
		// regeneration on the next call.
		s.log.Warn("failed to cache summary", "doc_id", docID, "error", err)
	}

	return &types.SummarizeResponse{
		Summary:        summary,
		OriginalLength: len(text),
		SummaryLength:  len(summary),
	}, nil
}

// SummarizeText summarizes ad hoc text without any persistence.
func (s *Summarizer) SummarizeText(ctx context.Context, text string) (*types.SummarizeResponse, error) {
	summary, err := s.generator.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	return &types.SummarizeResponse{
		Summary:        summary,
		OriginalLength: len(text),
		SummaryLength:  len(summary),
	}, nil
}
