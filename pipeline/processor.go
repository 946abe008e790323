package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"docanalyzer/chunk"
	"docanalyzer/clean"
	"docanalyzer/logger"
	"docanalyzer/model"
	"docanalyzer/store"
	"docanalyzer/types"
)

// TextExtractor pulls raw text out of a stored file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// TextCorrector fixes OCR artifacts in extracted text.
type TextCorrector interface {
	CorrectText(ctx context.Context, text string) (string, error)
}

// ProcessorConfig holds the chunking and indexing knobs of a run.
type ProcessorConfig struct {
	IndexName          string
	EmbedDim           int
	ParentChunkSize    int
	ParentChunkOverlap int
	ChildChunkSize     int
	ChildChunkOverlap  int
	Workers            int
}

// Processor runs the ingestion pipeline for uploaded documents on a
// bounded worker pool. Each document run is independent; a failure
// marks that document failed and never tears down the pool.
type Processor struct {
	cfg       ProcessorConfig
	extractor TextExtractor
	corrector TextCorrector
	embedder  model.EmbedderInterface
	vectors   store.VectorStorer
	meta      store.DBStorer
	pool      *ants.Pool
	log       *logger.Logger
}

// runTimeout bounds one document run end to end, LLM correction included.
const runTimeout = 30 * time.Minute

func NewProcessor(
	cfg ProcessorConfig,
	extractor TextExtractor,
	corrector TextCorrector,
	embedder model.EmbedderInterface,
	vectors store.VectorStorer,
	meta store.DBStorer,
	log *logger.Logger,
) (*Processor, error) {
	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Processor{
		cfg:       cfg,
		extractor: extractor,
		corrector: corrector,
		embedder:  embedder,
		vectors:   vectors,
		meta:      meta,
		pool:      pool,
		log:       log,
	}, nil
}

// Submit queues a document for background processing. It returns as
// soon as the job is accepted; progress is observable through the
// document status.
func (p *Processor) Submit(docID uuid.UUID, path string) error {
	return p.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		p.Run(ctx, docID, path)
	})
}

// Run executes the full pipeline for one document: extract, clean,
// correct, chunk, embed, index, persist. It is exported so callers can
// process synchronously (tests, batch backfills).
func (p *Processor) Run(ctx context.Context, docID uuid.UUID, path string) {
	log := p.log.With("doc_id", docID)
	log.Info("processing document", "path", path)
	start := time.Now()

	rawText, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		p.fail(ctx, docID, fmt.Errorf("extraction: %w", err))
		return
	}

	cleanedText := clean.Normalize(rawText)

	// Persist both texts as soon as they exist so a later failure
	// does not lose the extraction work. Status stays processing.
	if err := p.meta.UpdateDocument(ctx, docID, types.DocumentUpdate{
		RawText:     &rawText,
		CleanedText: &cleanedText,
	}); err != nil {
		p.fail(ctx, docID, fmt.Errorf("persisting extracted text: %w", err))
		return
	}

	correctedText, err := p.corrector.CorrectText(ctx, cleanedText)
	if err != nil {
		p.fail(ctx, docID, fmt.Errorf("correction: %w", err))
		return
	}
	if err := p.meta.UpdateDocument(ctx, docID, types.DocumentUpdate{
		CleanedText: &correctedText,
	}); err != nil {
		p.fail(ctx, docID, fmt.Errorf("persisting corrected text: %w", err))
		return
	}

	parents, children := chunk.SplitHierarchical(
		correctedText,
		p.cfg.ParentChunkSize, p.cfg.ParentChunkOverlap,
		p.cfg.ChildChunkSize, p.cfg.ChildChunkOverlap,
	)
	log.Info("document chunked", "parents", len(parents), "children", len(children))

	if err := p.vectors.EnsureIndex(ctx, p.cfg.IndexName, p.cfg.EmbedDim, "cosine"); err != nil {
		p.fail(ctx, docID, fmt.Errorf("index provisioning: %w", err))
		return
	}

	texts := make([]string, len(children))
	for i, c := range children {
		texts[i] = c.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		p.fail(ctx, docID, fmt.Errorf("embedding: %w", err))
		return
	}
	if len(embeddings) != len(children) {
		p.fail(ctx, docID, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(children)))
		return
	}

	childChunks := make([]types.ChildChunk, len(children))
	for i, c := range children {
		childChunks[i] = types.ChildChunk{
			ID:        uuid.New(),
			DocID:     docID,
			ParentID:  c.ParentID,
			Text:      c.Text,
			Embedding: embeddings[i],
		}
	}
	parentChunks := make([]types.ParentChunk, len(parents))
	for i, pc := range parents {
		parentChunks[i] = types.ParentChunk{
			DocID:    docID,
			ParentID: pc.ParentID,
			Text:     pc.Text,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.vectors.Upsert(gctx, p.cfg.IndexName, childChunks)
	})
	g.Go(func() error {
		return p.meta.SaveParentChunks(gctx, parentChunks)
	})
	if err := g.Wait(); err != nil {
		p.fail(ctx, docID, fmt.Errorf("persisting chunks: %w", err))
		return
	}

	status := types.StatusCompleted
	if err := p.meta.UpdateDocument(ctx, docID, types.DocumentUpdate{Status: &status}); err != nil {
		p.fail(ctx, docID, fmt.Errorf("finalizing status: %w", err))
		return
	}

	log.Info("document processed", "took", time.Since(start))
}

// fail records the failed status. The write runs on a context detached
// from the run's cancellation, otherwise a timed-out run could never
// record its own failure. It stays best effort: the original pipeline
// error is what matters, so a broken store here is only logged.
func (p *Processor) fail(ctx context.Context, docID uuid.UUID, err error) {
	p.log.Error("document processing failed", "doc_id", docID, "error", err)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	status := types.StatusFailed
	if werr := p.meta.UpdateDocument(wctx, docID, types.DocumentUpdate{Status: &status}); werr != nil {
		p.log.Error("failed to record failed status", "doc_id", docID, "error", werr)
	}
}

// Close releases the worker pool. Queued jobs are discarded.
func (p *Processor) Close() {
	p.pool.Release()
}
