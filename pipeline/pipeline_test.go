package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"docanalyzer/types"
)

// fakeExtractor returns canned text or an error.
type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

// fakeGenerator covers every language-model surface the pipeline uses.
type fakeGenerator struct {
	corrected    string
	correctErr   error
	reformulated string
	reformErr    error
	answer       string
	answerErr    error
	summary      string
	summaryErr   error

	correctCalls   int
	reformCalls    int
	answerCalls    int
	summarizeCalls int
	lastQuery      string
	lastContext    string
}

func (f *fakeGenerator) CorrectText(ctx context.Context, text string) (string, error) {
	f.correctCalls++
	if f.correctErr != nil {
		return "", f.correctErr
	}
	if f.corrected != "" {
		return f.corrected, nil
	}
	return text, nil
}

func (f *fakeGenerator) ReformulateQuery(ctx context.Context, query string) (string, error) {
	f.reformCalls++
	if f.reformErr != nil {
		return "", f.reformErr
	}
	return f.reformulated, nil
}

func (f *fakeGenerator) Answer(ctx context.Context, query, docContext string) (string, error) {
	f.answerCalls++
	f.lastQuery = query
	f.lastContext = docContext
	if f.answerErr != nil {
		return "", f.answerErr
	}
	return f.answer, nil
}

func (f *fakeGenerator) Summarize(ctx context.Context, text string) (string, error) {
	f.summarizeCalls++
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

// fakeEmbedder returns a deterministic unit vector per text.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

// fakeVectorStore records upserts and serves canned matches.
type fakeVectorStore struct {
	mu        sync.Mutex
	ensureErr error
	upsertErr error
	queryErr  error
	deleteErr error
	matches   []types.VectorMatch
	upserted  []types.ChildChunk
	deleted   []uuid.UUID
}

func (f *fakeVectorStore) EnsureIndex(ctx context.Context, name string, dim int, metric string) error {
	return f.ensureErr
}

func (f *fakeVectorStore) Upsert(ctx context.Context, name string, chunks []types.ChildChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeVectorStore) Query(ctx context.Context, name string, embedding []float32, topK int, docID *uuid.UUID) ([]types.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeVectorStore) DeleteByDocument(ctx context.Context, name string, docID uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, docID)
	return nil
}

// fakeMetaStore is an in-memory DBStorer.
type fakeMetaStore struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*types.Document
	parents   []types.ParentChunk
	updateErr error
	saveErr   error
	getErr    error
	lookupErr error

	updates []types.DocumentUpdate
}

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{docs: make(map[uuid.UUID]*types.Document)}
}

func (f *fakeMetaStore) CreateDocument(ctx context.Context, doc types.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := doc
	f.docs[doc.ID] = &d
	return nil
}

func (f *fakeMetaStore) UpdateDocument(ctx context.Context, id uuid.UUID, update types.DocumentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	if f.updateErr != nil {
		return f.updateErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return &types.NotFoundError{Resource: "document", ID: id.String()}
	}
	if update.Status != nil {
		doc.Status = *update.Status
	}
	if update.RawText != nil {
		doc.RawText = *update.RawText
	}
	if update.CleanedText != nil {
		doc.CleanedText = *update.CleanedText
	}
	if update.Summary != nil {
		doc.Summary = *update.Summary
	}
	return nil
}

func (f *fakeMetaStore) GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, &types.NotFoundError{Resource: "document", ID: id.String()}
	}
	d := *doc
	return &d, nil
}

func (f *fakeMetaStore) ListDocuments(ctx context.Context) ([]types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Document
	for _, d := range f.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeMetaStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return &types.NotFoundError{Resource: "document", ID: id.String()}
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeMetaStore) SaveParentChunks(ctx context.Context, chunks []types.ParentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.parents = append(f.parents, chunks...)
	return nil
}

func (f *fakeMetaStore) GetParentChunksByKeys(ctx context.Context, keys []types.ParentKey) ([]types.ParentChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	want := make(map[types.ParentKey]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []types.ParentChunk
	for _, p := range f.parents {
		if want[types.ParentKey{DocID: p.DocID, ParentID: p.ParentID}] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeMetaStore) DeleteParentChunks(ctx context.Context, docID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []types.ParentChunk
	for _, p := range f.parents {
		if p.DocID != docID {
			kept = append(kept, p)
		}
	}
	f.parents = kept
	return nil
}
