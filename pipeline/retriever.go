package pipeline

import (
	"context"
	"strings"

	"docanalyzer/logger"
	"docanalyzer/model"
	"docanalyzer/store"
	"docanalyzer/types"
)

// Generator is the language-model surface the retriever needs.
type Generator interface {
	ReformulateQuery(ctx context.Context, query string) (string, error)
	Answer(ctx context.Context, query, docContext string) (string, error)
}

// Fixed replies for the retrieval short circuits. The generator is not
// called in these cases.
const (
	msgNoMatches    = "No relevant information found in the documents."
	msgEmptyContext = "No context available to answer the query."
)

// Retriever answers queries with small-to-big retrieval: child chunks
// are matched by similarity, their parent chunks provide the answer
// context.
type Retriever struct {
	indexName string
	topK      int
	generator Generator
	embedder  model.EmbedderInterface
	vectors   store.VectorStorer
	meta      store.DBStorer
	log       *logger.Logger
}

func NewRetriever(
	indexName string,
	topK int,
	generator Generator,
	embedder model.EmbedderInterface,
	vectors store.VectorStorer,
	meta store.DBStorer,
	log *logger.Logger,
) *Retriever {
	return &Retriever{
		indexName: indexName,
		topK:      topK,
		generator: generator,
		embedder:  embedder,
		vectors:   vectors,
		meta:      meta,
		log:       log,
	}
}

// Answer runs the full query path. topK <= 0 falls back to the
// configured default. The generated answer always sees the user's
// original query; the reformulated variant only drives the search.
func (r *Retriever) Answer(ctx context.Context, query string, topK int) (*types.QueryResponse, error) {
	if topK <= 0 {
		topK = r.topK
	}

	searchQuery := query
	if reformulated, err := r.generator.ReformulateQuery(ctx, query); err != nil {
		r.log.Warn("query reformulation failed, using original query", "error", err)
	} else if reformulated != "" {
		searchQuery = reformulated
	}

	embedding, err := r.embedder.Embed(ctx, searchQuery)
	if err != nil {
		return nil, err
	}

	matches, err := r.vectors.Query(ctx, r.indexName, embedding, topK, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &types.QueryResponse{
			Answer:      msgNoMatches,
			Query:       query,
			ContextUsed: false,
		}, nil
	}

	keys := distinctParentKeys(matches)

	parents, err := r.meta.GetParentChunksByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return &types.QueryResponse{
			Answer:      msgEmptyContext,
			Query:       query,
			ContextUsed: false,
		}, nil
	}

	docContext := joinParents(keys, parents)

	answer, err := r.generator.Answer(ctx, query, docContext)
	if err != nil {
		return nil, err
	}

	return &types.QueryResponse{
		Answer:      answer,
		Query:       query,
		ContextUsed: true,
	}, nil
}

// distinctParentKeys keeps the first appearance order of the ranked
// matches, so the highest scoring parent leads the context.
func distinctParentKeys(matches []types.VectorMatch) []types.ParentKey {
	seen := make(map[types.ParentKey]bool, len(matches))
	var keys []types.ParentKey
	for _, m := range matches {
		k := types.ParentKey{DocID: m.DocID, ParentID: m.ParentID}
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// joinParents concatenates parent texts in key order. The store does
// not guarantee result order, so parents are reordered here.
func joinParents(keys []types.ParentKey, parents []types.ParentChunk) string {
	byKey := make(map[types.ParentKey]string, len(parents))
	for _, p := range parents {
		byKey[types.ParentKey{DocID: p.DocID, ParentID: p.ParentID}] = p.Text
	}

	var b strings.Builder
	for _, k := range keys {
		text, ok := byKey[k]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	return b.String()
}
