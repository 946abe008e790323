package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docanalyzer/types"
)

// VectorStorer is the vector index gateway used by the ingestion
// pipeline and the retriever.
type VectorStorer interface {
	EnsureIndex(ctx context.Context, name string, dim int, metric string) error
	Upsert(ctx context.Context, name string, chunks []types.ChildChunk) error
	Query(ctx context.Context, name string, embedding []float32, topK int, docID *uuid.UUID) ([]types.VectorMatch, error)
	DeleteByDocument(ctx context.Context, name string, docID uuid.UUID) error
}

// PgVectorIndex stores child chunk embeddings in Postgres with the
// pgvector extension.
type PgVectorIndex struct {
	pool *pgxpool.Pool
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var metricOpclass = map[string]string{
	"cosine":  "vector_cosine_ops",
	"l2":      "vector_l2_ops",
	"ip":      "vector_ip_ops",
	"euclid":  "vector_l2_ops",
	"dotprod": "vector_ip_ops",
}

func NewPgVectorIndex(ctx context.Context, connStr string) (*PgVectorIndex, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, &types.VectorSearchError{Err: fmt.Errorf("failed to create pool: %w", err)}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &types.VectorSearchError{Err: fmt.Errorf("failed to ping postgres: %w", err)}
	}

	return &PgVectorIndex{pool: pool}, nil
}

// EnsureIndex creates the child chunk table and its indexes if they do
// not exist yet. When the table already exists the embedding column
// dimension must match dim.
func (p *PgVectorIndex) EnsureIndex(ctx context.Context, name string, dim int, metric string) error {
	if !identRe.MatchString(name) {
		return &types.VectorSearchError{Err: fmt.Errorf("invalid index name: %q", name)}
	}
	opclass, ok := metricOpclass[metric]
	if !ok {
		return &types.VectorSearchError{Err: fmt.Errorf("unsupported metric: %q", metric)}
	}

	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS %[1]s (
		id UUID PRIMARY KEY,
		doc_id UUID NOT NULL,
		parent_id INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%[2]d)
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s USING ivfflat (embedding %[3]s)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_doc_id ON %[1]s(doc_id);
	`, name, dim, opclass)

	if _, err := p.pool.Exec(ctx, query); err != nil {
		return &types.VectorSearchError{Err: fmt.Errorf("failed to create index %s: %w", name, err)}
	}

	// atttypmod holds the declared vector dimension.
	var existingDim int
	err := p.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		name,
	).Scan(&existingDim)
	if err != nil {
		return &types.VectorSearchError{Err: fmt.Errorf("failed to check index dimension: %w", err)}
	}
	if existingDim != dim {
		return &types.VectorSearchError{Err: fmt.Errorf("index %s has dimension %d, expected %d", name, existingDim, dim)}
	}

	return nil
}

func (p *PgVectorIndex) Upsert(ctx context.Context, name string, chunks []types.ChildChunk) error {
	if !identRe.MatchString(name) {
		return &types.VectorSearchError{Err: fmt.Errorf("invalid index name: %q", name)}
	}
	if len(chunks) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, doc_id, parent_id, content, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		doc_id = EXCLUDED.doc_id,
		parent_id = EXCLUDED.parent_id,
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding
	`, name)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(query, c.ID, c.DocID, c.ParentID, c.Text, pgvector.NewVector(c.Embedding))
	}

	res := p.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range chunks {
		if _, err := res.Exec(); err != nil {
			return &types.VectorSearchError{Err: fmt.Errorf("failed to upsert chunks: %w", err)}
		}
	}
	return nil
}

// Query returns the topK nearest child chunks by cosine distance.
// A non-nil docID restricts the search to one document.
func (p *PgVectorIndex) Query(ctx context.Context, name string, embedding []float32, topK int, docID *uuid.UUID) ([]types.VectorMatch, error) {
	if !identRe.MatchString(name) {
		return nil, &types.VectorSearchError{Err: fmt.Errorf("invalid index name: %q", name)}
	}
	if len(embedding) == 0 {
		return nil, &types.VectorSearchError{Err: fmt.Errorf("empty query embedding")}
	}

	vector := pgvector.NewVector(embedding)

	var rows pgx.Rows
	var err error
	if docID != nil {
		query := fmt.Sprintf(`
		SELECT doc_id, parent_id, content, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE embedding IS NOT NULL AND doc_id = $3
		ORDER BY embedding <=> $1
		LIMIT $2
		`, name)
		rows, err = p.pool.Query(ctx, query, vector, topK, *docID)
	} else {
		query := fmt.Sprintf(`
		SELECT doc_id, parent_id, content, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
		`, name)
		rows, err = p.pool.Query(ctx, query, vector, topK)
	}
	if err != nil {
		return nil, &types.VectorSearchError{Err: fmt.Errorf("failed to search: %w", err)}
	}
	defer rows.Close()

	var matches []types.VectorMatch
	for rows.Next() {
		var m types.VectorMatch
		if err := rows.Scan(&m.DocID, &m.ParentID, &m.Text, &m.Score); err != nil {
			return nil, &types.VectorSearchError{Err: fmt.Errorf("failed to scan match: %w", err)}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.VectorSearchError{Err: fmt.Errorf("failed to read matches: %w", err)}
	}
	return matches, nil
}

func (p *PgVectorIndex) DeleteByDocument(ctx context.Context, name string, docID uuid.UUID) error {
	if !identRe.MatchString(name) {
		return &types.VectorSearchError{Err: fmt.Errorf("invalid index name: %q", name)}
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE doc_id = $1", name)
	if _, err := p.pool.Exec(ctx, query, docID); err != nil {
		return &types.VectorSearchError{Err: fmt.Errorf("failed to delete document vectors: %w", err)}
	}
	return nil
}

func (p *PgVectorIndex) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
