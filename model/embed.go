package model

import (
	"context"
	"sync"
)

// EmbedderInterface converts text into fixed-dimension vectors. EmbedBatch
// preserves input order in its output.
type EmbedderInterface interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

var (
	defaultOnce     sync.Once
	defaultEmbedder *OllamaEmbedder
)

// DefaultEmbedder returns the process-wide embedder, constructing it exactly
// once even under concurrent first use. The handle is safe for concurrent
// reads afterwards.
func DefaultEmbedder(apiURL, model string, dim int) *OllamaEmbedder {
	defaultOnce.Do(func() {
		defaultEmbedder = NewOllamaEmbedder(apiURL, model, dim)
	})
	return defaultEmbedder
}
