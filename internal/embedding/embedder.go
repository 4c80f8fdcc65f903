// Package embedding provides text embedding via the OpenAI API, with retry and caching.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings for text. Embeddings for the same text
// under the same model configuration are stable across calls. Returned
// vectors are unit-normalized.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ServiceError indicates the upstream embedding service failed after the
// configured retry budget was exhausted.
type ServiceError struct {
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding service failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
