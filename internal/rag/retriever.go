package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/internal/embedding"
	"github.com/Kolash2003/RAG-based-QA/internal/models"
	"github.com/Kolash2003/RAG-based-QA/internal/vector"
)

// Retriever embeds a question and finds the most relevant indexed chunks.
type Retriever struct {
	embedder embedding.Embedder
	index    vector.Index
	logger   *zap.Logger
}

// NewRetriever creates a retriever over the given embedder and index.
func NewRetriever(embedder embedding.Embedder, index vector.Index, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{embedder: embedder, index: index, logger: logger}
}

// Retrieve returns up to k chunks relevant to the question, ordered by
// descending relevance score.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]models.RetrievalResult, error) {
	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := r.index.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]models.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, models.RetrievalResult{
			Text:  h.Text,
			Meta:  h.Meta,
			Score: h.Score,
		})
	}

	r.logger.Debug("retrieved chunks",
		zap.Int("requested", k),
		zap.Int("returned", len(results)),
	)
	return results, nil
}
