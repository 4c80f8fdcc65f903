// Package rag wires retrieval and generation into the question answering pipeline.
package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Kolash2003/RAG-based-QA/internal/models"
)

// builtContext is the assembled prompt context plus bookkeeping about what
// made it in.
type builtContext struct {
	Text      string
	Sources   []models.RetrievalResult
	Truncated bool
}

// ContextBuilder assembles retrieved chunks into a bounded prompt context.
type ContextBuilder struct {
	budget int
}

// NewContextBuilder creates a builder with a character budget for the
// assembled context.
func NewContextBuilder(budget int) (*ContextBuilder, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("context budget must be positive, got %d", budget)
	}
	return &ContextBuilder{budget: budget}, nil
}

// Build takes retrieval results in relevance order and packs a greedy prefix
// of them into the budget, measured in characters. Chunks are included whole;
// a chunk that would overflow the budget stops the packing. When even the
// first chunk exceeds the budget it is truncated rather than dropped, so the
// context is never empty for a non-empty result set.
func (b *ContextBuilder) Build(results []models.RetrievalResult) builtContext {
	var sb strings.Builder
	var out builtContext
	used := 0

	for i, r := range results {
		block := fmt.Sprintf("--- Source %d (%s) ---\n%s", i+1, r.Meta.Filename, r.Text)
		if i > 0 {
			block = "\n\n" + block
		}

		size := utf8.RuneCountInString(block)
		if used+size > b.budget {
			if i == 0 {
				// A single oversized chunk is kept, cut to fit.
				runes := []rune(block)
				sb.WriteString(string(runes[:b.budget]))
				out.Sources = append(out.Sources, r)
				out.Truncated = true
			}
			break
		}

		sb.WriteString(block)
		used += size
		out.Sources = append(out.Sources, r)
	}

	out.Text = sb.String()
	return out
}
