// Package generate produces grounded answers from retrieved context using an LLM.
package generate

import (
	"context"
	"fmt"
)

// Generator defines answer generation from a question and assembled context.
type Generator interface {
	// Generate returns the model's answer to the question, grounded in the
	// provided context text.
	Generate(ctx context.Context, question, contextText string) (string, error)

	// ModelName returns the name of the underlying model.
	ModelName() string

	Close() error
}

// GenerationError indicates the language model call failed.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

const systemPrompt = `You are a helpful assistant that answers questions based on the provided context.
Answer only using the information in the context. If the context does not contain
enough information to answer the question, say so plainly.`

// buildPrompt assembles the user prompt from context blocks and the question.
func buildPrompt(question, contextText string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", contextText, question)
}
