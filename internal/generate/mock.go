package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockGenerator is a deterministic Generator for tests and offline use. It
// echoes the question and records every prompt it receives.
type MockGenerator struct {
	mu      sync.Mutex
	calls   []string
	answer  string
	failErr error
}

// NewMockGenerator creates a mock that answers with the given text, or a
// canned echo when text is empty.
func NewMockGenerator(answer string) *MockGenerator {
	return &MockGenerator{answer: answer}
}

// FailWith makes subsequent Generate calls return the error.
func (m *MockGenerator) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Generate returns the configured answer and records the prompt.
func (m *MockGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, buildPrompt(question, contextText))
	if m.failErr != nil {
		return "", &GenerationError{Provider: "mock", Err: m.failErr}
	}
	if m.answer != "" {
		return m.answer, nil
	}
	return fmt.Sprintf("mock answer to: %s", strings.TrimSpace(question)), nil
}

// Calls returns the prompts passed to Generate, in order.
func (m *MockGenerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// ModelName identifies the mock.
func (m *MockGenerator) ModelName() string {
	return "mock"
}

// Close releases resources.
func (m *MockGenerator) Close() error {
	return nil
}

var _ Generator = (*MockGenerator)(nil)
