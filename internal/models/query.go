package models

import "fmt"

// Query represents a question against the indexed corpus.
type Query struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate checks the query and applies defaults. defaultK is used when TopK
// is unset; maxK caps it. Returns an error for an empty question or a TopK
// above the configured maximum.
func (q *Query) Validate(defaultK, maxK int) error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK < 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if q.TopK == 0 {
		q.TopK = defaultK
	}
	if q.TopK > maxK {
		return fmt.Errorf("top_k %d exceeds maximum %d", q.TopK, maxK)
	}
	return nil
}
