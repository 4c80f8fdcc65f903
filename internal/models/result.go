package models

// RetrievalResult is a single retrieved chunk with its relevance score.
// Score is cosine similarity clamped to [0,1]; results are ordered by
// descending score, ties broken by ascending chunk index.
type RetrievalResult struct {
	Text  string    `json:"text"`
	Meta  ChunkMeta `json:"metadata"`
	Score float64   `json:"relevance_score"`
}

// Answer is the generated response to a query together with the retrieved
// sources that produced it.
type Answer struct {
	Question         string            `json:"question"`
	Text             string            `json:"answer"`
	Sources          []RetrievalResult `json:"sources"`
	SourceCount      int               `json:"source_count"`
	ContextTruncated bool              `json:"context_truncated,omitempty"`
}
