// Package vector provides the vector index and similarity search over chunk embeddings.
package vector

import (
	"context"
	"fmt"

	"github.com/Kolash2003/RAG-based-QA/internal/models"
)

// Entry is one indexed chunk: its text, origin metadata, and embedding.
type Entry struct {
	Meta   models.ChunkMeta
	Text   string
	Vector []float32
}

// Result is a single similarity search hit. Score is cosine similarity
// clamped to [0,1].
type Result struct {
	Meta  models.ChunkMeta
	Text  string
	Score float64
}

// Index defines vector storage and similarity search. Entries passed to a
// single Insert call become visible to Search atomically as a set. Every
// result returned by Search belongs to a document that has not been deleted.
type Index interface {
	// Insert adds entries. Fails with DuplicateError when an entry for the
	// same (document id, chunk index) already exists, unless overwrite is set.
	// On error nothing is inserted.
	Insert(ctx context.Context, entries []Entry, overwrite bool) error

	// DeleteByDocument removes all entries for the document. Deleting an
	// absent document is a no-op, not an error.
	DeleteByDocument(ctx context.Context, docID string) error

	// Search returns the k entries most similar to query, ordered by
	// descending score with ties broken by insertion order. Returns all
	// entries when fewer than k exist.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)

	// Count returns the total number of entries stored.
	Count() int

	Save(path string) error
	Load(path string) error
	Close() error
}

// DuplicateError indicates an insert for a (document id, chunk index) pair
// that is already present.
type DuplicateError struct {
	DocumentID string
	ChunkIndex int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate chunk: document %s chunk %d already indexed", e.DocumentID, e.ChunkIndex)
}
