// Package models defines core data structures for documents, chunks, queries, and answers.
package models

import "time"

// Document represents an ingested document and its chunking outcome.
type Document struct {
	ID         string    `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	Format     string    `json:"format" db:"format"`
	ChunkCount int       `json:"chunk_count" db:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at" db:"ingested_at"`
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval. Index is zero-based and defines ordering within
// the document. Overlap is the number of characters shared with the
// predecessor chunk; it is zero for the first chunk.
type Chunk struct {
	DocumentID string    `json:"document_id" db:"document_id"`
	Index      int       `json:"chunk_index" db:"chunk_index"`
	Text       string    `json:"text" db:"text"`
	Length     int       `json:"length" db:"length"`
	Overlap    int       `json:"overlap" db:"overlap"`
	Embedding  []float32 `json:"-" db:"-"`
}

// ChunkMeta identifies the origin of an indexed chunk.
type ChunkMeta struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}
