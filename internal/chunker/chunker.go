// Package chunker splits extracted text into overlapping fixed-size chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/Kolash2003/RAG-based-QA/internal/models"
)

// Chunker splits text into overlapping character-based chunks. Chunking is
// deterministic: the same text and parameters always produce the same
// sequence, and reassembling the sequence with overlaps removed reproduces
// the input exactly.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given size and overlap, both in characters
// (runes). Requires size > 0 and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into chunks for docID. The window advances by
// size-overlap each step; the final window may be shorter than size but is
// never empty. Empty text yields no chunks. Every chunk after the first
// shares exactly overlap characters with its predecessor.
func (c *Chunker) Chunk(docID, text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var chunks []models.Chunk
	for start := 0; ; start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		overlap := 0
		if start > 0 {
			overlap = c.overlap
		}
		chunks = append(chunks, models.Chunk{
			DocumentID: docID,
			Index:      len(chunks),
			Text:       string(runes[start:end]),
			Length:     end - start,
			Overlap:    overlap,
		})
		if end >= len(runes) {
			break
		}
	}
	return chunks
}

// Reassemble concatenates chunks in sequence order with overlaps removed,
// reconstructing the original text. Chunks must be in ascending index order.
func Reassemble(chunks []models.Chunk) string {
	var b strings.Builder
	for _, ch := range chunks {
		runes := []rune(ch.Text)
		if ch.Overlap >= len(runes) {
			continue
		}
		b.WriteString(string(runes[ch.Overlap:]))
	}
	return b.String()
}
