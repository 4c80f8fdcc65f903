package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const (
	indexMagic   = uint32(0x52414756) // "RAGV"
	indexVersion = uint32(1)
)

type entryKey struct {
	docID string
	index int
}

type storedEntry struct {
	Entry
	seq uint64
}

// MemoryIndex is a brute-force in-memory vector index with cosine similarity
// search and binary file persistence.
type MemoryIndex struct {
	mu         sync.RWMutex
	entries    []storedEntry
	byKey      map[entryKey]int
	dimensions int
	nextSeq    uint64
	logger     *zap.Logger
}

// Option configures a MemoryIndex.
type Option func(*MemoryIndex)

// WithLogger sets the logger used by the index.
func WithLogger(logger *zap.Logger) Option {
	return func(m *MemoryIndex) {
		m.logger = logger
	}
}

// NewMemoryIndex creates an empty index for vectors of the given dimensions.
func NewMemoryIndex(dimensions int, opts ...Option) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	m := &MemoryIndex{
		byKey:      make(map[entryKey]int),
		dimensions: dimensions,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Insert adds entries as a single atomic set. Validation happens before any
// mutation, so a failed call leaves the index unchanged.
func (m *MemoryIndex) Insert(ctx context.Context, entries []Entry, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[entryKey]bool, len(entries))
	for _, e := range entries {
		if len(e.Vector) != m.dimensions {
			return fmt.Errorf("vector for document %s chunk %d has %d dimensions, index expects %d",
				e.Meta.DocumentID, e.Meta.ChunkIndex, len(e.Vector), m.dimensions)
		}
		key := entryKey{docID: e.Meta.DocumentID, index: e.Meta.ChunkIndex}
		if seen[key] {
			return &DuplicateError{DocumentID: e.Meta.DocumentID, ChunkIndex: e.Meta.ChunkIndex}
		}
		seen[key] = true
		if _, exists := m.byKey[key]; exists && !overwrite {
			return &DuplicateError{DocumentID: e.Meta.DocumentID, ChunkIndex: e.Meta.ChunkIndex}
		}
	}

	for _, e := range entries {
		key := entryKey{docID: e.Meta.DocumentID, index: e.Meta.ChunkIndex}
		if pos, exists := m.byKey[key]; exists {
			m.removeAt(pos)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		m.byKey[key] = len(m.entries)
		m.entries = append(m.entries, storedEntry{
			Entry: Entry{Meta: e.Meta, Text: e.Text, Vector: vec},
			seq:   m.nextSeq,
		})
		m.nextSeq++
	}

	m.logger.Debug("inserted entries", zap.Int("count", len(entries)), zap.Int("total", len(m.entries)))
	return nil
}

// DeleteByDocument removes every entry belonging to the document.
func (m *MemoryIndex) DeleteByDocument(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for i := 0; i < len(m.entries); {
		if m.entries[i].Meta.DocumentID == docID {
			m.removeAt(i)
			removed++
			continue
		}
		i++
	}

	if removed > 0 {
		m.logger.Debug("deleted document entries", zap.String("document_id", docID), zap.Int("removed", removed))
	}
	return nil
}

// removeAt deletes the entry at pos, keeping byKey consistent.
// Caller holds the write lock.
func (m *MemoryIndex) removeAt(pos int) {
	victim := m.entries[pos]
	delete(m.byKey, entryKey{docID: victim.Meta.DocumentID, index: victim.Meta.ChunkIndex})

	last := len(m.entries) - 1
	if pos != last {
		moved := m.entries[last]
		m.entries[pos] = moved
		m.byKey[entryKey{docID: moved.Meta.DocumentID, index: moved.Meta.ChunkIndex}] = pos
	}
	m.entries = m.entries[:last]
}

// Search returns the k most similar entries to the query vector.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, index expects %d", len(query), m.dimensions)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		entry storedEntry
		score float64
	}
	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		candidates = append(candidates, scored{entry: e, score: cosineSimilarity(query, e.Vector)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.seq < candidates[j].entry.seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]Result, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, Result{
			Meta:  c.entry.Meta,
			Text:  c.entry.Text,
			Score: c.score,
		})
	}
	return results, nil
}

// Count returns the number of indexed entries.
func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close releases resources. The in-memory index has none, but callers should
// Save first if they want persistence.
func (m *MemoryIndex) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b, clamped
// to [0,1]. Vectors are expected to be L2-normalized, in which case this is
// just the dot product.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// Save writes the index to path in a little-endian binary format.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}

	if err := m.writeTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index file: %w", err)
	}

	m.logger.Info("saved vector index", zap.String("path", path), zap.Int("entries", len(m.entries)))
	return nil
}

func (m *MemoryIndex) writeTo(w io.Writer) error {
	write := func(v any) error {
		return binary.Write(w, binary.LittleEndian, v)
	}

	if err := write(indexMagic); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := write(indexVersion); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := write(uint32(m.dimensions)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := write(uint32(len(m.entries))); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	writeString := func(s string) error {
		if err := write(uint32(len(s))); err != nil {
			return err
		}
		_, err := w.Write([]byte(s))
		return err
	}

	for _, e := range m.entries {
		if err := writeString(e.Meta.DocumentID); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		if err := writeString(e.Meta.Filename); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		if err := write(uint32(e.Meta.ChunkIndex)); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		if err := writeString(e.Text); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		if err := write(e.Vector); err != nil {
			return fmt.Errorf("writing entry vector: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with those read from path. A missing file
// leaves the index empty and is not an error.
func (m *MemoryIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	entries, dims, err := readFrom(f)
	if err != nil {
		return err
	}
	if dims != m.dimensions {
		return fmt.Errorf("index file has %d dimensions, index expects %d", dims, m.dimensions)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = m.entries[:0]
	m.byKey = make(map[entryKey]int, len(entries))
	m.nextSeq = 0
	for _, e := range entries {
		key := entryKey{docID: e.Meta.DocumentID, index: e.Meta.ChunkIndex}
		m.byKey[key] = len(m.entries)
		m.entries = append(m.entries, storedEntry{Entry: e, seq: m.nextSeq})
		m.nextSeq++
	}

	m.logger.Info("loaded vector index", zap.String("path", path), zap.Int("entries", len(m.entries)))
	return nil
}

func readFrom(r io.Reader) ([]Entry, int, error) {
	read := func(v any) error {
		return binary.Read(r, binary.LittleEndian, v)
	}

	var magic, version, dims, count uint32
	if err := read(&magic); err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	if magic != indexMagic {
		return nil, 0, fmt.Errorf("not a vector index file (magic %08x)", magic)
	}
	if err := read(&version); err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	if version != indexVersion {
		return nil, 0, fmt.Errorf("unsupported index version %d", version)
	}
	if err := read(&dims); err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	if err := read(&count); err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	readString := func() (string, error) {
		var n uint32
		if err := read(&n); err != nil {
			return "", err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		var e Entry
		var err error
		if e.Meta.DocumentID, err = readString(); err != nil {
			return nil, 0, fmt.Errorf("reading entry %d: %w", i, err)
		}
		if e.Meta.Filename, err = readString(); err != nil {
			return nil, 0, fmt.Errorf("reading entry %d: %w", i, err)
		}
		var idx uint32
		if err := read(&idx); err != nil {
			return nil, 0, fmt.Errorf("reading entry %d: %w", i, err)
		}
		e.Meta.ChunkIndex = int(idx)
		if e.Text, err = readString(); err != nil {
			return nil, 0, fmt.Errorf("reading entry %d: %w", i, err)
		}
		e.Vector = make([]float32, dims)
		if err := read(&e.Vector); err != nil {
			return nil, 0, fmt.Errorf("reading entry %d vector: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, int(dims), nil
}

var _ Index = (*MemoryIndex)(nil)
