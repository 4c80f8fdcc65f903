// Package ingest runs the per-document pipeline from raw bytes to indexed chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/internal/chunker"
	"github.com/Kolash2003/RAG-based-QA/internal/embedding"
	"github.com/Kolash2003/RAG-based-QA/internal/extract"
	"github.com/Kolash2003/RAG-based-QA/internal/models"
	"github.com/Kolash2003/RAG-based-QA/internal/storage"
	"github.com/Kolash2003/RAG-based-QA/internal/vector"
)

// TooLargeError indicates an upload above the configured size limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("document is %d bytes, limit is %d", e.Size, e.Limit)
}

// NoTextError indicates a document that extracted to empty text.
type NoTextError struct {
	Filename string
}

func (e *NoTextError) Error() string {
	return fmt.Sprintf("no extractable text in %s", e.Filename)
}

// Ingestor converts raw documents into stored, embedded, indexed chunks.
// Each document either lands completely or not at all.
type Ingestor struct {
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	store     storage.Storage
	index     vector.Index
	uploads   *storage.UploadStore
	maxBytes  int64
	logger    *zap.Logger
}

// Config holds the Ingestor dependencies and limits.
type Config struct {
	Chunker  *chunker.Chunker
	Embedder embedding.Embedder
	Store    storage.Storage
	Index    vector.Index
	Uploads  *storage.UploadStore
	MaxBytes int64
	Logger   *zap.Logger
}

// New creates an Ingestor.
func New(cfg Config) (*Ingestor, error) {
	if cfg.Chunker == nil || cfg.Embedder == nil || cfg.Store == nil || cfg.Index == nil {
		return nil, fmt.Errorf("chunker, embedder, store and index are required")
	}
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d", cfg.MaxBytes)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Ingestor{
		extractor: extract.NewExtractor(),
		chunker:   cfg.Chunker,
		embedder:  cfg.Embedder,
		store:     cfg.Store,
		index:     cfg.Index,
		uploads:   cfg.Uploads,
		maxBytes:  cfg.MaxBytes,
		logger:    cfg.Logger,
	}, nil
}

// Ingest runs the full pipeline for one document and returns its record.
func (in *Ingestor) Ingest(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	if int64(len(content)) > in.maxBytes {
		return nil, &TooLargeError{Size: int64(len(content)), Limit: in.maxBytes}
	}

	format, err := extract.DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	text, err := in.extractor.Extract(content, format)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &NoTextError{Filename: filename}
	}

	docID := uuid.NewString()
	chunks := in.chunker.Chunk(docID, text)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding document %s: %w", filename, err)
	}

	doc := &models.Document{
		ID:         docID,
		Filename:   filename,
		Format:     format,
		ChunkCount: len(chunks),
	}
	if err := in.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("storing document %s: %w", filename, err)
	}

	chunkPtrs := make([]*models.Chunk, len(chunks))
	for i := range chunks {
		chunkPtrs[i] = &chunks[i]
	}
	if err := in.store.BatchCreateChunks(ctx, chunkPtrs); err != nil {
		in.rollback(docID, filename)
		return nil, fmt.Errorf("storing chunks for %s: %w", filename, err)
	}

	entries := make([]vector.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vector.Entry{
			Meta:   models.ChunkMeta{DocumentID: docID, Filename: filename, ChunkIndex: c.Index},
			Text:   c.Text,
			Vector: vectors[i],
		}
	}
	if err := in.index.Insert(ctx, entries, false); err != nil {
		in.rollback(docID, filename)
		return nil, fmt.Errorf("indexing %s: %w", filename, err)
	}

	if in.uploads != nil {
		if _, err := in.uploads.Save(docID, filename, content); err != nil {
			in.rollback(docID, filename)
			return nil, err
		}
	}

	in.logger.Info("ingested document",
		zap.String("document_id", docID),
		zap.String("filename", filename),
		zap.String("format", format),
		zap.Int("chunks", len(chunks)),
	)
	return doc, nil
}

// rollback undoes partial state after a mid-pipeline failure. Uses a fresh
// context so cleanup still runs when the caller's context is gone.
func (in *Ingestor) rollback(docID, filename string) {
	ctx := context.Background()
	if err := in.index.DeleteByDocument(ctx, docID); err != nil {
		in.logger.Error("rollback: removing index entries", zap.String("document_id", docID), zap.Error(err))
	}
	if err := in.store.DeleteDocument(ctx, docID); err != nil {
		in.logger.Error("rollback: removing document", zap.String("document_id", docID), zap.Error(err))
	}
	if in.uploads != nil {
		if err := in.uploads.Remove(docID, filename); err != nil {
			in.logger.Error("rollback: removing upload", zap.String("document_id", docID), zap.Error(err))
		}
	}
}

// Delete removes a document from storage, the index, and the uploads
// directory. Deleting an unknown document is a no-op.
func (in *Ingestor) Delete(ctx context.Context, docID string) error {
	doc, err := in.store.GetDocument(ctx, docID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("looking up document %s: %w", docID, err)
	}

	if err := in.index.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("removing index entries for %s: %w", docID, err)
	}
	if err := in.store.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("removing document %s: %w", docID, err)
	}
	if in.uploads != nil && doc != nil {
		if err := in.uploads.Remove(docID, doc.Filename); err != nil {
			return err
		}
	}

	in.logger.Info("deleted document", zap.String("document_id", docID))
	return nil
}

// DeleteByFilename removes the most recently ingested document with the given
// filename. Unknown filenames are a no-op.
func (in *Ingestor) DeleteByFilename(ctx context.Context, filename string) error {
	doc, err := in.store.FindDocumentByFilename(ctx, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up document by filename %s: %w", filename, err)
	}
	return in.Delete(ctx, doc.ID)
}
