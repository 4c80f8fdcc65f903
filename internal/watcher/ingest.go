package watcher

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/internal/ingest"
)

// NewIngestWatcher creates a watcher whose file events drive the ingestor.
// A file appearing or changing replaces any previous document with the same
// filename; a file disappearing deletes it.
func NewIngestWatcher(ingestor *ingest.Ingestor, roots, extensions []string, recursive bool, logger *zap.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	onFile := func(path string) {
		ctx := context.Background()
		filename := filepath.Base(path)

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("watched file unreadable", zap.String("path", path), zap.Error(err))
			return
		}

		// Replace rather than accumulate on re-drops of the same file.
		if err := ingestor.DeleteByFilename(ctx, filename); err != nil {
			logger.Warn("removing previous document", zap.String("filename", filename), zap.Error(err))
		}
		if _, err := ingestor.Ingest(ctx, filename, content); err != nil {
			logger.Warn("ingesting watched file", zap.String("path", path), zap.Error(err))
		}
	}

	onRemove := func(path string) {
		filename := filepath.Base(path)
		if err := ingestor.DeleteByFilename(context.Background(), filename); err != nil {
			logger.Warn("deleting document for removed file", zap.String("filename", filename), zap.Error(err))
		}
	}

	allOpts := append([]Option{WithLogger(logger)}, opts...)
	return New(roots, extensions, recursive, onFile, onRemove, allOpts...)
}
