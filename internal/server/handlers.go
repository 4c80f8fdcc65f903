package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/internal/embedding"
	"github.com/Kolash2003/RAG-based-QA/internal/extract"
	"github.com/Kolash2003/RAG-based-QA/internal/generate"
	"github.com/Kolash2003/RAG-based-QA/internal/ingest"
	"github.com/Kolash2003/RAG-based-QA/internal/config"
	"github.com/Kolash2003/RAG-based-QA/internal/models"
	"github.com/Kolash2003/RAG-based-QA/internal/storage"
	"github.com/Kolash2003/RAG-based-QA/pkg/utils"
)

func storageDiskUsage(cfg *config.Config) (int64, error) {
	return storage.DiskUsageBytes(
		cfg.Storage.DatabasePath,
		cfg.Storage.VectorIndexPath,
		cfg.Storage.UploadsDir,
	)
}

// Source text in query responses is capped at this many characters.
const sourceTextLimit = 500

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	// Slightly above the document limit to leave room for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	s.logger.Debug("upload request",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(content)),
	)

	doc, err := s.ingestor.Ingest(r.Context(), header.Filename, content)
	if err != nil {
		s.respondIngestError(w, err)
		return
	}
	s.persistIndex()

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"chunk_count": doc.ChunkCount,
		"uploaded_at": doc.IngestedAt,
	})
}

func (s *Server) respondIngestError(w http.ResponseWriter, err error) {
	var tooLarge *ingest.TooLargeError
	var unsupported *extract.UnsupportedFormatError
	var extraction *extract.ExtractionError
	var noText *ingest.NoTextError
	var svcErr *embedding.ServiceError

	switch {
	case errors.As(err, &tooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &unsupported):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &extraction), errors.As(err, &noText):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &svcErr):
		s.logger.Error("ingestion failed upstream", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

type sourceResponse struct {
	Text           string  `json:"text"`
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var query models.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.logger.Debug("query request",
		zap.String("question", utils.Truncate(query.Question, 120)),
		zap.Int("top_k", query.TopK),
	)

	answer, err := s.engine.Answer(r.Context(), query)
	if err != nil {
		var svcErr *embedding.ServiceError
		var genErr *generate.GenerationError
		switch {
		case errors.As(err, &svcErr), errors.As(err, &genErr):
			s.logger.Error("query failed upstream", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
		default:
			s.respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	sources := make([]sourceResponse, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		sources = append(sources, sourceResponse{
			Text:           utils.Truncate(src.Text, sourceTextLimit),
			DocumentID:     src.Meta.DocumentID,
			Filename:       src.Meta.Filename,
			ChunkIndex:     src.Meta.ChunkIndex,
			RelevanceScore: src.Score,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"question":          answer.Question,
		"answer":            answer.Text,
		"sources":           sources,
		"source_count":      answer.SourceCount,
		"context_truncated": answer.ContextTruncated,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.ingestor.Delete(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistIndex()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// persistIndex writes the vector index to disk after a mutation. The request
// already succeeded, so a save failure is only logged.
func (s *Server) persistIndex() {
	if s.cfg.Storage.VectorIndexPath == "" {
		return
	}
	if err := s.index.Save(s.cfg.Storage.VectorIndexPath); err != nil {
		s.logger.Warn("vector index save failed",
			zap.String("path", s.cfg.Storage.VectorIndexPath),
			zap.Error(err),
		)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("stats: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.store.CountChunks(ctx)
	if err != nil {
		s.logger.Error("stats: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"documents":         docCount,
		"chunks":            chunkCount,
		"vector_index_size": s.index.Count(),
		"config": map[string]interface{}{
			"embedding_model":      s.cfg.Embedding.Model,
			"embedding_dimensions": s.cfg.Embedding.Dimensions,
			"llm_model":            s.cfg.LLM.Model,
			"chunk_size":           s.cfg.Ingest.ChunkSize,
			"chunk_overlap":        s.cfg.Ingest.ChunkOverlap,
		},
	}

	diskBytes, err := storageDiskUsage(s.cfg)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if _, err := s.store.CountDocuments(r.Context()); err != nil {
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             status,
		"embedding_provider": s.cfg.Embedding.Provider,
		"llm_provider":       s.cfg.LLM.Provider,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
