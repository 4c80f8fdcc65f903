package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/internal/generate"
	"github.com/Kolash2003/RAG-based-QA/internal/models"
)

// NoResultsAnswer is returned when the index yields nothing for a question.
// The language model is not called in that case.
const NoResultsAnswer = "No relevant documents found to answer this question."

// Config holds the tunables for the answering engine.
type Config struct {
	DefaultTopK   int
	MaxTopK       int
	ContextBudget int
}

// Engine runs the full question answering pipeline: validate, retrieve,
// assemble context, generate.
type Engine struct {
	retriever *Retriever
	builder   *ContextBuilder
	generator generate.Generator
	cfg       Config
	logger    *zap.Logger
}

// NewEngine wires the pipeline together.
func NewEngine(retriever *Retriever, generator generate.Generator, cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.DefaultTopK <= 0 || cfg.MaxTopK < cfg.DefaultTopK {
		return nil, fmt.Errorf("invalid top_k bounds: default %d, max %d", cfg.DefaultTopK, cfg.MaxTopK)
	}
	builder, err := NewContextBuilder(cfg.ContextBudget)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		retriever: retriever,
		builder:   builder,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Answer validates the query and runs it through the pipeline.
func (e *Engine) Answer(ctx context.Context, query models.Query) (*models.Answer, error) {
	if err := query.Validate(e.cfg.DefaultTopK, e.cfg.MaxTopK); err != nil {
		return nil, err
	}

	results, err := e.retriever.Retrieve(ctx, query.Question, query.TopK)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		e.logger.Info("no relevant chunks found", zap.String("question", query.Question))
		return &models.Answer{
			Question: query.Question,
			Text:     NoResultsAnswer,
		}, nil
	}

	built := e.builder.Build(results)

	text, err := e.generator.Generate(ctx, query.Question, built.Text)
	if err != nil {
		return nil, err
	}

	e.logger.Info("answered question",
		zap.String("question", query.Question),
		zap.Int("sources", len(built.Sources)),
		zap.Bool("context_truncated", built.Truncated),
	)

	return &models.Answer{
		Question:         query.Question,
		Text:             text,
		Sources:          built.Sources,
		SourceCount:      len(built.Sources),
		ContextTruncated: built.Truncated,
	}, nil
}
