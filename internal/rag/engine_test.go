package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Kolash2003/RAG-based-QA/internal/embedding"
	"github.com/Kolash2003/RAG-based-QA/internal/generate"
	"github.com/Kolash2003/RAG-based-QA/internal/models"
	"github.com/Kolash2003/RAG-based-QA/internal/vector"
)

const testDims = 8

func newTestEngine(t *testing.T, gen generate.Generator, cfg Config) (*Engine, vector.Index, embedding.Embedder) {
	t.Helper()

	embedder := embedding.NewMockEmbedder(testDims)
	idx, err := vector.NewMemoryIndex(testDims)
	if err != nil {
		t.Fatal(err)
	}
	retriever := NewRetriever(embedder, idx, nil)

	if cfg.DefaultTopK == 0 {
		cfg = Config{DefaultTopK: 5, MaxTopK: 20, ContextBudget: 6000}
	}
	engine, err := NewEngine(retriever, gen, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return engine, idx, embedder
}

func indexText(t *testing.T, idx vector.Index, embedder embedding.Embedder, docID, filename string, texts ...string) {
	t.Helper()
	ctx := context.Background()

	entries := make([]vector.Entry, 0, len(texts))
	for i, text := range texts {
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, vector.Entry{
			Meta:   models.ChunkMeta{DocumentID: docID, Filename: filename, ChunkIndex: i},
			Text:   text,
			Vector: vec,
		})
	}
	if err := idx.Insert(ctx, entries, false); err != nil {
		t.Fatal(err)
	}
}

func TestAnswerEndToEnd(t *testing.T) {
	gen := generate.NewMockGenerator("The capital is Paris.")
	engine, idx, embedder := newTestEngine(t, gen, Config{})

	indexText(t, idx, embedder, "doc-1", "geography.txt",
		"Paris is the capital of France.",
		"Berlin is the capital of Germany.",
	)

	answer, err := engine.Answer(context.Background(), models.Query{Question: "What is the capital of France?"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer.Text != "The capital is Paris." {
		t.Errorf("answer = %q", answer.Text)
	}
	if answer.SourceCount == 0 || len(answer.Sources) != answer.SourceCount {
		t.Errorf("sources = %d, count = %d", len(answer.Sources), answer.SourceCount)
	}

	// The generator must have seen the retrieved text.
	calls := gen.Calls()
	if len(calls) != 1 {
		t.Fatalf("generator called %d times, want 1", len(calls))
	}
	if !strings.Contains(calls[0], "capital of France") && !strings.Contains(calls[0], "capital of Germany") {
		t.Errorf("prompt missing retrieved context:\n%s", calls[0])
	}
}

func TestAnswerFewerResultsThanTopK(t *testing.T) {
	gen := generate.NewMockGenerator("ok")
	engine, idx, embedder := newTestEngine(t, gen, Config{})

	// Only 3 chunks indexed; top_k defaults to 5.
	indexText(t, idx, embedder, "doc-1", "a.txt", "one", "two", "three")

	answer, err := engine.Answer(context.Background(), models.Query{Question: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if answer.SourceCount != 3 {
		t.Errorf("SourceCount = %d, want 3", answer.SourceCount)
	}
}

func TestAnswerEmptyIndex(t *testing.T) {
	gen := generate.NewMockGenerator("should not be called")
	engine, _, _ := newTestEngine(t, gen, Config{})

	answer, err := engine.Answer(context.Background(), models.Query{Question: "anything"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer.Text != NoResultsAnswer {
		t.Errorf("answer = %q, want canned no-results answer", answer.Text)
	}
	if answer.SourceCount != 0 || len(answer.Sources) != 0 {
		t.Errorf("expected no sources, got %+v", answer.Sources)
	}
	if len(gen.Calls()) != 0 {
		t.Error("generator was called for an empty result set")
	}
}

func TestAnswerValidation(t *testing.T) {
	gen := generate.NewMockGenerator("ok")
	engine, _, _ := newTestEngine(t, gen, Config{})
	ctx := context.Background()

	if _, err := engine.Answer(ctx, models.Query{Question: ""}); err == nil {
		t.Error("expected error for empty question")
	}
	if _, err := engine.Answer(ctx, models.Query{Question: "q", TopK: -1}); err == nil {
		t.Error("expected error for negative top_k")
	}
	if _, err := engine.Answer(ctx, models.Query{Question: "q", TopK: 1000}); err == nil {
		t.Error("expected error for top_k above maximum")
	}
}

func TestAnswerGeneratorFailure(t *testing.T) {
	gen := generate.NewMockGenerator("ok")
	gen.FailWith(errors.New("model down"))
	engine, idx, embedder := newTestEngine(t, gen, Config{})

	indexText(t, idx, embedder, "doc-1", "a.txt", "some content")

	_, err := engine.Answer(context.Background(), models.Query{Question: "q"})
	var genErr *generate.GenerationError
	if !errors.As(err, &genErr) {
		t.Errorf("expected GenerationError, got %v", err)
	}
}

func TestAnswerCancelledContext(t *testing.T) {
	gen := generate.NewMockGenerator("ok")
	engine, idx, embedder := newTestEngine(t, gen, Config{})
	indexText(t, idx, embedder, "doc-1", "a.txt", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Answer(ctx, models.Query{Question: "q"}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestAnswerTruncationFlag(t *testing.T) {
	gen := generate.NewMockGenerator("ok")
	engine, idx, embedder := newTestEngine(t, gen, Config{DefaultTopK: 5, MaxTopK: 20, ContextBudget: 30})

	indexText(t, idx, embedder, "doc-1", "a.txt", strings.Repeat("long content ", 50))

	answer, err := engine.Answer(context.Background(), models.Query{Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if !answer.ContextTruncated {
		t.Error("expected ContextTruncated for oversized single chunk")
	}
}
