package vector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/Kolash2003/RAG-based-QA/internal/models"
)

func entry(docID string, idx int, text string, vec ...float32) Entry {
	return Entry{
		Meta:   models.ChunkMeta{DocumentID: docID, Filename: docID + ".txt", ChunkIndex: idx},
		Text:   text,
		Vector: vec,
	}
}

func TestNewMemoryIndexValidation(t *testing.T) {
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if _, err := NewMemoryIndex(-3); err == nil {
		t.Error("expected error for negative dimensions")
	}
	if _, err := NewMemoryIndex(3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInsertAndSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	entries := []Entry{
		entry("doc1", 0, "alpha", 1, 0, 0),
		entry("doc1", 1, "beta", 0, 1, 0),
		entry("doc2", 0, "gamma", 0, 0, 1),
	}
	if err := idx.Insert(ctx, entries, false); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got := idx.Count(); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Text != "alpha" {
		t.Errorf("top result = %q, want alpha", results[0].Text)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("top score = %f, want 1.0", results[0].Score)
	}
	if results[0].Meta.DocumentID != "doc1" || results[0].Meta.ChunkIndex != 0 {
		t.Errorf("top meta = %+v", results[0].Meta)
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{
		entry("doc1", 0, "a", 1, 0),
		entry("doc1", 1, "b", 0, 1),
	}, false); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchValidation(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()

	if _, err := idx.Search(ctx, []float32{1, 0}, 5); err == nil {
		t.Error("expected error for wrong query dimensions")
	}
	if _, err := idx.Search(ctx, []float32{1, 0, 0}, 0); err == nil {
		t.Error("expected error for k=0")
	}
}

func TestInsertDuplicate(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "first", 1, 0)}, false); err != nil {
		t.Fatal(err)
	}
	err := idx.Insert(ctx, []Entry{entry("doc1", 0, "second", 0, 1)}, false)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.DocumentID != "doc1" || dup.ChunkIndex != 0 {
		t.Errorf("DuplicateError = %+v", dup)
	}

	// Failed insert must not change the index.
	results, err := idx.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Text != "first" {
		t.Errorf("entry was overwritten without overwrite flag: %q", results[0].Text)
	}
}

func TestInsertAtomicOnPartialDuplicate(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "a", 1, 0)}, false); err != nil {
		t.Fatal(err)
	}

	// Second entry collides, so neither should land.
	err := idx.Insert(ctx, []Entry{
		entry("doc2", 0, "b", 0, 1),
		entry("doc1", 0, "clash", 1, 1),
	}, false)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count = %d after failed insert, want 1", idx.Count())
	}
}

func TestInsertOverwrite(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "old", 1, 0)}, false); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "new", 1, 0)}, true); err != nil {
		t.Fatalf("overwrite insert failed: %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count = %d, want 1", idx.Count())
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Text != "new" {
		t.Errorf("got %q, want new", results[0].Text)
	}
}

func TestInsertDimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	err := idx.Insert(context.Background(), []Entry{entry("doc1", 0, "a", 1, 0)}, false)
	if err == nil {
		t.Error("expected error for wrong vector dimensions")
	}
	if idx.Count() != 0 {
		t.Errorf("Count = %d after failed insert, want 0", idx.Count())
	}
}

func TestDeleteByDocument(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{
		entry("doc1", 0, "a", 1, 0),
		entry("doc1", 1, "b", 0, 1),
		entry("doc2", 0, "c", 1, 1),
	}, false); err != nil {
		t.Fatal(err)
	}

	if err := idx.DeleteByDocument(ctx, "doc1"); err != nil {
		t.Fatalf("DeleteByDocument failed: %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count = %d, want 1", idx.Count())
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Meta.DocumentID == "doc1" {
			t.Errorf("deleted document returned from search: %+v", r.Meta)
		}
	}

	// Deleting again or deleting an unknown document is a no-op.
	if err := idx.DeleteByDocument(ctx, "doc1"); err != nil {
		t.Errorf("repeated delete failed: %v", err)
	}
	if err := idx.DeleteByDocument(ctx, "nope"); err != nil {
		t.Errorf("delete of unknown document failed: %v", err)
	}
}

func TestDeleteThenReinsert(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "a", 1, 0)}, false); err != nil {
		t.Fatal(err)
	}
	if err := idx.DeleteByDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "again", 1, 0)}, false); err != nil {
		t.Fatalf("reinsert after delete failed: %v", err)
	}
}

func TestSearchTieBreakByInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	// Identical vectors score identically; insertion order decides.
	if err := idx.Insert(ctx, []Entry{
		entry("doc1", 0, "first", 1, 0),
		entry("doc2", 0, "second", 1, 0),
		entry("doc3", 0, "third", 1, 0),
	}, false); err != nil {
		t.Fatal(err)
	}

	for trial := 0; trial < 5; trial++ {
		results, err := idx.Search(ctx, []float32{1, 0}, 3)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"first", "second", "third"}
		for i, w := range want {
			if results[i].Text != w {
				t.Fatalf("trial %d: results[%d] = %q, want %q", trial, i, results[i].Text, w)
			}
		}
	}
}

func TestScoreClamping(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	// Opposite vector has cosine -1, which clamps to 0.
	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "opposite", -1, 0)}, false); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Score != 0 {
		t.Errorf("score = %f, want 0 for opposite vector", results[0].Score)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.idx")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(3)
	entries := []Entry{
		entry("doc1", 0, "hello world", 0.1, 0.2, 0.3),
		entry("doc1", 1, "second chunk", 0.4, 0.5, 0.6),
		entry("doc2", 0, "other doc", 0.7, 0.8, 0.9),
	}
	if err := idx.Insert(ctx, entries, false); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, _ := NewMemoryIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 3 {
		t.Fatalf("loaded Count = %d, want 3", loaded.Count())
	}

	origResults, err := idx.Search(ctx, []float32{0.1, 0.2, 0.3}, 3)
	if err != nil {
		t.Fatal(err)
	}
	loadedResults, err := loaded.Search(ctx, []float32{0.1, 0.2, 0.3}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range origResults {
		if origResults[i].Text != loadedResults[i].Text {
			t.Errorf("result %d: text %q != %q", i, origResults[i].Text, loadedResults[i].Text)
		}
		if origResults[i].Meta != loadedResults[i].Meta {
			t.Errorf("result %d: meta %+v != %+v", i, origResults[i].Meta, loadedResults[i].Meta)
		}
		if math.Abs(origResults[i].Score-loadedResults[i].Score) > 1e-9 {
			t.Errorf("result %d: score %f != %f", i, origResults[i].Score, loadedResults[i].Score)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	if err := idx.Load(filepath.Join(t.TempDir(), "absent.idx")); err != nil {
		t.Errorf("Load of missing file should be a no-op, got %v", err)
	}
	if idx.Count() != 0 {
		t.Errorf("Count = %d, want 0", idx.Count())
	}
}

func TestLoadDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.idx")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(2)
	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "a", 1, 0)}, false); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	other, _ := NewMemoryIndex(3)
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error on Load")
	}
}

func TestCancelledContext(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := idx.Insert(ctx, []Entry{entry("doc1", 0, "a", 1, 0)}, false); !errors.Is(err, context.Canceled) {
		t.Errorf("Insert: got %v, want context.Canceled", err)
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Search: got %v, want context.Canceled", err)
	}
}
