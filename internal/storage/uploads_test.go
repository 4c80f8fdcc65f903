package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUploadStoreSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUploadStore(dir)
	if err != nil {
		t.Fatalf("NewUploadStore failed: %v", err)
	}

	path, err := store.Save("doc-1", "report.pdf", []byte("content"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "doc-1_report.pdf" {
		t.Errorf("stored name = %s, want doc-1_report.pdf", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("stored content = %q", data)
	}

	if err := store.Remove("doc-1", "report.pdf"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after Remove")
	}

	// Removing an absent file is fine.
	if err := store.Remove("doc-1", "report.pdf"); err != nil {
		t.Errorf("repeated Remove failed: %v", err)
	}
}

func TestUploadStoreStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUploadStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Save("doc-1", "../evil.txt", []byte("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file escaped uploads dir: %s", path)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.bin"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}

	total, err := DiskUsageBytes(dir)
	if err != nil {
		t.Fatalf("DiskUsageBytes failed: %v", err)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}

	// Missing paths contribute zero.
	total, err = DiskUsageBytes(dir, filepath.Join(dir, "absent"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 150 {
		t.Errorf("total with missing path = %d, want 150", total)
	}
}
