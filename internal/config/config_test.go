package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ingest.ChunkSize != 1000 || cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("chunking defaults = %d/%d, want 1000/200", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Query.DefaultTopK != 5 || cfg.Query.MaxTopK != 20 {
		t.Errorf("top_k defaults = %d/%d, want 5/20", cfg.Query.DefaultTopK, cfg.Query.MaxTopK)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("embedding dimensions = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm model = %q", cfg.LLM.Model)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "storage:\n  database_path: ./db/ragqa.db\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "db/ragqa.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadAPIKeysFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  provider: anthropic\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("embedding api key = %q", cfg.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "ak-test" {
		t.Errorf("llm api key = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "claude-3-5-sonnet-latest" {
		t.Errorf("anthropic default model = %q", cfg.LLM.Model)
	}
}

func TestApplyDefaultsDoesNotOverride(t *testing.T) {
	cfg := &Config{}
	cfg.Ingest.ChunkSize = 512
	cfg.Ingest.ChunkOverlap = 64
	ApplyDefaults(cfg)
	if cfg.Ingest.ChunkSize != 512 || cfg.Ingest.ChunkOverlap != 64 {
		t.Errorf("explicit values overridden: %d/%d", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
}
