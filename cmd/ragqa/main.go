// Package main is the ragqa CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/internal/chunker"
	"github.com/Kolash2003/RAG-based-QA/internal/cli"
	"github.com/Kolash2003/RAG-based-QA/internal/config"
	"github.com/Kolash2003/RAG-based-QA/internal/embedding"
	"github.com/Kolash2003/RAG-based-QA/internal/generate"
	"github.com/Kolash2003/RAG-based-QA/internal/ingest"
	"github.com/Kolash2003/RAG-based-QA/internal/models"
	"github.com/Kolash2003/RAG-based-QA/internal/rag"
	"github.com/Kolash2003/RAG-based-QA/internal/server"
	"github.com/Kolash2003/RAG-based-QA/internal/storage"
	"github.com/Kolash2003/RAG-based-QA/internal/vector"
	"github.com/Kolash2003/RAG-based-QA/internal/watcher"
	"github.com/Kolash2003/RAG-based-QA/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

// loadConfig loads config from path. When the default path does not exist,
// built-in defaults are used so the CLI works without a config file.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	// Optional .env for API keys; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "delete":
		runDelete()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("ragqa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.NewIngestWatcher(
			components.Ingestor,
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Engine,
		components.Ingestor,
		components.Storage,
		components.Index,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.Index.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct component wiring)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragqa ingest [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	filename := filepath.Base(path)

	if *serverURL != "" {
		result, err := uploadViaHTTP(*serverURL, filename, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Document ingested: %s (%v chunks)\n", result["document_id"], result["chunk_count"])
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()

	doc, err := components.Ingestor.Ingest(context.Background(), filename, content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	components.SaveIndex()
	fmt.Printf("Document ingested: %s (%d chunks)\n", doc.ID, doc.ChunkCount)
}

func uploadViaHTTP(serverURL, filename string, content []byte) (map[string]interface{}, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(serverURL+"/api/v1/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct component wiring)")
	topK := fs.Int("top-k", 0, "number of chunks to retrieve (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragqa query [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: ragqa query [flags] <question>")
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var view *cli.AnswerView
	if *serverURL != "" {
		view, err = queryViaHTTP(*serverURL, question, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components := mustInitialize(*configPath)
		defer components.Close()

		answer, err := components.Engine.Answer(context.Background(), models.Query{Question: question, TopK: *topK})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		view = cli.AnswerViewFrom(answer)
	}

	if err := cli.WriteAnswer(os.Stdout, view, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL, question string, topK int) (*cli.AnswerView, error) {
	payload := map[string]interface{}{"question": question}
	if topK > 0 {
		payload["top_k"] = topK
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var view cli.AnswerView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &view, nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct component wiring)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragqa delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	if *serverURL != "" {
		req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents/"+docID, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Delete failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Document deleted: %s\n", docID)
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()

	if err := components.Ingestor.Delete(context.Background(), docID); err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	components.SaveIndex()
	fmt.Printf("Document deleted: %s\n", docID)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct component wiring)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var stats map[string]interface{}
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Stats failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components := mustInitialize(*configPath)
		defer components.Close()
		ctx := context.Background()

		docCount, err := components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Storage.CountChunks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		stats = map[string]interface{}{
			"documents":         docCount,
			"chunks":            chunkCount,
			"vector_index_size": components.Index.Count(),
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:          %v\n", stats["documents"])
		fmt.Printf("chunks:             %v\n", stats["chunks"])
		fmt.Printf("vector_index_size:  %v\n", stats["vector_index_size"])
		if v, ok := stats["disk_usage_bytes"]; ok {
			fmt.Printf("disk_usage_bytes:   %v\n", v)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Config   *config.Config
	Storage  storage.Storage
	Embedder embedding.Embedder
	Index    vector.Index
	Engine   *rag.Engine
	Ingestor *ingest.Ingestor
	logger   *zap.Logger
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

// SaveIndex persists the vector index to its configured path.
func (c *Components) SaveIndex() {
	if c.Config.Storage.VectorIndexPath == "" {
		return
	}
	if err := c.Index.Save(c.Config.Storage.VectorIndexPath); err != nil {
		c.logger.Warn("vector index save failed", zap.String("path", c.Config.Storage.VectorIndexPath), zap.Error(err))
	}
}

func mustInitialize(configPath string) *Components {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	default:
		embedder, err = embedding.NewOpenAIEmbedder(embedding.Config{
			APIKey:        cfg.Embedding.APIKey,
			Model:         cfg.Embedding.Model,
			Dimensions:    cfg.Embedding.Dimensions,
			BatchSize:     cfg.Embedding.BatchSize,
			MaxConcurrent: cfg.Embedding.MaxConcurrent,
			MaxRetries:    cfg.Embedding.MaxRetries,
			Timeout:       time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
			CacheSize:     cfg.Embedding.CacheSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
	}

	index, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions, vector.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := index.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}

	var generator generate.Generator
	switch cfg.LLM.Provider {
	case "mock":
		generator = generate.NewMockGenerator("")
	case "anthropic":
		generator, err = generate.NewAnthropicGenerator(generate.AnthropicConfig{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize generator: %w", err)
		}
	default:
		generator, err = generate.NewOpenAIGenerator(generate.OpenAIConfig{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: float32(cfg.LLM.Temperature),
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize generator: %w", err)
		}
	}

	uploads, err := storage.NewUploadStore(cfg.Storage.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploads: %w", err)
	}

	ck, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	ingestor, err := ingest.New(ingest.Config{
		Chunker:  ck,
		Embedder: embedder,
		Store:    store,
		Index:    index,
		Uploads:  uploads,
		MaxBytes: cfg.Ingest.MaxUploadBytes,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingestor: %w", err)
	}

	retriever := rag.NewRetriever(embedder, index, logger)
	engine, err := rag.NewEngine(retriever, generator, rag.Config{
		DefaultTopK:   cfg.Query.DefaultTopK,
		MaxTopK:       cfg.Query.MaxTopK,
		ContextBudget: cfg.Query.ContextBudget,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	return &Components{
		Config:   cfg,
		Storage:  store,
		Embedder: embedder,
		Index:    index,
		Engine:   engine,
		Ingestor: ingestor,
		logger:   logger,
	}, nil
}

func printUsage() {
	fmt.Println(`ragqa - Document question answering over your own files

Usage:
  ragqa server [flags]             Start the HTTP server
  ragqa ingest [flags] <file>      Ingest a document
  ragqa query [flags] <question>   Ask a question
  ragqa delete [flags] <id>        Delete a document
  ragqa stats [flags]              Show corpus statistics
  ragqa version                    Show version
  ragqa help                       Show this help

Server Flags:
  --config string    Config file path (default: config.yaml)
  --debug            Enable debug logging

Ingest/Query/Delete/Stats Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to run against local storage directly.
  --top-k int        Chunks to retrieve per query (query only)
  --output string    Output format: text or json (query/stats only)

Environment:
  OPENAI_API_KEY       OpenAI API key (embeddings and default LLM)
  ANTHROPIC_API_KEY    Anthropic API key (llm.provider: anthropic)
  A .env file in the working directory is loaded if present.

Examples:
  ragqa server
  ragqa ingest report.pdf
  ragqa query "What does the report conclude?"
  ragqa query --output json "What does the report conclude?"
  ragqa delete 1b4e28ba-2fa1-11d2-883f-0016d3cca427
  ragqa stats`)
}
