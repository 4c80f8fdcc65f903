package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Kolash2003/RAG-based-QA/pkg/utils"
)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 1536
	DefaultBatchSize  = 64
	DefaultTimeout    = 30 * time.Second
	defaultRetryDelay = 2 * time.Second
)

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL (for Azure/compatible endpoints and tests).
	BaseURL string

	// Model is the embedding model (default: text-embedding-3-small).
	Model string

	// Dimensions is the embedding dimensionality (default: 1536).
	Dimensions int

	// BatchSize caps how many texts are sent in one API call.
	BatchSize int

	// MaxConcurrent bounds concurrent batch requests during EmbedBatch.
	MaxConcurrent int

	// MaxRetries is the total attempt count per API call (default: 3).
	MaxRetries int

	// Timeout applies per API call.
	Timeout time.Duration

	// CacheSize is the LRU cache capacity; 0 disables caching.
	CacheSize int
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API with
// bounded retry and an LRU cache. Vectors are unit-normalized.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         openai.EmbeddingModel
	dimensions    int
	batchSize     int
	maxConcurrent int
	maxRetries    int
	retryDelay    time.Duration
	timeout       time.Duration
	cache         *Cache
	logger        *zap.Logger // optional; when set, logs retry and batch events
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*OpenAIEmbedder)

// WithLogger sets a logger for debug output (retries, batch fan-out).
func WithLogger(l *zap.Logger) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.logger = l }
}

// NewOpenAIEmbedder creates an embedder from cfg. Returns an error when the
// API key is missing.
func NewOpenAIEmbedder(cfg Config, opts ...OpenAIOption) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	e := &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         openai.EmbeddingModel(cfg.Model),
		dimensions:    cfg.Dimensions,
		batchSize:     cfg.BatchSize,
		maxConcurrent: cfg.MaxConcurrent,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    defaultRetryDelay,
		timeout:       cfg.Timeout,
	}
	if cfg.CacheSize > 0 {
		e.cache = NewCache(cfg.CacheSize)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if vec, ok := e.cache.Get(text); ok {
			return vec, nil
		}
	}
	vecs, err := e.embedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(text, vecs[0])
	}
	return vecs[0], nil
}

// EmbedBatch returns one embedding per text, preserving input order. Texts
// are partitioned into batches of at most the configured batch size, with a
// bounded number of batches in flight concurrently.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: start, texts: texts[start:end]})
	}

	results := make([][]float32, len(texts))
	sem := make(chan struct{}, e.maxConcurrent)
	errChan := make(chan error, len(batches))
	var wg sync.WaitGroup
	for _, b := range batches {
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			vecs, err := e.embedWithRetry(ctx, b.texts)
			if err != nil {
				errChan <- err
				return
			}
			copy(results[b.start:], vecs)
		}(b)
	}
	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// embedWithRetry calls the embeddings API with exponential backoff, wrapping
// the final failure in a ServiceError.
func (e *OpenAIEmbedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			if e.logger != nil {
				e.logger.Debug("embedding retry", zap.Int("attempt", attempt+1), zap.Error(lastErr))
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(utils.Backoff(e.retryDelay, attempt)):
			}
		}
		vecs, err := e.embedOnce(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, &ServiceError{Attempts: e.maxRetries, Err: lastErr}
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	}
	// Only text-embedding-3 models accept an explicit dimensions parameter.
	if strings.HasPrefix(string(e.model), "text-embedding-3") {
		req.Dimensions = e.dimensions
	}
	resp, err := e.client.CreateEmbeddings(callCtx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		utils.NormalizeL2(vec)
		vecs[d.Index] = vec
	}
	return vecs, nil
}

// Dimensions returns the embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
