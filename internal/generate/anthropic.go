package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-latest"

	// Required API version header.
	anthropicVersion = "2023-06-01"
)

// AnthropicConfig holds configuration for the Anthropic generator.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Temperature controls sampling randomness (default: 0.7).
	Temperature float64

	// MaxTokens caps the answer length (default: 1000).
	MaxTokens int

	// Timeout bounds each API call (default: 60s).
	Timeout time.Duration
}

// AnthropicGenerator produces answers using the Anthropic messages API.
type AnthropicGenerator struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &AnthropicGenerator{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate answers the question using the assembled context.
func (g *AnthropicGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	reqBody := messagesRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      systemPrompt,
		Temperature: g.temperature,
		Messages: []messagesMessage{
			{Role: "user", Content: buildPrompt(question, contextText)},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("read response: %w", err)}
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("decode response: %w", err)}
	}

	if msgResp.Error != nil {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("%s: %s", msgResp.Error.Type, msgResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}
	if len(msgResp.Content) == 0 {
		return "", &GenerationError{Provider: "anthropic", Err: fmt.Errorf("no response content returned")}
	}

	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

// ModelName returns the configured model name.
func (g *AnthropicGenerator) ModelName() string {
	return g.model
}

// Close releases resources.
func (g *AnthropicGenerator) Close() error {
	return nil
}

var _ Generator = (*AnthropicGenerator)(nil)
