package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"BookmarkSummarizer/internal/ports"
)

// GeminiClient implements ports.TextModel with the Gemini API.
type GeminiClient struct {
	models *genai.Models
	model  string
}

var _ ports.TextModel = (*GeminiClient)(nil)

// GeminiConfig holds connection settings. An empty BaseURL uses the public endpoint.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("gemini client misconfigured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{models: client.Models, model: cfg.Model}, nil
}

// Complete generates content with no tools configured, so the model cannot
// reach out to search or retrieval.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
