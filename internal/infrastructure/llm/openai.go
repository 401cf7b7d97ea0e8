package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"BookmarkSummarizer/internal/ports"
)

// OpenAIClient implements ports.TextModel backed by OpenAI-compatible chat APIs.
type OpenAIClient struct {
	completions *openai.ChatCompletionService
	model       string
	configured  bool
}

var _ ports.TextModel = (*OpenAIClient)(nil)

// OpenAIConfig holds connection settings. An empty BaseURL uses api.openai.com.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewOpenAIClient builds a client from configuration. Retries are disabled:
// an item whose call fails is retried by the next run instead.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{
		completions: &client.Chat.Completions,
		model:       cfg.Model,
		configured:  cfg.APIKey != "" && cfg.Model != "",
	}
}

// Complete sends the prompt as a single user message without tools.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || !c.configured {
		return "", fmt.Errorf("openai client misconfigured")
	}

	completion, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
