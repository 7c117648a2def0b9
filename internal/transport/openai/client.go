// Package openai is the provider facade over the OpenAI-compatible API:
// batch embeddings for the ingest pipeline plus the chat/structured-output
// calls used by the extraction side of the app. It owns retry/backoff and
// per-request timeouts; callers see either a result or the final error.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/domain"
	"github.com/alkashef/vector-store/internal/metrics"
	"github.com/alkashef/vector-store/internal/retry"
)

// Client wraps the OpenAI API for embeddings and completions.
type Client struct {
	client         *openai.Client
	embedModel     string
	chatModel      string
	provider       string
	requestTimeout time.Duration
	retry          retry.Policy
	logger         *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com
	EmbedModel     string // default embedding model
	ChatModel      string // default chat model
	Provider       string // metrics label, e.g. "openai"
	RequestTimeout time.Duration
	Retry          retry.Policy
	Logger         *zap.Logger
}

// NewClient creates an OpenAI-compatible provider facade.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	pol := cfg.Retry
	if pol.MaxAttempts < 1 {
		pol = retry.DefaultPolicy()
	}

	return &Client{
		client:         openai.NewClientWithConfig(clientCfg),
		embedModel:     cfg.EmbedModel,
		chatModel:      cfg.ChatModel,
		provider:       cfg.Provider,
		requestTimeout: timeout,
		retry:          pol,
		logger:         logger,
	}
}

var _ domain.Embedder = (*Client)(nil)

// EmbedTexts embeds an ordered batch of texts in a single API call per
// attempt. Vector i corresponds to text i. Retries with backoff on failure;
// after exhaustion the last error is returned wrapped with
// domain.ErrEmbeddingProviderError.
func (c *Client) EmbedTexts(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if model == "" {
		model = c.embedModel
	}

	var out [][]float32
	err := c.retry.Do(ctx, c.logger, "embeddings", func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		start := time.Now()
		resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequest{
			Input:          texts,
			Model:          openai.EmbeddingModel(model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		})
		duration := time.Since(start)

		if err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
			metrics.EmbeddingErrorsTotal.WithLabelValues(c.provider, model, "api_error").Inc()
			return parseAPIError(err)
		}
		if len(resp.Data) != len(texts) {
			metrics.EmbeddingRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
			metrics.EmbeddingErrorsTotal.WithLabelValues(c.provider, model, "bad_response").Inc()
			return fmt.Errorf("got %d embeddings for %d inputs: %w",
				len(resp.Data), len(texts), domain.ErrEmbeddingProviderError)
		}

		metrics.EmbeddingRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
		metrics.EmbeddingRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())
		if resp.Usage.TotalTokens > 0 {
			metrics.EmbeddingTokensTotal.WithLabelValues(c.provider, model, "prompt").
				Add(float64(resp.Usage.PromptTokens))
			metrics.EmbeddingTokensTotal.WithLabelValues(c.provider, model, "total").
				Add(float64(resp.Usage.TotalTokens))
		}

		// The API may return items out of order; place by index.
		out = make([][]float32, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(out) {
				return fmt.Errorf("embedding index %d out of range: %w",
					d.Index, domain.ErrEmbeddingProviderError)
			}
			out[d.Index] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChatText runs a plain text completion with the given system and user prompts.
func (c *Client) ChatText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	var out string
	err := c.retry.Do(ctx, c.logger, "chat", func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			MaxTokens:   maxTokens,
			Temperature: 0,
		})
		if err != nil {
			return parseAPIError(err)
		}
		if len(resp.Choices) == 0 {
			out = ""
			return nil
		}
		out = resp.Choices[0].Message.Content
		return nil
	})
	return out, err
}

// StructuredJSON runs a completion constrained to the given JSON schema and
// unmarshals the result into out.
func (c *Client) StructuredJSON(
	ctx context.Context, systemPrompt, userPrompt string, schema json.RawMessage, out any,
) error {
	return c.retry.Do(ctx, c.logger, "structured_json", func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "structured_output",
					Schema: schema,
					Strict: true,
				},
			},
		})
		if err != nil {
			return parseAPIError(err)
		}
		content := "{}"
		if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
			content = resp.Choices[0].Message.Content
		}
		if err := json.Unmarshal([]byte(content), out); err != nil {
			return fmt.Errorf("parse structured output: %w", err)
		}
		return nil
	})
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("provider API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("provider API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("provider request failed: %v: %w", err, wrap)
}
