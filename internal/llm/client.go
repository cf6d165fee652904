// Package llm provides the OpenAI-compatible backends for prompt execution,
// judging, and candidate synthesis.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptforge/promptforge/internal/adapters/metrics"
)

var tracer = otel.GetTracerProvider().Tracer("internal/llm")

// Config holds the configuration for an LLM client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	Purpose    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Option configures a Config.
type Option func(*Config)

// WithModel sets the default model for chat completions.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithMaxTokens sets the default max tokens for completions.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// WithPurpose labels the client's requests in metrics ("execute", "judge",
// "synthesize").
func WithPurpose(purpose string) Option {
	return func(c *Config) {
		c.Purpose = purpose
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
// This is ignored if WithHTTPClient is also used.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// Client wraps the OpenAI client with configuration metadata.
type Client struct {
	*openai.Client
	BaseURL   string
	Model     string
	MaxTokens int
	Purpose   string
}

// NewClient creates an OpenAI-compatible client. BaseURL should be the full
// API base URL (e.g., "https://api.openai.com/v1").
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	cfg := &Config{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		Model:     "gpt-4o-mini",
		MaxTokens: 4096,
		Purpose:   "chat",
		Timeout:   60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		openaiCfg.HTTPClient = cfg.HTTPClient
	} else {
		openaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		Client:    openai.NewClientWithConfig(openaiCfg),
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Purpose:   cfg.Purpose,
	}
}

// CreateChatCompletion wraps the OpenAI client's CreateChatCompletion with an
// OTel span and request metrics.
func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ctx, span := tracer.Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.String("llm.purpose", c.Purpose),
		attribute.Int("llm.request.max_tokens", req.MaxTokens),
		attribute.Int("llm.request.tools", len(req.Tools)),
		attribute.Int("llm.request.messages", len(req.Messages)),
	)
	if req.Temperature > 0 {
		span.SetAttributes(attribute.Float64("llm.request.temperature", float64(req.Temperature)))
	}

	start := time.Now()
	resp, err := c.Client.CreateChatCompletion(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(req.Model, c.Purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(req.Model, c.Purpose, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	metrics.LLMRequestsTotal.WithLabelValues(req.Model, c.Purpose, "ok").Inc()

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens),
	)
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		span.SetAttributes(
			attribute.String("llm.response.finish_reason", string(choice.FinishReason)),
			attribute.Int("llm.response.tool_calls", len(choice.Message.ToolCalls)),
			attribute.Int("llm.response.content_length", len(choice.Message.Content)),
		)
	}

	return resp, nil
}
