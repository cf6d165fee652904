package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptforge/promptforge/internal/adapters/retry"
	"github.com/promptforge/promptforge/internal/domain"
)

// Synthesizer generates alternative prompt templates from a baseline and a
// failure summary. Transient backend failures are retried with backoff.
type Synthesizer struct {
	client      *Client
	temperature float32
}

func NewSynthesizer(client *Client, temperature float64) *Synthesizer {
	return &Synthesizer{client: client, temperature: float32(temperature)}
}

const synthesizerSystemPrompt = `You are an expert prompt engineer. You rewrite prompt templates to fix observed failures while preserving the original intent, input placeholders, and output requirements. You respond with a JSON array of strings, one complete rewritten template per element, and nothing else.`

func (s *Synthesizer) Synthesize(ctx context.Context, baselineTemplate, failureSummary string, maxCandidates int) ([]string, error) {
	prompt := fmt.Sprintf(`## Current prompt template
%s

## Observed failures
%s

Produce %d improved variants of the template. Each variant must:
- address the observed failures directly
- keep every input placeholder from the original
- keep the original task and output format requirements
- differ meaningfully from the original and from each other

Respond with a JSON array of %d strings.`,
		baselineTemplate, failureSummary, maxCandidates, maxCandidates)

	var content string
	err := retry.WithBackoff(ctx, retry.LLMConfig(), func() error {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.client.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: synthesizerSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens:   s.client.MaxTokens,
			Temperature: s.temperature,
		})
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return retry.MarkRetryable(errors.New("empty response"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	texts, err := parseCandidateArray(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return texts, nil
}

// classifyAPIError marks rate limits and server errors as retryable.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && retry.IsRetryableHTTPStatus(apiErr.HTTPStatusCode) {
		return retry.MarkRetryable(err)
	}
	return err
}

// parseCandidateArray extracts a JSON string array from a model response,
// tolerating markdown code fences and surrounding prose.
func parseCandidateArray(content string) ([]string, error) {
	content = stripCodeFence(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("response contains no JSON array")
	}

	var texts []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &texts); err != nil {
		return nil, fmt.Errorf("parse candidate array: %w", err)
	}
	return texts, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
