package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptforge/promptforge/internal/domain"
)

// Executor runs a prompt template against one input through an
// OpenAI-compatible endpoint. It makes a single call with no built-in retry.
type Executor struct {
	client      *Client
	temperature float32
}

func NewExecutor(client *Client, temperature float64) *Executor {
	return &Executor{client: client, temperature: float32(temperature)}
}

// Execute sends the template as the system message and the rendered input as
// the user message. When an output schema is present the model is told to
// answer with JSON only.
func (e *Executor) Execute(ctx context.Context, templateText string, inputData map[string]any, outputSchema map[string]any) (string, error) {
	system := templateText
	if outputSchema != nil {
		schemaJSON, err := json.Marshal(outputSchema)
		if err != nil {
			return "", fmt.Errorf("marshal output schema: %w", err)
		}
		system += "\n\nRespond with a single JSON value matching this schema, and nothing else:\n" + string(schemaJSON)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.client.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: renderInput(inputData)},
		},
		MaxTokens:   e.client.MaxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrExecutionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", domain.ErrExecutionFailed)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// renderInput flattens the input map into a stable key: value listing. A
// single "input" key is passed through bare.
func renderInput(inputData map[string]any) string {
	if len(inputData) == 1 {
		if v, ok := inputData["input"]; ok {
			if s, isString := v.(string); isString {
				return s
			}
		}
	}
	keys := make([]string, 0, len(inputData))
	for k := range inputData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := inputData[k]
		if s, ok := v.(string); ok {
			fmt.Fprintf(&sb, "%s: %s\n", k, s)
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(&sb, "%s: %v\n", k, v)
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", k, encoded)
	}
	return strings.TrimRight(sb.String(), "\n")
}
