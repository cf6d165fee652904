package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptforge/promptforge/internal/ports"
)

// judgeTemperature is effectively zero. A literal 0 would be dropped by the
// request serializer's omitempty and fall back to the server default.
const judgeTemperature = 1e-8

const scoreToolName = "submit_scores"

var scoreToolChoice = openai.ToolChoice{
	Type:     openai.ToolTypeFunction,
	Function: openai.ToolFunction{Name: scoreToolName},
}

var dimensionGuidance = map[string]string{
	"correctness": "Does the output answer the input correctly and completely?",
	"format":      "Is the output structured and formatted as requested?",
	"verbosity":   "Is the output appropriately concise, with no padding or repetition?",
	"safety":      "Is the output free of harmful, biased, or policy-violating content?",
	"consistency": "Is the output internally consistent and free of contradictions?",
}

// JudgeBackend scores one (input, output) pair through a forced tool call,
// so the verdict always arrives as parsable JSON. The ports.JudgeRequest it
// receives carries no prompt or candidate identity.
type JudgeBackend struct {
	client *Client
}

func NewJudgeBackend(client *Client) *JudgeBackend {
	return &JudgeBackend{client: client}
}

func (b *JudgeBackend) Score(ctx context.Context, req ports.JudgeRequest) (*ports.JudgeScores, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.client.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildJudgePrompt(req)},
		},
		MaxTokens:   b.client.MaxTokens,
		Temperature: judgeTemperature,
		Tools:       []openai.Tool{scoreTool(req.Dimensions)},
		ToolChoice:  scoreToolChoice,
	})
	if err != nil {
		return nil, err
	}
	return parseScoreToolCall(resp, req.Dimensions)
}

const judgeSystemPrompt = `You are a strict evaluator of model outputs. Score only what you are shown: the input, the produced output, and any reference or rubric. Rate each requested dimension from 0.0 (unacceptable) to 1.0 (excellent), then give an overall score reflecting your holistic judgment, which need not be the arithmetic mean. Be consistent: identical inputs and outputs must receive identical scores.`

func buildJudgePrompt(req ports.JudgeRequest) string {
	var sb strings.Builder
	sb.WriteString("## Input\n")
	sb.WriteString(renderInput(req.InputData))
	sb.WriteString("\n\n## Output to evaluate\n")
	sb.WriteString(req.ActualOutput)
	if req.ExpectedOutput != "" {
		sb.WriteString("\n\n## Reference output\n")
		sb.WriteString(req.ExpectedOutput)
	}
	if req.Rubric != "" {
		sb.WriteString("\n\n## Rubric\n")
		sb.WriteString(req.Rubric)
	}
	sb.WriteString("\n\n## Dimensions to score\n")
	for _, dim := range req.Dimensions {
		guidance := dimensionGuidance[dim]
		if guidance == "" {
			guidance = "Score this dimension from 0.0 to 1.0."
		}
		fmt.Fprintf(&sb, "- %s: %s\n", dim, guidance)
	}
	return sb.String()
}

// scoreTool builds the forced tool with one property per requested dimension
// plus overall and reasoning.
func scoreTool(dimensions []string) openai.Tool {
	properties := map[string]any{}
	required := make([]string, 0, len(dimensions)+2)
	for _, dim := range dimensions {
		properties[dim] = map[string]any{
			"type":        "number",
			"description": "Score from 0.0 to 1.0",
			"minimum":     0,
			"maximum":     1,
		}
		required = append(required, dim)
	}
	properties["overall"] = map[string]any{
		"type":        "number",
		"description": "Holistic overall score from 0.0 to 1.0",
		"minimum":     0,
		"maximum":     1,
	}
	properties["reasoning"] = map[string]any{
		"type":        "string",
		"description": "One short paragraph explaining the scores",
	}
	required = append(required, "overall", "reasoning")

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        scoreToolName,
			Description: "Submit the evaluation scores.",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           properties,
				"required":             required,
				"additionalProperties": false,
			},
		},
	}
}

func parseScoreToolCall(resp openai.ChatCompletionResponse, dimensions []string) (*ports.JudgeScores, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices")
	}
	message := resp.Choices[0].Message
	if len(message.ToolCalls) == 0 {
		return nil, fmt.Errorf("judge returned no tool call")
	}

	var call *openai.ToolCall
	for i := range message.ToolCalls {
		if message.ToolCalls[i].Function.Name == scoreToolName {
			call = &message.ToolCalls[i]
			break
		}
	}
	if call == nil {
		return nil, fmt.Errorf("judge called unexpected tool %q", message.ToolCalls[0].Function.Name)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &payload); err != nil {
		return nil, fmt.Errorf("unparsable judge arguments: %w", err)
	}

	scores := &ports.JudgeScores{Dimensions: make(map[string]float64, len(dimensions))}
	for _, dim := range dimensions {
		value, ok := payload[dim].(float64)
		if !ok {
			return nil, fmt.Errorf("judge omitted dimension %q", dim)
		}
		scores.Dimensions[dim] = value
	}
	overall, ok := payload["overall"].(float64)
	if !ok {
		return nil, fmt.Errorf("judge omitted overall score")
	}
	scores.Overall = overall
	if reasoning, ok := payload["reasoning"].(string); ok {
		scores.Feedback = strings.TrimSpace(reasoning)
	}
	return scores, nil
}
