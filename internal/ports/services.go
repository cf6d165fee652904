package ports

import "context"

// ModelExecutor renders a prompt template against one input and returns the
// model's output. A single call, no built-in retry; retry policy belongs to
// the caller.
type ModelExecutor interface {
	Execute(ctx context.Context, templateText string, inputData map[string]any, outputSchema map[string]any) (string, error)
}

// JudgeRequest carries everything the judge may see for one scoring call.
// It deliberately has no field for a prompt version, candidate index, or any
// sibling output, so a judge implementation cannot be told where the output
// came from.
type JudgeRequest struct {
	InputData      map[string]any
	ActualOutput   string
	ExpectedOutput string
	Rubric         string
	Dimensions     []string
}

// JudgeScores is the judge's verdict for one (input, output) pair. Dimensions
// holds only the dimensions that were requested and scored, each in [0,1].
// Overall is the judge's own synthesis, not necessarily a mean.
type JudgeScores struct {
	Dimensions map[string]float64
	Overall    float64
	Feedback   string
}

// JudgeBackend scores a single output. Implementations must sample at a
// fixed, minimal-variance temperature.
type JudgeBackend interface {
	Score(ctx context.Context, req JudgeRequest) (*JudgeScores, error)
}

// CandidateSynthesizer produces up to maxCandidates alternative template
// texts from a baseline and a textual failure summary.
type CandidateSynthesizer interface {
	Synthesize(ctx context.Context, baselineTemplate, failureSummary string, maxCandidates int) ([]string, error)
}
