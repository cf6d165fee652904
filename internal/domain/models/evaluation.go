package models

import "time"

// Judge dimensions
const (
	DimensionCorrectness = "correctness"
	DimensionFormat      = "format"
	DimensionVerbosity   = "verbosity"
	DimensionSafety      = "safety"
	DimensionConsistency = "consistency"
)

// AllDimensions lists the judge dimensions in canonical order.
var AllDimensions = []string{
	DimensionCorrectness,
	DimensionFormat,
	DimensionVerbosity,
	DimensionSafety,
	DimensionConsistency,
}

// Entry failure reasons
const (
	FailureExecutionError   = "execution_error"
	FailureJudgeUnavailable = "judge_unavailable"
	FailureFormatValidation = "format_validation_failed"
	FailureBelowThreshold   = "below_pass_threshold"
)

// EvaluationResult is the outcome for a single dataset entry. A dimension
// missing from DimensionScores was not scored for this entry (judge failure,
// or a not-applicable format check); it is distinct from a score of 0.
type EvaluationResult struct {
	EntryID              string             `json:"entry_id,omitempty"`
	InputData            map[string]any     `json:"input_data"`
	ActualOutput         string             `json:"actual_output"`
	ExpectedOutput       string             `json:"expected_output,omitempty"`
	DimensionScores      map[string]float64 `json:"dimension_scores"`
	OverallScore         float64            `json:"overall_score"`
	Judged               bool               `json:"judged"`
	PassedFormat         bool               `json:"passed_format_validation"`
	FormatError          string             `json:"format_validation_error,omitempty"`
	FormatApplicable     bool               `json:"format_applicable"`
	JudgeFeedback        string             `json:"judge_feedback,omitempty"`
	Passed               bool               `json:"passed"`
	FailureReason        string             `json:"failure_reason,omitempty"`
	ExecutionLatencyMs   int64              `json:"execution_latency_ms,omitempty"`
}

// Score returns the entry's score for a dimension and whether it was scored.
func (r *EvaluationResult) Score(dimension string) (float64, bool) {
	s, ok := r.DimensionScores[dimension]
	return s, ok
}

// EvaluationRun aggregates EvaluationResults for one prompt version against
// one dataset. Immutable once CompletedAt is set.
type EvaluationRun struct {
	ID              string             `json:"id"`
	PromptVersionID string             `json:"prompt_version_id"`
	PromptName      string             `json:"prompt_name"`
	PromptVersion   string             `json:"prompt_version"`
	DatasetID       string             `json:"dataset_id,omitempty"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	// ContributingDimensions lists the dimensions scored by at least one
	// entry; only these feed OverallScore. A dimension present in
	// DimensionScores with value 0 but missing here was never scored.
	ContributingDimensions []string           `json:"contributing_dimensions,omitempty"`
	OverallScore           float64            `json:"overall_score"`
	TotalExamples          int                `json:"total_examples"`
	PassedExamples         int                `json:"passed_examples"`
	FailedExamples         int                `json:"failed_examples"`
	FormatPassRate         float64            `json:"format_pass_rate"`
	FailureCases           []EvaluationResult `json:"failure_cases,omitempty"`
	Results                []EvaluationResult `json:"results,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	CompletedAt            *time.Time         `json:"completed_at,omitempty"`
}

func NewEvaluationRun(id string, version *PromptVersion, datasetID string) *EvaluationRun {
	return &EvaluationRun{
		ID:              id,
		PromptVersionID: version.ID,
		PromptName:      version.Name,
		PromptVersion:   version.Version,
		DatasetID:       datasetID,
		DimensionScores: make(map[string]float64),
		CreatedAt:       time.Now().UTC(),
	}
}

func (r *EvaluationRun) Complete() {
	now := time.Now().UTC()
	r.CompletedAt = &now
}

// DimensionScore returns the run-level aggregate for a dimension, 0 when the
// dimension was not part of the run.
func (r *EvaluationRun) DimensionScore(dimension string) float64 {
	return r.DimensionScores[dimension]
}
