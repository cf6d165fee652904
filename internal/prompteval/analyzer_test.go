package prompteval

import (
	"strings"
	"testing"

	"github.com/promptforge/promptforge/internal/domain/models"
)

func failedResult(reason string) models.EvaluationResult {
	return models.EvaluationResult{
		InputData:       map[string]any{"question": "q"},
		DimensionScores: map[string]float64{},
		Passed:          false,
		FailureReason:   reason,
	}
}

func TestAnalyzeEmptyRun(t *testing.T) {
	run := &models.EvaluationRun{}
	if signals := Analyze(run); len(signals) != 0 {
		t.Errorf("signals = %v", signals)
	}
}

func TestAnalyzePassedEntriesProduceNoSignals(t *testing.T) {
	run := &models.EvaluationRun{Results: []models.EvaluationResult{
		{Passed: true, OverallScore: 0.9},
		{Passed: true, OverallScore: 0.8},
	}}
	if signals := Analyze(run); len(signals) != 0 {
		t.Errorf("signals = %v", signals)
	}
}

func TestAnalyzeDeduplicatesSameCause(t *testing.T) {
	a := failedResult(models.FailureFormatValidation)
	a.FormatError = "$.answer: expected type string"
	b := failedResult(models.FailureFormatValidation)
	b.FormatError = "$.answer: expected type string"
	c := failedResult(models.FailureFormatValidation)
	c.FormatError = "invalid JSON output"

	run := &models.EvaluationRun{Results: []models.EvaluationResult{a, b, c}}
	signals := Analyze(run)
	if len(signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(signals))
	}
	// Most frequent first.
	if signals[0].Occurrences != 2 || signals[1].Occurrences != 1 {
		t.Errorf("occurrences = %d, %d", signals[0].Occurrences, signals[1].Occurrences)
	}
	if signals[0].Dimension != models.DimensionFormat {
		t.Errorf("dimension = %q", signals[0].Dimension)
	}
}

func TestAnalyzeExecutionErrors(t *testing.T) {
	result := failedResult(models.FailureExecutionError)
	result.FormatError = "model endpoint returned 500"

	run := &models.EvaluationRun{Results: []models.EvaluationResult{result}}
	signals := Analyze(run)
	if len(signals) != 1 {
		t.Fatalf("signals = %d", len(signals))
	}
	if signals[0].Dimension != "execution" {
		t.Errorf("dimension = %q", signals[0].Dimension)
	}
	// Digits are stripped so retries with different codes dedup together.
	if strings.Contains(signals[0].RootCause, "500") {
		t.Errorf("root cause = %q, digits should be normalized", signals[0].RootCause)
	}
}

func TestAnalyzeSkipsJudgeUnavailable(t *testing.T) {
	run := &models.EvaluationRun{Results: []models.EvaluationResult{
		failedResult(models.FailureJudgeUnavailable),
	}}
	if signals := Analyze(run); len(signals) != 0 {
		t.Errorf("signals = %v, judge outages carry no prompt signal", signals)
	}
}

func TestAnalyzeLowScoringDimensions(t *testing.T) {
	result := failedResult(models.FailureBelowThreshold)
	result.DimensionScores = map[string]float64{
		models.DimensionCorrectness: 0.4,
		models.DimensionVerbosity:   0.3,
		models.DimensionFormat:      0.9,
	}
	result.JudgeFeedback = "Answer is wrong and rambling. It also repeats itself."

	run := &models.EvaluationRun{Results: []models.EvaluationResult{result}}
	signals := Analyze(run)
	if len(signals) != 2 {
		t.Fatalf("signals = %d, want one per low dimension", len(signals))
	}
	dims := map[string]bool{}
	for _, s := range signals {
		dims[s.Dimension] = true
		if s.RootCause != "answer is wrong and rambling" {
			t.Errorf("root cause = %q, want first sentence lowercased", s.RootCause)
		}
	}
	if !dims[models.DimensionCorrectness] || !dims[models.DimensionVerbosity] {
		t.Errorf("dimensions = %v", dims)
	}
	if dims[models.DimensionFormat] {
		t.Error("passing dimension must not appear as a signal")
	}
}

func TestAnalyzeBelowThresholdWithNoLowDimension(t *testing.T) {
	// Every scored dimension is above the threshold but the overall still
	// fell short; attribute it to correctness rather than dropping it.
	result := failedResult(models.FailureBelowThreshold)
	result.DimensionScores = map[string]float64{models.DimensionFormat: 0.95}
	result.OverallScore = 0.6

	run := &models.EvaluationRun{Results: []models.EvaluationResult{result}}
	signals := Analyze(run)
	if len(signals) != 1 || signals[0].Dimension != models.DimensionCorrectness {
		t.Errorf("signals = %+v", signals)
	}
}

func TestSummarize(t *testing.T) {
	signals := []FailureSignal{
		{
			Dimension:     models.DimensionCorrectness,
			RootCause:     "answer is wrong",
			ActualOutput:  `{"answer": "5"}`,
			JudgeFeedback: "The model answered 5 instead of 4.",
			Occurrences:   3,
		},
		{Dimension: models.DimensionFormat, RootCause: "invalid json output", Occurrences: 1},
	}
	summary := Summarize(signals)
	if !strings.Contains(summary, "1. [correctness] answer is wrong (seen 3 time(s))") {
		t.Errorf("summary = %q", summary)
	}
	if !strings.Contains(summary, "judge: The model answered 5 instead of 4.") {
		t.Errorf("summary missing judge feedback: %q", summary)
	}
	if !strings.Contains(summary, "2. [format] invalid json output") {
		t.Errorf("summary = %q", summary)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != "No specific failure patterns were identified." {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeCause(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unspecified failure"},
		{"  \t ", "unspecified failure"},
		{"Expected 3 items at $.tags[0]. Found 1.", "expected # items at $"},
		{"Timeout after 30s\nretrying", "timeout after #s"},
		{"plain message", "plain message"},
	}
	for _, tt := range tests {
		if got := normalizeCause(tt.in); got != tt.want {
			t.Errorf("normalizeCause(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
