package prompteval

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/promptforge/promptforge/internal/domain/models"
)

// FailureSignal is one deduplicated failure pattern extracted from an
// evaluation run: which dimension failed, why, and a representative case.
type FailureSignal struct {
	Dimension     string         `json:"dimension"`
	RootCause     string         `json:"root_cause"`
	InputData     map[string]any `json:"input_data"`
	ActualOutput  string         `json:"actual_output"`
	JudgeFeedback string         `json:"judge_feedback,omitempty"`
	Occurrences   int            `json:"occurrences"`
}

// dimension label for failures that never reached the judge
const signalDimensionExecution = "execution"

// Analyze extracts failure signals from a run, deduplicating entries that
// failed the same dimension for the same root cause. An empty result is
// valid; the signals only shape candidate generation, never gate it.
func Analyze(run *models.EvaluationRun) []FailureSignal {
	type key struct {
		dimension string
		cause     string
	}
	index := make(map[key]*FailureSignal)
	var order []key

	record := func(dimension, cause string, result *models.EvaluationResult) {
		k := key{dimension, cause}
		if signal, ok := index[k]; ok {
			signal.Occurrences++
			return
		}
		index[k] = &FailureSignal{
			Dimension:     dimension,
			RootCause:     cause,
			InputData:     result.InputData,
			ActualOutput:  result.ActualOutput,
			JudgeFeedback: result.JudgeFeedback,
			Occurrences:   1,
		}
		order = append(order, k)
	}

	for i := range run.Results {
		result := &run.Results[i]
		if result.Passed {
			continue
		}
		switch result.FailureReason {
		case models.FailureExecutionError:
			record(signalDimensionExecution, normalizeCause(result.FormatError), result)
		case models.FailureJudgeUnavailable:
			// no judge signal to learn from
		case models.FailureFormatValidation:
			record(models.DimensionFormat, normalizeCause(result.FormatError), result)
		default:
			for _, dim := range lowDimensions(result) {
				record(dim, normalizeCause(result.JudgeFeedback), result)
			}
		}
	}

	signals := make([]FailureSignal, 0, len(order))
	for _, k := range order {
		signals = append(signals, *index[k])
	}
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Occurrences > signals[j].Occurrences
	})
	return signals
}

// Summarize renders signals as the failure section of a generation prompt.
func Summarize(signals []FailureSignal) string {
	if len(signals) == 0 {
		return "No specific failure patterns were identified."
	}
	var sb strings.Builder
	for i, signal := range signals {
		fmt.Fprintf(&sb, "%d. [%s] %s (seen %d time(s))\n", i+1, signal.Dimension, signal.RootCause, signal.Occurrences)
		if signal.JudgeFeedback != "" && signal.JudgeFeedback != signal.RootCause {
			fmt.Fprintf(&sb, "   judge: %s\n", truncate(signal.JudgeFeedback, 300))
		}
		if signal.ActualOutput != "" {
			fmt.Fprintf(&sb, "   output: %s\n", truncate(signal.ActualOutput, 200))
		}
	}
	return sb.String()
}

// lowDimensions lists the scored dimensions that dragged a judged entry
// below the pass threshold.
func lowDimensions(result *models.EvaluationResult) []string {
	var dims []string
	for _, dim := range models.AllDimensions {
		if score, ok := result.Score(dim); ok && score < PassThreshold {
			dims = append(dims, dim)
		}
	}
	if len(dims) == 0 {
		dims = append(dims, models.DimensionCorrectness)
	}
	return dims
}

var causeNoise = regexp.MustCompile(`[0-9]+`)

// normalizeCause collapses near-identical failure messages: first sentence,
// lowercased, digits stripped so positional details don't defeat dedup.
func normalizeCause(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return "unspecified failure"
	}
	if idx := strings.IndexAny(message, ".\n"); idx > 0 {
		message = message[:idx]
	}
	message = strings.ToLower(strings.TrimSpace(message))
	message = causeNoise.ReplaceAllString(message, "#")
	return truncate(message, 160)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
