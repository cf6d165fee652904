package prompteval

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
)

// PassThreshold is the fixed pass/fail boundary for an entry's overall score.
// It is a policy constant, not per-call configuration, so pass rates stay
// comparable across runs.
const PassThreshold = 0.7

// MaxFailureCases bounds the diagnostic sample of failed entries kept on a
// run. The full result list is still persisted.
const MaxFailureCases = 10

// RunnerConfig bounds a runner's external calls and fan-out.
type RunnerConfig struct {
	Parallelism    int
	ExecuteTimeout time.Duration
	JudgeTimeout   time.Duration
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	if c.ExecuteTimeout <= 0 {
		c.ExecuteTimeout = 60 * time.Second
	}
	if c.JudgeTimeout <= 0 {
		c.JudgeTimeout = 60 * time.Second
	}
	return c
}

// Runner evaluates one prompt version against a set of dataset entries:
// execute, validate format, judge, aggregate. Entry failures are isolated;
// only cancellation aborts a run.
type Runner struct {
	executor ports.ModelExecutor
	judge    *Judge
	ids      ports.IDGenerator
	config   RunnerConfig
}

func NewRunner(executor ports.ModelExecutor, judge *Judge, ids ports.IDGenerator, config RunnerConfig) *Runner {
	return &Runner{
		executor: executor,
		judge:    judge,
		ids:      ids,
		config:   config.withDefaults(),
	}
}

// Run evaluates version against every entry concurrently, joins, and
// aggregates. The returned run is complete and ready to persist.
func (r *Runner) Run(ctx context.Context, version *models.PromptVersion, entries []models.DatasetEntry, dimensions []string) (*models.EvaluationRun, error) {
	if len(dimensions) == 0 {
		dimensions = models.AllDimensions
	}

	tracer := otel.Tracer("promptforge/prompteval")
	ctx, span := tracer.Start(ctx, "evaluation.run")
	span.SetAttributes(
		attribute.String("prompt.name", version.Name),
		attribute.String("prompt.version", version.Version),
		attribute.Int("entries.count", len(entries)),
	)
	defer span.End()

	constraints := ConstraintsFromMetadata(version.Metadata)
	results := make([]models.EvaluationResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Parallelism)
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.evaluateEntry(gctx, version, entries[i], dimensions, constraints)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := models.NewEvaluationRun(r.ids.GenerateEvaluationID(), version, "")
	run.Results = results
	aggregate(run, dimensions)
	run.Complete()

	span.SetAttributes(
		attribute.Float64("run.overall_score", run.OverallScore),
		attribute.Int("run.failed_examples", run.FailedExamples),
	)
	return run, nil
}

// evaluateEntry never returns an error: execution and judge failures become
// failed results so one bad entry cannot sink the run.
func (r *Runner) evaluateEntry(ctx context.Context, version *models.PromptVersion, entry models.DatasetEntry, dimensions []string, constraints *Constraints) models.EvaluationResult {
	result := models.EvaluationResult{
		EntryID:         entry.ID,
		InputData:       entry.InputData,
		ExpectedOutput:  entry.ExpectedOutput,
		DimensionScores: make(map[string]float64),
	}

	execCtx, cancel := context.WithTimeout(ctx, r.config.ExecuteTimeout)
	start := time.Now()
	output, err := r.executor.Execute(execCtx, version.TemplateText, entry.InputData, version.OutputSchema)
	cancel()
	result.ExecutionLatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Passed = false
		result.FailureReason = models.FailureExecutionError
		result.FormatError = err.Error()
		return result
	}
	result.ActualOutput = output

	result.FormatApplicable = version.OutputSchema != nil || constraints != nil
	result.PassedFormat, result.FormatError = ValidateFormat(output, version.OutputSchema, constraints)

	judgeCtx, cancel := context.WithTimeout(ctx, r.config.JudgeTimeout)
	scores, err := r.judge.Score(judgeCtx, ports.JudgeRequest{
		InputData:      entry.InputData,
		ActualOutput:   output,
		ExpectedOutput: entry.ExpectedOutput,
		Rubric:         entry.Rubric,
		Dimensions:     dimensions,
	})
	cancel()
	if err != nil {
		result.Passed = false
		result.FailureReason = models.FailureJudgeUnavailable
		return result
	}

	result.Judged = true
	result.DimensionScores = scores.Dimensions
	result.OverallScore = scores.Overall
	result.JudgeFeedback = scores.Feedback

	// With no schema or constraints the format dimension carries no signal;
	// drop it so it contributes zero weight rather than a zero score.
	if !result.FormatApplicable {
		delete(result.DimensionScores, models.DimensionFormat)
	}

	result.Passed = result.PassedFormat && result.OverallScore >= PassThreshold
	if !result.Passed {
		if !result.PassedFormat {
			result.FailureReason = models.FailureFormatValidation
		} else {
			result.FailureReason = models.FailureBelowThreshold
		}
	}
	return result
}

// aggregate fills run-level scores from the entry results. Each dimension's
// aggregate is the mean over entries that scored it; dimensions scored by no
// entry report 0 and stay out of the overall's contributing set. The overall
// is the mean of the contributing dimension aggregates.
func aggregate(run *models.EvaluationRun, dimensions []string) {
	run.TotalExamples = len(run.Results)

	var contributing int
	var overallSum float64
	for _, dim := range dimensions {
		var sum float64
		var count int
		for i := range run.Results {
			if score, ok := run.Results[i].Score(dim); ok {
				sum += score
				count++
			}
		}
		if count == 0 {
			run.DimensionScores[dim] = 0
			continue
		}
		mean := sum / float64(count)
		run.DimensionScores[dim] = mean
		run.ContributingDimensions = append(run.ContributingDimensions, dim)
		overallSum += mean
		contributing++
	}
	if contributing > 0 {
		run.OverallScore = overallSum / float64(contributing)
	}

	var formatPassed int
	for i := range run.Results {
		result := &run.Results[i]
		if result.Passed {
			run.PassedExamples++
		} else {
			run.FailedExamples++
			if len(run.FailureCases) < MaxFailureCases {
				run.FailureCases = append(run.FailureCases, *result)
			}
		}
		if result.PassedFormat {
			formatPassed++
		}
	}
	if run.TotalExamples > 0 {
		run.FormatPassRate = float64(formatPassed) / float64(run.TotalExamples)
	}
}

// ConstraintsFromMetadata reads declarative output constraints from a version's
// metadata, under the "constraints" key.
func ConstraintsFromMetadata(metadata map[string]any) *Constraints {
	raw, ok := metadata["constraints"]
	if !ok {
		return nil
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var constraints Constraints
	if err := json.Unmarshal(payload, &constraints); err != nil {
		return nil
	}
	return &constraints
}
