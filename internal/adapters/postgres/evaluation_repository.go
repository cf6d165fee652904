package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
)

type EvaluationRepository struct {
	BaseRepository
	idGenerator ports.IDGenerator
}

func NewEvaluationRepository(pool *pgxpool.Pool, idGenerator ports.IDGenerator) *EvaluationRepository {
	return &EvaluationRepository{
		BaseRepository: NewBaseRepository(pool),
		idGenerator:    idGenerator,
	}
}

const evaluationRunColumns = `id, prompt_version_id, prompt_name, prompt_version, dataset_id, dimension_scores, contributing_dimensions, overall_score, total_examples, passed_examples, failed_examples, format_pass_rate, failure_cases, created_at, completed_at`

func (r *EvaluationRepository) Create(ctx context.Context, run *models.EvaluationRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	dimensionScores, err := marshalJSON(run.DimensionScores)
	if err != nil {
		return fmt.Errorf("marshal dimension scores: %w", err)
	}
	contributing, err := marshalJSON(run.ContributingDimensions)
	if err != nil {
		return fmt.Errorf("marshal contributing dimensions: %w", err)
	}
	failureCases, err := marshalJSON(run.FailureCases)
	if err != nil {
		return fmt.Errorf("marshal failure cases: %w", err)
	}

	query := `
		INSERT INTO evaluation_runs (
			id, prompt_version_id, prompt_name, prompt_version, dataset_id,
			dimension_scores, contributing_dimensions, overall_score,
			total_examples, passed_examples, failed_examples, format_pass_rate,
			failure_cases, created_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err = r.conn(ctx).Exec(ctx, query,
		run.ID,
		run.PromptVersionID,
		run.PromptName,
		run.PromptVersion,
		nullString(run.DatasetID),
		dimensionScores,
		contributing,
		run.OverallScore,
		run.TotalExamples,
		run.PassedExamples,
		run.FailedExamples,
		run.FormatPassRate,
		failureCases,
		run.CreatedAt,
		nullTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create evaluation run: %w", err)
	}

	return r.insertResults(ctx, run.ID, run.Results)
}

func (r *EvaluationRepository) insertResults(ctx context.Context, runID string, results []models.EvaluationResult) error {
	query := `
		INSERT INTO evaluation_results (
			id, run_id, entry_id, position, input_data, actual_output, expected_output,
			dimension_scores, overall_score, judged, passed_format, format_error,
			format_applicable, judge_feedback, passed, failure_reason, execution_latency_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)`

	for i, result := range results {
		inputData, err := marshalJSON(result.InputData)
		if err != nil {
			return fmt.Errorf("marshal result input: %w", err)
		}
		scores, err := marshalJSON(result.DimensionScores)
		if err != nil {
			return fmt.Errorf("marshal result scores: %w", err)
		}
		_, err = r.conn(ctx).Exec(ctx, query,
			r.idGenerator.GenerateResultID(),
			runID,
			nullString(result.EntryID),
			i,
			inputData,
			result.ActualOutput,
			nullString(result.ExpectedOutput),
			scores,
			result.OverallScore,
			result.Judged,
			result.PassedFormat,
			nullString(result.FormatError),
			result.FormatApplicable,
			nullString(result.JudgeFeedback),
			result.Passed,
			nullString(result.FailureReason),
			result.ExecutionLatencyMs,
		)
		if err != nil {
			return fmt.Errorf("insert evaluation result: %w", err)
		}
	}
	return nil
}

func (r *EvaluationRepository) GetByID(ctx context.Context, id string) (*models.EvaluationRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + evaluationRunColumns + ` FROM evaluation_runs WHERE id = $1`
	run, err := scanEvaluationRun(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	results, err := r.getResults(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Results = results
	return run, nil
}

func (r *EvaluationRepository) ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.EvaluationRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + evaluationRunColumns + `
		FROM evaluation_runs
		WHERE prompt_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.conn(ctx).Query(ctx, query, name, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list evaluation runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.EvaluationRun
	for rows.Next() {
		run, err := scanEvaluationRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *EvaluationRepository) getResults(ctx context.Context, runID string) ([]models.EvaluationResult, error) {
	query := `
		SELECT entry_id, input_data, actual_output, expected_output, dimension_scores,
			overall_score, judged, passed_format, format_error, format_applicable,
			judge_feedback, passed, failure_reason, execution_latency_ms
		FROM evaluation_results
		WHERE run_id = $1
		ORDER BY position ASC`

	rows, err := r.conn(ctx).Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get evaluation results: %w", err)
	}
	defer rows.Close()

	var results []models.EvaluationResult
	for rows.Next() {
		var result models.EvaluationResult
		var entryID, expected, formatError, feedback, failureReason sql.NullString
		var inputData, scores []byte
		err := rows.Scan(
			&entryID,
			&inputData,
			&result.ActualOutput,
			&expected,
			&scores,
			&result.OverallScore,
			&result.Judged,
			&result.PassedFormat,
			&formatError,
			&result.FormatApplicable,
			&feedback,
			&result.Passed,
			&failureReason,
			&result.ExecutionLatencyMs,
		)
		if err != nil {
			return nil, err
		}
		result.EntryID = entryID.String
		result.ExpectedOutput = expected.String
		result.FormatError = formatError.String
		result.JudgeFeedback = feedback.String
		result.FailureReason = failureReason.String
		if err := unmarshalJSONField(inputData, &result.InputData); err != nil {
			return nil, fmt.Errorf("unmarshal result input: %w", err)
		}
		if err := unmarshalJSONField(scores, &result.DimensionScores); err != nil {
			return nil, fmt.Errorf("unmarshal result scores: %w", err)
		}
		if result.DimensionScores == nil {
			result.DimensionScores = make(map[string]float64)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanEvaluationRun(row interface{ Scan(dest ...any) error }) (*models.EvaluationRun, error) {
	var run models.EvaluationRun
	var datasetID sql.NullString
	var completedAt sql.NullTime
	var dimensionScores, contributing, failureCases []byte

	err := row.Scan(
		&run.ID,
		&run.PromptVersionID,
		&run.PromptName,
		&run.PromptVersion,
		&datasetID,
		&dimensionScores,
		&contributing,
		&run.OverallScore,
		&run.TotalExamples,
		&run.PassedExamples,
		&run.FailedExamples,
		&run.FormatPassRate,
		&failureCases,
		&run.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("scan evaluation run: %w", err)
	}

	run.DatasetID = datasetID.String
	run.CompletedAt = getTimePtr(completedAt)
	if err := unmarshalJSONField(dimensionScores, &run.DimensionScores); err != nil {
		return nil, fmt.Errorf("unmarshal dimension scores: %w", err)
	}
	if run.DimensionScores == nil {
		run.DimensionScores = make(map[string]float64)
	}
	if err := unmarshalJSONField(contributing, &run.ContributingDimensions); err != nil {
		return nil, fmt.Errorf("unmarshal contributing dimensions: %w", err)
	}
	if err := unmarshalJSONField(failureCases, &run.FailureCases); err != nil {
		return nil, fmt.Errorf("unmarshal failure cases: %w", err)
	}
	return &run, nil
}
