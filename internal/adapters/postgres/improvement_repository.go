package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
)

type ImprovementRepository struct {
	BaseRepository
}

func NewImprovementRepository(pool *pgxpool.Pool) *ImprovementRepository {
	return &ImprovementRepository{BaseRepository: NewBaseRepository(pool)}
}

const improvementRunColumns = `id, prompt_name, baseline_prompt_id, baseline_version, baseline_score, baseline_run_id, candidates_generated, candidates_evaluated, best_candidate_id, best_candidate_version, best_candidate_score, improvement_delta, promotion_decision, promotion_reason, status, created_at, completed_at`

func (r *ImprovementRepository) Create(ctx context.Context, run *models.ImprovementRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO improvement_runs (
			id, prompt_name, baseline_prompt_id, baseline_version, baseline_score,
			baseline_run_id, candidates_generated, candidates_evaluated,
			best_candidate_id, best_candidate_version, best_candidate_score,
			improvement_delta, promotion_decision, promotion_reason, status,
			created_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)`

	_, err := r.conn(ctx).Exec(ctx, query,
		run.ID,
		run.PromptName,
		run.BaselinePromptID,
		run.BaselineVersion,
		run.BaselineScore,
		nullString(run.BaselineRunID),
		run.CandidatesGenerated,
		run.CandidatesEvaluated,
		nullString(run.BestCandidateID),
		nullString(run.BestCandidateVersion),
		run.BestCandidateScore,
		run.ImprovementDelta,
		nullString(run.PromotionDecision),
		nullString(run.PromotionReason),
		run.Status,
		run.CreatedAt,
		nullTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create improvement run: %w", err)
	}
	return nil
}

func (r *ImprovementRepository) Update(ctx context.Context, run *models.ImprovementRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE improvement_runs SET
			baseline_score = $2,
			baseline_run_id = $3,
			candidates_generated = $4,
			candidates_evaluated = $5,
			best_candidate_id = $6,
			best_candidate_version = $7,
			best_candidate_score = $8,
			improvement_delta = $9,
			promotion_decision = $10,
			promotion_reason = $11,
			status = $12,
			completed_at = $13
		WHERE id = $1`

	tag, err := r.conn(ctx).Exec(ctx, query,
		run.ID,
		run.BaselineScore,
		nullString(run.BaselineRunID),
		run.CandidatesGenerated,
		run.CandidatesEvaluated,
		nullString(run.BestCandidateID),
		nullString(run.BestCandidateVersion),
		run.BestCandidateScore,
		run.ImprovementDelta,
		nullString(run.PromotionDecision),
		nullString(run.PromotionReason),
		run.Status,
		nullTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("update improvement run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrImprovementNotFound
	}
	return nil
}

func (r *ImprovementRepository) GetByID(ctx context.Context, id string) (*models.ImprovementRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + improvementRunColumns + ` FROM improvement_runs WHERE id = $1`
	return scanImprovementRun(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *ImprovementRepository) ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.ImprovementRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + improvementRunColumns + `
		FROM improvement_runs
		WHERE prompt_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.conn(ctx).Query(ctx, query, name, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list improvement runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImprovementRun
	for rows.Next() {
		run, err := scanImprovementRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanImprovementRun(row interface{ Scan(dest ...any) error }) (*models.ImprovementRun, error) {
	var run models.ImprovementRun
	var baselineRunID, bestID, bestVersion, decision, reason sql.NullString
	var bestScore, delta sql.NullFloat64
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.PromptName,
		&run.BaselinePromptID,
		&run.BaselineVersion,
		&run.BaselineScore,
		&baselineRunID,
		&run.CandidatesGenerated,
		&run.CandidatesEvaluated,
		&bestID,
		&bestVersion,
		&bestScore,
		&delta,
		&decision,
		&reason,
		&run.Status,
		&run.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrImprovementNotFound
		}
		return nil, fmt.Errorf("scan improvement run: %w", err)
	}

	run.BaselineRunID = baselineRunID.String
	run.BestCandidateID = bestID.String
	run.BestCandidateVersion = bestVersion.String
	run.PromotionDecision = decision.String
	run.PromotionReason = reason.String
	if bestScore.Valid {
		run.BestCandidateScore = &bestScore.Float64
	}
	if delta.Valid {
		run.ImprovementDelta = &delta.Float64
	}
	run.CompletedAt = getTimePtr(completedAt)
	return &run, nil
}
