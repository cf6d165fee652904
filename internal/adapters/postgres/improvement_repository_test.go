package postgres

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
)

func TestImprovementRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ImprovementRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	now := time.Now()
	run := &models.ImprovementRun{
		ID:               "imp_1",
		PromptName:       "qa",
		BaselinePromptID: "pv_1",
		BaselineVersion:  "1.0.0",
		Status:           models.ImprovementStateEvaluatingBaseline,
		CreatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO improvement_runs").
		WithArgs(
			run.ID, run.PromptName, run.BaselinePromptID, run.BaselineVersion,
			run.BaselineScore, sql.NullString{}, 0, 0,
			sql.NullString{}, sql.NullString{}, run.BestCandidateScore,
			run.ImprovementDelta, sql.NullString{}, sql.NullString{},
			run.Status, now, sql.NullTime{},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := setupMockContext(mock)
	err = repo.Create(ctx, run)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestImprovementRepository_Update_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ImprovementRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	run := &models.ImprovementRun{
		ID:     "imp_missing",
		Status: models.ImprovementStateFailed,
	}

	mock.ExpectExec("UPDATE improvement_runs").
		WithArgs(
			run.ID, run.BaselineScore, sql.NullString{}, 0, 0,
			sql.NullString{}, sql.NullString{}, run.BestCandidateScore,
			run.ImprovementDelta, sql.NullString{}, sql.NullString{},
			run.Status, sql.NullTime{},
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ctx := setupMockContext(mock)
	err = repo.Update(ctx, run)
	if !errors.Is(err, domain.ErrImprovementNotFound) {
		t.Errorf("expected ErrImprovementNotFound, got %v", err)
	}
}

func improvementRunRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "prompt_name", "baseline_prompt_id", "baseline_version",
		"baseline_score", "baseline_run_id", "candidates_generated",
		"candidates_evaluated", "best_candidate_id", "best_candidate_version",
		"best_candidate_score", "improvement_delta", "promotion_decision",
		"promotion_reason", "status", "created_at", "completed_at",
	})
}

func TestImprovementRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ImprovementRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM improvement_runs").
		WithArgs("imp_1").
		WillReturnRows(improvementRunRows().AddRow(
			"imp_1", "qa", "pv_1", "1.0.0",
			0.72, sql.NullString{String: "eval_1", Valid: true}, 3,
			3, sql.NullString{String: "pv_2", Valid: true}, sql.NullString{String: "1.1.0", Valid: true},
			sql.NullFloat64{Float64: 0.81, Valid: true}, sql.NullFloat64{Float64: 0.09, Valid: true},
			sql.NullString{String: "promoted", Valid: true},
			sql.NullString{String: "clear improvement", Valid: true},
			"done", now, sql.NullTime{Time: now, Valid: true},
		))

	ctx := setupMockContext(mock)
	run, err := repo.GetByID(ctx, "imp_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.BaselineRunID != "eval_1" {
		t.Errorf("baseline run ID = %q", run.BaselineRunID)
	}
	if run.BestCandidateScore == nil || *run.BestCandidateScore != 0.81 {
		t.Errorf("best candidate score = %v", run.BestCandidateScore)
	}
	if run.ImprovementDelta == nil || *run.ImprovementDelta != 0.09 {
		t.Errorf("delta = %v", run.ImprovementDelta)
	}
	if run.PromotionDecision != models.DecisionPromoted {
		t.Errorf("decision = %q", run.PromotionDecision)
	}
	if run.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestImprovementRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ImprovementRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	mock.ExpectQuery("SELECT (.+) FROM improvement_runs").
		WithArgs("imp_missing").
		WillReturnRows(improvementRunRows())

	ctx := setupMockContext(mock)
	_, err = repo.GetByID(ctx, "imp_missing")
	if !errors.Is(err, domain.ErrImprovementNotFound) {
		t.Errorf("expected ErrImprovementNotFound, got %v", err)
	}
}

func TestImprovementRepository_ListByPromptName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ImprovementRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM improvement_runs").
		WithArgs("qa", 10, 0).
		WillReturnRows(improvementRunRows().
			AddRow("imp_2", "qa", "pv_2", "1.1.0", 0.81, sql.NullString{}, 0, 0,
				sql.NullString{}, sql.NullString{}, sql.NullFloat64{}, sql.NullFloat64{},
				sql.NullString{}, sql.NullString{}, "running", now, sql.NullTime{}).
			AddRow("imp_1", "qa", "pv_1", "1.0.0", 0.72, sql.NullString{}, 3, 3,
				sql.NullString{}, sql.NullString{}, sql.NullFloat64{}, sql.NullFloat64{},
				sql.NullString{String: "rejected", Valid: true}, sql.NullString{String: "below threshold", Valid: true},
				"done", now.Add(-time.Hour), sql.NullTime{Time: now, Valid: true}))

	ctx := setupMockContext(mock)
	runs, err := repo.ListByPromptName(ctx, "qa", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "imp_2" {
		t.Errorf("expected newest first, got %s", runs[0].ID)
	}
	if runs[1].BestCandidateScore != nil {
		t.Errorf("best candidate score should be nil, got %v", runs[1].BestCandidateScore)
	}
}
