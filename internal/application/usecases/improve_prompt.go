package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/promptforge/promptforge/internal/adapters/metrics"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
	"github.com/promptforge/promptforge/internal/prompteval"
)

// ImprovePrompt orchestrates one improvement pipeline: evaluate the baseline,
// synthesize candidates from its failures, evaluate each candidate on the
// same dataset, and arbitrate promotion. The full run is recorded as an
// ImprovementRun whose status advances through each stage, so an observer
// polling the record sees where a long run currently is.
type ImprovePrompt struct {
	versionRepo     ports.PromptVersionRepository
	datasetRepo     ports.DatasetRepository
	evaluationRepo  ports.EvaluationRepository
	improvementRepo ports.ImprovementRepository
	txManager       ports.TransactionManager
	runner          *prompteval.Runner
	generator       *prompteval.Generator
	policy          prompteval.PromotionPolicy
	idGenerator     ports.IDGenerator
	logger          *slog.Logger
}

func NewImprovePrompt(
	versionRepo ports.PromptVersionRepository,
	datasetRepo ports.DatasetRepository,
	evaluationRepo ports.EvaluationRepository,
	improvementRepo ports.ImprovementRepository,
	txManager ports.TransactionManager,
	runner *prompteval.Runner,
	generator *prompteval.Generator,
	policy prompteval.PromotionPolicy,
	idGenerator ports.IDGenerator,
	logger *slog.Logger,
) *ImprovePrompt {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImprovePrompt{
		versionRepo:     versionRepo,
		datasetRepo:     datasetRepo,
		evaluationRepo:  evaluationRepo,
		improvementRepo: improvementRepo,
		txManager:       txManager,
		runner:          runner,
		generator:       generator,
		policy:          policy,
		idGenerator:     idGenerator,
		logger:          logger,
	}
}

func (uc *ImprovePrompt) Execute(ctx context.Context, input *ports.ImprovePromptInput) (*models.ImprovementRun, error) {
	baseline, err := resolveVersion(ctx, uc.versionRepo, input.PromptName, input.BaselineVersion)
	if err != nil {
		return nil, err
	}
	// The active version observed here is the one the run's decision is
	// relative to. The promotion CAS is keyed on it, so any activation that
	// lands while the run is in flight surfaces as a conflict instead of
	// being silently archived.
	expectedActiveID := ""
	switch active, err := uc.versionRepo.GetActive(ctx, input.PromptName); {
	case err == nil:
		expectedActiveID = active.ID
	case errors.Is(err, domain.ErrNoActiveVersion):
	default:
		return nil, fmt.Errorf("read active version: %w", err)
	}
	if input.DatasetID == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "dataset_id is required for improvement runs")
	}
	entries, err := uc.datasetRepo.GetEntries(ctx, input.DatasetID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.NewDomainError(domain.ErrDatasetEmpty, fmt.Sprintf("dataset %s", input.DatasetID))
	}

	policy := uc.policy
	if input.ImprovementThreshold > 0 {
		policy.ImprovementThreshold = input.ImprovementThreshold
	}
	maxCandidates := input.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = uc.policy.MaxCandidates
	}

	improvement := models.NewImprovementRun(uc.idGenerator.GenerateImprovementID(), input.PromptName, baseline)
	if err := uc.improvementRepo.Create(ctx, improvement); err != nil {
		return nil, fmt.Errorf("create improvement run: %w", err)
	}

	run, err := uc.run(ctx, improvement, baseline, entries, input.DatasetID, policy, maxCandidates, expectedActiveID)
	if err != nil {
		improvement.MarkFailed(err.Error())
		if updateErr := uc.improvementRepo.Update(context.WithoutCancel(ctx), improvement); updateErr != nil {
			uc.logger.ErrorContext(ctx, "failed to record improvement failure",
				"improvement_id", improvement.ID, "error", updateErr)
		}
		return improvement, err
	}
	return run, nil
}

func (uc *ImprovePrompt) run(
	ctx context.Context,
	improvement *models.ImprovementRun,
	baseline *models.PromptVersion,
	entries []models.DatasetEntry,
	datasetID string,
	policy prompteval.PromotionPolicy,
	maxCandidates int,
	expectedActiveID string,
) (*models.ImprovementRun, error) {
	uc.logger.InfoContext(ctx, "improvement run started",
		"improvement_id", improvement.ID, "baseline", baseline.Label(), "entries", len(entries))

	baselineRun, err := uc.runner.Run(ctx, baseline, entries, nil)
	if err != nil {
		return nil, fmt.Errorf("baseline evaluation: %w", err)
	}
	baselineRun.DatasetID = datasetID
	if err := uc.evaluationRepo.Create(ctx, baselineRun); err != nil {
		return nil, fmt.Errorf("persist baseline run: %w", err)
	}
	improvement.BaselineScore = baselineRun.OverallScore
	improvement.BaselineRunID = baselineRun.ID
	improvement.Status = models.ImprovementStateGeneratingCandidates
	if err := uc.improvementRepo.Update(ctx, improvement); err != nil {
		return nil, fmt.Errorf("update improvement run: %w", err)
	}

	signals := prompteval.Analyze(baselineRun)
	candidates, err := uc.generator.Generate(ctx, baseline, signals, maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("candidate generation: %w", err)
	}
	metrics.CandidatesGeneratedTotal.Add(float64(len(candidates)))
	for _, candidate := range candidates {
		if err := uc.versionRepo.Create(ctx, candidate); err != nil {
			return nil, fmt.Errorf("persist candidate %s: %w", candidate.Version, err)
		}
	}
	improvement.CandidatesGenerated = len(candidates)
	improvement.Status = models.ImprovementStateEvaluatingCandidates
	if err := uc.improvementRepo.Update(ctx, improvement); err != nil {
		return nil, fmt.Errorf("update improvement run: %w", err)
	}

	outcomes := uc.evaluateCandidates(ctx, candidates, entries, datasetID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	improvement.CandidatesEvaluated = len(outcomes)
	improvement.Status = models.ImprovementStateDeciding
	if err := uc.improvementRepo.Update(ctx, improvement); err != nil {
		return nil, fmt.Errorf("update improvement run: %w", err)
	}

	decision := policy.Decide(baselineRun, outcomes)
	if decision.Best != nil {
		improvement.RecordBest(decision.Best.Version, decision.Best.Run.OverallScore)
	}

	if decision.Outcome == models.DecisionPromoted {
		if err := uc.promote(ctx, improvement.PromptName, decision.Best.Version, expectedActiveID); err != nil {
			if errors.Is(err, domain.ErrPromotionConflict) {
				metrics.PromotionConflictsTotal.Inc()
				improvement.MarkFailed(fmt.Sprintf("promotion conflict: %v", err))
				if updateErr := uc.improvementRepo.Update(context.WithoutCancel(ctx), improvement); updateErr != nil {
					uc.logger.ErrorContext(ctx, "failed to record promotion conflict",
						"improvement_id", improvement.ID, "error", updateErr)
				}
				return improvement, err
			}
			return nil, err
		}
	}

	improvement.Decide(decision.Outcome, decision.Reason)
	metrics.PromotionDecisionsTotal.WithLabelValues(decision.Outcome).Inc()
	if err := uc.improvementRepo.Update(ctx, improvement); err != nil {
		return nil, fmt.Errorf("update improvement run: %w", err)
	}

	uc.logger.InfoContext(ctx, "improvement run completed",
		"improvement_id", improvement.ID,
		"decision", decision.Outcome,
		"reason", decision.Reason)
	return improvement, nil
}

func (uc *ImprovePrompt) Get(ctx context.Context, id string) (*models.ImprovementRun, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "improvement id is required")
	}
	return uc.improvementRepo.GetByID(ctx, id)
}

func (uc *ImprovePrompt) ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.ImprovementRun, error) {
	if name == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "prompt name is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.improvementRepo.ListByPromptName(ctx, name, limit, offset)
}

// evaluateCandidates runs each candidate against the same dataset
// concurrently. One candidate's evaluation failure never aborts the others;
// the failed candidate simply contributes no outcome. Cancellation stops new
// work but in-flight evaluations drain.
func (uc *ImprovePrompt) evaluateCandidates(ctx context.Context, candidates []*models.PromptVersion, entries []models.DatasetEntry, datasetID string) []prompteval.CandidateOutcome {
	results := make([]*models.EvaluationRun, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, candidate *models.PromptVersion) {
			defer wg.Done()
			run, err := uc.runner.Run(ctx, candidate, entries, nil)
			if err != nil {
				uc.logger.WarnContext(ctx, "candidate evaluation failed",
					"candidate", candidate.Label(), "error", err)
				return
			}
			run.DatasetID = datasetID
			if err := uc.evaluationRepo.Create(ctx, run); err != nil {
				uc.logger.ErrorContext(ctx, "failed to persist candidate run",
					"candidate", candidate.Label(), "error", err)
				return
			}
			results[i] = run
		}(i, candidate)
	}
	wg.Wait()

	outcomes := make([]prompteval.CandidateOutcome, 0, len(candidates))
	for i, run := range results {
		if run == nil {
			continue
		}
		outcomes = append(outcomes, prompteval.CandidateOutcome{Version: candidates[i], Run: run})
	}
	return outcomes
}

// promote swaps the active version under the shared per-name lock. The CAS is
// keyed on the active version captured when the run started, so any
// activation that landed mid-run surfaces as domain.ErrPromotionConflict
// instead of being silently overwritten.
func (uc *ImprovePrompt) promote(ctx context.Context, name string, candidate *models.PromptVersion, expectedActiveID string) error {
	unlock := promotionLocks.lock(name)
	defer unlock()

	return uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return uc.versionRepo.Activate(txCtx, name, candidate.ID, expectedActiveID)
	})
}
