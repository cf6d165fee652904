package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/promptforge/promptforge/internal/adapters/metrics"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
	"github.com/promptforge/promptforge/internal/prompteval"
)

// EvaluatePrompt runs one prompt version against a dataset (stored or ad
// hoc) and persists the resulting evaluation run.
type EvaluatePrompt struct {
	versionRepo    ports.PromptVersionRepository
	datasetRepo    ports.DatasetRepository
	evaluationRepo ports.EvaluationRepository
	runner         *prompteval.Runner
	idGenerator    ports.IDGenerator
	logger         *slog.Logger
}

func NewEvaluatePrompt(
	versionRepo ports.PromptVersionRepository,
	datasetRepo ports.DatasetRepository,
	evaluationRepo ports.EvaluationRepository,
	runner *prompteval.Runner,
	idGenerator ports.IDGenerator,
	logger *slog.Logger,
) *EvaluatePrompt {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluatePrompt{
		versionRepo:    versionRepo,
		datasetRepo:    datasetRepo,
		evaluationRepo: evaluationRepo,
		runner:         runner,
		idGenerator:    idGenerator,
		logger:         logger,
	}
}

func (uc *EvaluatePrompt) Execute(ctx context.Context, input *ports.EvaluatePromptInput) (*models.EvaluationRun, error) {
	version, err := resolveVersion(ctx, uc.versionRepo, input.PromptName, input.Version)
	if err != nil {
		return nil, err
	}

	entries, datasetID, err := resolveEntries(ctx, uc.datasetRepo, uc.idGenerator, input.DatasetID, input.Entries)
	if err != nil {
		return nil, err
	}

	uc.logger.InfoContext(ctx, "starting evaluation",
		"prompt", version.Label(), "entries", len(entries))

	start := time.Now()
	run, err := uc.runner.Run(ctx, version, entries, input.Dimensions)
	if err != nil {
		metrics.EvaluationRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	run.DatasetID = datasetID

	metrics.EvaluationRunDuration.Observe(time.Since(start).Seconds())
	metrics.EvaluationRunsTotal.WithLabelValues("completed").Inc()
	metrics.EntriesEvaluatedTotal.WithLabelValues("passed").Add(float64(run.PassedExamples))
	metrics.EntriesEvaluatedTotal.WithLabelValues("failed").Add(float64(run.FailedExamples))

	if err := uc.evaluationRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("persist evaluation run: %w", err)
	}

	uc.logger.InfoContext(ctx, "evaluation completed",
		"run_id", run.ID,
		"overall_score", run.OverallScore,
		"passed", run.PassedExamples,
		"failed", run.FailedExamples)
	return run, nil
}

func (uc *EvaluatePrompt) Get(ctx context.Context, id string) (*models.EvaluationRun, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "evaluation id is required")
	}
	return uc.evaluationRepo.GetByID(ctx, id)
}

func (uc *EvaluatePrompt) ListByPromptName(ctx context.Context, name string, limit, offset int) ([]*models.EvaluationRun, error) {
	if name == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "prompt name is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.evaluationRepo.ListByPromptName(ctx, name, limit, offset)
}

// resolveVersion loads the requested version, defaulting to the active one.
func resolveVersion(ctx context.Context, repo ports.PromptVersionRepository, name, version string) (*models.PromptVersion, error) {
	if name == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "prompt name is required")
	}
	if version != "" {
		return repo.GetByNameAndVersion(ctx, name, version)
	}
	resolved, err := repo.GetActive(ctx, name)
	if errors.Is(err, domain.ErrNoActiveVersion) {
		return nil, domain.NewDomainError(domain.ErrNoActiveVersion,
			fmt.Sprintf("prompt %q has no active version; specify one explicitly", name))
	}
	return resolved, err
}

// resolveEntries loads a stored dataset's entries or materializes ad-hoc
// ones. A request with neither is a validation error, executed against
// nothing.
func resolveEntries(ctx context.Context, repo ports.DatasetRepository, ids ports.IDGenerator, datasetID string, adHoc []ports.AdHocEntry) ([]models.DatasetEntry, string, error) {
	if datasetID != "" && len(adHoc) > 0 {
		return nil, "", domain.NewDomainError(domain.ErrInvalidInput, "dataset_id and dataset_entries are mutually exclusive")
	}
	if datasetID != "" {
		entries, err := repo.GetEntries(ctx, datasetID)
		if err != nil {
			return nil, "", err
		}
		if len(entries) == 0 {
			return nil, "", domain.NewDomainError(domain.ErrDatasetEmpty, fmt.Sprintf("dataset %s", datasetID))
		}
		return entries, datasetID, nil
	}
	if len(adHoc) == 0 {
		return nil, "", domain.NewDomainError(domain.ErrInvalidInput, "either dataset_id or dataset_entries is required")
	}

	entries := make([]models.DatasetEntry, 0, len(adHoc))
	for i, entry := range adHoc {
		if len(entry.InputData) == 0 {
			return nil, "", domain.NewDomainError(domain.ErrInvalidInput, fmt.Sprintf("entry %d has no input_data", i))
		}
		entries = append(entries, *models.NewDatasetEntry(ids.GenerateEntryID(), "", entry.InputData, entry.ExpectedOutput, entry.Rubric, i))
	}
	return entries, "", nil
}
