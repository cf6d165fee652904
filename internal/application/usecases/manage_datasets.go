package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/domain/models"
	"github.com/promptforge/promptforge/internal/ports"
)

// ManageDatasets covers dataset creation and append-only entry management.
type ManageDatasets struct {
	datasetRepo ports.DatasetRepository
	idGenerator ports.IDGenerator
	logger      *slog.Logger
}

func NewManageDatasets(datasetRepo ports.DatasetRepository, idGenerator ports.IDGenerator, logger *slog.Logger) *ManageDatasets {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManageDatasets{datasetRepo: datasetRepo, idGenerator: idGenerator, logger: logger}
}

func (uc *ManageDatasets) Create(ctx context.Context, input *ports.CreateDatasetInput) (*models.Dataset, error) {
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "dataset name is required")
	}

	dataset := models.NewDataset(uc.idGenerator.GenerateDatasetID(), input.Name, input.Description)
	dataset.PromptName = input.PromptName
	for i, entry := range input.Entries {
		if len(entry.InputData) == 0 {
			return nil, domain.NewDomainError(domain.ErrInvalidInput, fmt.Sprintf("entry %d has no input_data", i))
		}
		dataset.Entries = append(dataset.Entries,
			*models.NewDatasetEntry(uc.idGenerator.GenerateEntryID(), dataset.ID, entry.InputData, entry.ExpectedOutput, entry.Rubric, i))
	}

	if err := uc.datasetRepo.Create(ctx, dataset); err != nil {
		return nil, err
	}
	uc.logger.InfoContext(ctx, "dataset created", "dataset_id", dataset.ID, "entries", len(dataset.Entries))
	return dataset, nil
}

func (uc *ManageDatasets) Get(ctx context.Context, id string) (*models.Dataset, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "dataset id is required")
	}
	return uc.datasetRepo.GetByID(ctx, id)
}

func (uc *ManageDatasets) List(ctx context.Context, limit, offset int) ([]*models.Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.datasetRepo.List(ctx, limit, offset)
}

// AddEntries appends entries to an existing dataset. Positions continue
// after the current last entry.
func (uc *ManageDatasets) AddEntries(ctx context.Context, datasetID string, entries []ports.AdHocEntry) ([]models.DatasetEntry, error) {
	if datasetID == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "dataset id is required")
	}
	if len(entries) == 0 {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "at least one entry is required")
	}
	existing, err := uc.datasetRepo.GetEntries(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	base := len(existing)
	added := make([]models.DatasetEntry, 0, len(entries))
	for i, entry := range entries {
		if len(entry.InputData) == 0 {
			return nil, domain.NewDomainError(domain.ErrInvalidInput, fmt.Sprintf("entry %d has no input_data", i))
		}
		added = append(added,
			*models.NewDatasetEntry(uc.idGenerator.GenerateEntryID(), datasetID, entry.InputData, entry.ExpectedOutput, entry.Rubric, base+i))
	}
	if err := uc.datasetRepo.AddEntries(ctx, datasetID, added); err != nil {
		return nil, err
	}
	return added, nil
}
